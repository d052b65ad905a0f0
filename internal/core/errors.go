package core

import "errors"

// ErrInvalidArgument is returned for bad operators, directions, limits and
// pagination parameters.
var ErrInvalidArgument = errors.New("invalid argument")
