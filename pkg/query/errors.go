package query

import (
	"errors"
	"fmt"

	"github.com/TechXTT/litequery/internal/core"
)

var (
	// ErrInvalidArgument is returned for bad operators, sort directions,
	// limits, pagination parameters and empty value sets.
	ErrInvalidArgument = core.ErrInvalidArgument

	// ErrNoTableBound is returned by terminal operations called before Table.
	ErrNoTableBound = errors.New("no table bound: call Table(name) before a terminal operation")

	// ErrEmptyBatch is returned by InsertAll and UpdateAll without rows.
	// errors.Is(ErrEmptyBatch, ErrInvalidArgument) is true.
	ErrEmptyBatch = fmt.Errorf("%w: batch must contain at least one row", ErrInvalidArgument)
)
