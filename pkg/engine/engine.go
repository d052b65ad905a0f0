// Package engine defines the contract of the database engine a query session
// talks to, and ships two implementations of it: SQL, backed by database/sql
// and a SQLite driver, and Bridge, which adapts a callback-style host API.
package engine

import (
	"context"
	"errors"
	"fmt"
)

// ErrFailure matches every *Error reported by an engine.
var ErrFailure = errors.New("engine failure")

// Row is one result row keyed by column name.
type Row map[string]any

// ExecResult describes the outcome of a write statement. Engines that cannot
// report these numbers leave them zero.
type ExecResult struct {
	LastInsertID int64
	RowsAffected int64
}

// Engine is the open/execute/close contract of the database host. Connections
// are identified by a logical name; the engine owns their lifetime.
type Engine interface {
	// IsOpen reports whether the named database is currently open.
	IsOpen(name, path string) bool
	// Open opens the database file at path under name. Opening an already
	// open name succeeds.
	Open(ctx context.Context, name, path string) error
	// Close closes the named database. Closing a closed name succeeds.
	Close(ctx context.Context, name string) error
	// Execute runs a statement that returns no rows (INSERT, UPDATE, DELETE, DDL).
	Execute(ctx context.Context, name, sql string) (ExecResult, error)
	// Select runs a query (SELECT, PRAGMA) and returns its rows.
	Select(ctx context.Context, name, sql string) ([]Row, error)
}

// Error is returned by engines when the host reports a failure.
type Error struct {
	Op   string
	Name string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("engine %s %q: %v", e.Op, e.Name, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrFailure) true for any *Error.
func (e *Error) Is(target error) bool { return target == ErrFailure }

func newError(op, name string, err error) error {
	return &Error{Op: op, Name: name, Err: err}
}
