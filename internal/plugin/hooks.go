// File: internal/plugin/hooks.go
package plugin

import "context"

// Statement describes one SQL statement about to reach the engine.
type Statement struct {
	Session string
	Table   string
	SQL     string
	// Read is true for statements dispatched to the engine's select path.
	Read bool
}

// Hooks defines callbacks around every statement a session executes.
// A BeforeExec error aborts the statement.
type Hooks interface {
	BeforeExec(ctx context.Context, stmt Statement) error
	AfterExec(ctx context.Context, stmt Statement, err error)
}

// Chain runs hooks in order.
type Chain []Hooks

func (c Chain) BeforeExec(ctx context.Context, stmt Statement) error {
	for _, h := range c {
		if err := h.BeforeExec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (c Chain) AfterExec(ctx context.Context, stmt Statement, err error) {
	for _, h := range c {
		h.AfterExec(ctx, stmt, err)
	}
}

// Funcs adapts plain functions to Hooks. Nil fields are skipped.
type Funcs struct {
	Before func(ctx context.Context, stmt Statement) error
	After  func(ctx context.Context, stmt Statement, err error)
}

func (f Funcs) BeforeExec(ctx context.Context, stmt Statement) error {
	if f.Before == nil {
		return nil
	}
	return f.Before(ctx, stmt)
}

func (f Funcs) AfterExec(ctx context.Context, stmt Statement, err error) {
	if f.After != nil {
		f.After(ctx, stmt, err)
	}
}
