// Package query implements the fluent query session: chained condition,
// ordering and limit calls that render SQL for a single table, terminal
// operations that execute it through an engine, and the connection lifecycle
// around them.
//
// A Session is not safe for concurrent use. Chain calls mutate the session and
// return it; the state they build is cleared after every terminal operation so
// the same session can start a new chain. The table binding survives.
//
//	rows, err := s.Table("bill").
//		Where("type", "=", "out").
//		BeginGroup().
//		Where("value", ">", 100).
//		OrWhere("icon", "=", "star").
//		EndGroup().
//		OrderBy("date", "DESC").
//		Limit(20).
//		Select(ctx)
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/TechXTT/litequery/internal/core"
	"github.com/TechXTT/litequery/internal/plugin"
	"github.com/TechXTT/litequery/pkg/config"
	"github.com/TechXTT/litequery/pkg/engine"
	"github.com/TechXTT/litequery/pkg/logging"
)

type (
	// Hooks are called around every statement a session dispatches.
	Hooks = plugin.Hooks
	// Statement is what Hooks receive.
	Statement = plugin.Statement
	// HookFuncs adapts plain functions to Hooks.
	HookFuncs = plugin.Funcs
)

// Session binds one database configuration to one clause composer.
type Session struct {
	id     string
	opts   config.Options
	engine engine.Engine
	log    *logging.Logger
	hooks  plugin.Chain
	now    func() time.Time
	closer *closer

	table   string
	comp    *core.Composer
	err     error
	lastSQL string
	// holdClose > 0 suppresses auto-close while a multi-statement
	// operation is running.
	holdClose int
}

// Option configures a Session.
type Option func(*Session)

func WithLogger(l *logging.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithHooks appends statement hooks.
func WithHooks(hooks ...Hooks) Option {
	return func(s *Session) { s.hooks = append(s.hooks, hooks...) }
}

// WithClock replaces time.Now when deriving auto timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New creates a session over eng. opts is resolved against the clock: a
// relative path is rooted under opts.Dir and unseeded timestamps are derived.
func New(eng engine.Engine, opts config.Options, options ...Option) (*Session, error) {
	if eng == nil {
		return nil, errors.New("query: nil engine")
	}
	s := &Session{
		id:     uuid.NewString(),
		engine: eng,
		log:    logging.Default(),
		now:    time.Now,
		comp:   core.NewComposer(),
	}
	for _, opt := range options {
		opt(s)
	}

	resolved, err := opts.Resolve(s.now())
	if err != nil {
		return nil, fmt.Errorf("resolving options: %w", err)
	}
	s.opts = resolved
	s.log = s.log.With("session", s.id, "db", resolved.Name)
	s.closer = newCloser(resolved.CloseDelay, s.closeDetached)
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Options returns the resolved options.
func (s *Session) Options() config.Options { return s.opts }

// TableName returns the bound table, or "".
func (s *Session) TableName() string { return s.table }

// LastSQL returns the last statement the session dispatched or, in dry-run
// mode, rendered.
func (s *Session) LastSQL() string { return s.lastSQL }

// Logger returns the session logger.
func (s *Session) Logger() *logging.Logger { return s.log }

// Err returns the first chain error recorded since the last reset.
func (s *Session) Err() error { return s.err }

// ToSQL renders the WHERE / GROUP BY / ORDER BY / LIMIT suffix built so far.
func (s *Session) ToSQL() string { return s.comp.Render() }

func (s *Session) fail(err error) {
	if err != nil && s.err == nil {
		s.err = err
	}
}

// Table binds the table terminal operations act on.
func (s *Session) Table(name string) *Session {
	s.table = name
	return s
}

// Field sets the select list. No columns selects "*".
func (s *Session) Field(cols ...string) *Session {
	s.comp.SetFields(cols...)
	return s
}

// Where adds an AND-joined `field operator value` condition.
func (s *Session) Where(field, operator string, value any) *Session {
	s.fail(s.comp.AddCondition(field, operator, value, core.And))
	return s
}

// WhereEq is Where with the "=" operator.
func (s *Session) WhereEq(field string, value any) *Session {
	return s.Where(field, "=", value)
}

// OrWhere adds an OR-joined condition. As the first condition of the chain
// or of a group it behaves like Where.
func (s *Session) OrWhere(field, operator string, value any) *Session {
	s.fail(s.comp.AddCondition(field, operator, value, core.Or))
	return s
}

// OrWhereEq is OrWhere with the "=" operator.
func (s *Session) OrWhereEq(field string, value any) *Session {
	return s.OrWhere(field, "=", value)
}

// BeginGroup opens a parenthesised condition group.
func (s *Session) BeginGroup() *Session {
	s.comp.BeginGroup()
	return s
}

// EndGroup closes the innermost condition group.
func (s *Session) EndGroup() *Session {
	s.fail(s.comp.EndGroup())
	return s
}

// GroupBy adds GROUP BY columns.
func (s *Session) GroupBy(cols ...string) *Session {
	s.comp.GroupBy(cols...)
	return s
}

// OrderBy adds an ORDER BY column. direction is ASC or DESC in any case;
// empty means ASC.
func (s *Session) OrderBy(field, direction string) *Session {
	s.fail(s.comp.OrderBy(field, direction))
	return s
}

// Limit sets LIMIT count, or LIMIT offset, count when an offset is given.
func (s *Session) Limit(count int, offset ...int) *Session {
	s.fail(s.comp.Limit(count, offset...))
	return s
}

// Reset clears the chain state and any recorded chain error. The table
// binding is kept.
func (s *Session) Reset() *Session {
	s.reset()
	return s
}

func (s *Session) reset() {
	s.comp.Reset()
	s.err = nil
}

// abort resets the chain and returns err.
func (s *Session) abort(err error) error {
	s.reset()
	return err
}

// begin checks the preconditions of a terminal operation.
func (s *Session) begin() error {
	if s.err != nil {
		return s.abort(s.err)
	}
	if s.table == "" {
		return s.abort(ErrNoTableBound)
	}
	return nil
}

// finish ends a terminal operation.
func (s *Session) finish() {
	s.reset()
	s.autoClose()
}

func (s *Session) autoClose() {
	if s.opts.AutoClose && s.holdClose == 0 {
		s.Close()
	}
}

// hold runs fn with auto-close suppressed.
func (s *Session) hold(fn func() error) error {
	s.holdClose++
	defer func() { s.holdClose-- }()
	return fn()
}

// Open opens the database unless the engine reports it open already. A
// pending delayed close is cancelled.
func (s *Session) Open(ctx context.Context) error {
	s.closer.cancel()
	if s.engine.IsOpen(s.opts.Name, s.opts.Path) {
		return nil
	}
	s.log.Debug("opening database", "path", s.opts.Path)
	if err := s.engine.Open(ctx, s.opts.Name, s.opts.Path); err != nil {
		s.log.Error("failed to open database", "path", s.opts.Path, "error", err)
		return err
	}
	return nil
}

// Close schedules closing the database after the configured delay and
// returns immediately. Statements issued before the delay elapses keep the
// connection open. The outcome of the close is only logged.
func (s *Session) Close() {
	s.closer.schedule()
}

// ClosePending reports whether a delayed close is scheduled.
func (s *Session) ClosePending() bool { return s.closer.pending() }

// CloseNow cancels any delayed close and closes the database synchronously.
func (s *Session) CloseNow(ctx context.Context) error {
	s.closer.cancel()
	if !s.engine.IsOpen(s.opts.Name, s.opts.Path) {
		return nil
	}
	if err := s.engine.Close(ctx, s.opts.Name); err != nil {
		s.log.Error("failed to close database", "error", err)
		return err
	}
	s.log.Debug("database closed")
	return nil
}

func (s *Session) closeDetached() {
	if !s.engine.IsOpen(s.opts.Name, s.opts.Path) {
		return
	}
	if err := s.engine.Close(context.Background(), s.opts.Name); err != nil {
		s.log.Error("delayed close failed", "error", err)
		return
	}
	s.log.Debug("database closed", "delay", s.opts.CloseDelay)
}
