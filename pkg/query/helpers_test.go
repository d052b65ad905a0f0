package query

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/TechXTT/litequery/pkg/config"
	"github.com/TechXTT/litequery/pkg/engine"
	"github.com/TechXTT/litequery/pkg/logging"
)

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

const stamp = "'2024-05-06 07:08:09'"

// fakeEngine records every call and answers selects from a queue.
type fakeEngine struct {
	mu      sync.Mutex
	open    map[string]bool
	opens   int
	closes  int
	execs   []string
	selects []string
	queue   [][]engine.Row
	failOn  string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{open: map[string]bool{}}
}

func (f *fakeEngine) IsOpen(name, _ string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open[name]
}

func (f *fakeEngine) Open(_ context.Context, name, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	f.open[name] = true
	return nil
}

func (f *fakeEngine) Close(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	delete(f.open, name)
	return nil
}

func (f *fakeEngine) Execute(_ context.Context, name, sql string) (engine.ExecResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execs = append(f.execs, sql)
	if f.failOn != "" && strings.Contains(sql, f.failOn) {
		return engine.ExecResult{}, &engine.Error{Op: "execute", Name: name, Err: errors.New("constraint failed")}
	}
	return engine.ExecResult{RowsAffected: 1}, nil
}

func (f *fakeEngine) Select(_ context.Context, name, sql string) ([]engine.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selects = append(f.selects, sql)
	if f.failOn != "" && strings.Contains(sql, f.failOn) {
		return nil, &engine.Error{Op: "select", Name: name, Err: errors.New("no such table")}
	}
	if len(f.queue) == 0 {
		return []engine.Row{}, nil
	}
	rows := f.queue[0]
	f.queue = f.queue[1:]
	return rows, nil
}

func (f *fakeEngine) counts() (opens, closes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens, f.closes
}

// testOptions returns options with auto-close off; tests covering the close
// lifecycle turn it back on.
func testOptions() config.Options {
	opts := config.Default()
	opts.AutoClose = false
	opts.SQLLog = false
	return opts
}

func newTestSession(t *testing.T, eng engine.Engine, mutate func(*config.Options), extra ...Option) *Session {
	t.Helper()
	opts := testOptions()
	if mutate != nil {
		mutate(&opts)
	}
	options := append([]Option{
		WithLogger(logging.Discard()),
		WithClock(func() time.Time { return fixedNow }),
	}, extra...)
	s, err := New(eng, opts, options...)
	require.NoError(t, err)
	return s
}
