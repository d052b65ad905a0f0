package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHost answers every call asynchronously, like a native bridge would.
type fakeHost struct {
	mu     sync.Mutex
	open   map[string]bool
	calls  []string
	fail   error
	rows   []Row
	silent bool
}

func newFakeHost() *fakeHost {
	return &fakeHost{open: map[string]bool{}}
}

func (h *fakeHost) record(call string) {
	h.mu.Lock()
	h.calls = append(h.calls, call)
	h.mu.Unlock()
}

func (h *fakeHost) IsOpenDatabase(name, _ string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.open[name]
}

func (h *fakeHost) OpenDatabase(name, path string, success func(), fail func(error)) {
	h.record("open " + name + " " + path)
	go func() {
		if h.fail != nil {
			fail(h.fail)
			return
		}
		h.mu.Lock()
		h.open[name] = true
		h.mu.Unlock()
		success()
	}()
}

func (h *fakeHost) CloseDatabase(name string, success func(), fail func(error)) {
	h.record("close " + name)
	go func() {
		h.mu.Lock()
		delete(h.open, name)
		h.mu.Unlock()
		success()
	}()
}

func (h *fakeHost) ExecuteSQL(name, sql string, success func(), fail func(error)) {
	h.record("execute " + sql)
	go func() {
		if h.fail != nil {
			fail(h.fail)
			return
		}
		success()
	}()
}

func (h *fakeHost) SelectSQL(name, sql string, success func([]Row), fail func(error)) {
	h.record("select " + sql)
	if h.silent {
		return
	}
	go func() {
		if h.fail != nil {
			fail(h.fail)
			return
		}
		success(h.rows)
	}()
}

func TestBridge_Lifecycle(t *testing.T) {
	host := newFakeHost()
	host.rows = []Row{{"id": 1}}
	b := NewBridge(host)
	ctx := context.Background()

	require.NoError(t, b.Open(ctx, "main", "_doc/database/main.db"))
	require.True(t, b.IsOpen("main", "_doc/database/main.db"))
	// Second open is answered from IsOpenDatabase without a host call.
	require.NoError(t, b.Open(ctx, "main", "_doc/database/main.db"))

	_, err := b.Execute(ctx, "main", "DELETE FROM bill")
	require.NoError(t, err)

	rows, err := b.Select(ctx, "main", "SELECT * FROM bill")
	require.NoError(t, err)
	assert.Equal(t, []Row{{"id": 1}}, rows)

	require.NoError(t, b.Close(ctx, "main"))
	assert.False(t, b.IsOpen("main", "_doc/database/main.db"))

	assert.Equal(t, []string{
		"open main _doc/database/main.db",
		"execute DELETE FROM bill",
		"select SELECT * FROM bill",
		"close main",
	}, host.calls)
}

func TestBridge_EmptySelect(t *testing.T) {
	b := NewBridge(newFakeHost())
	rows, err := b.Select(context.Background(), "main", "SELECT * FROM bill")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestBridge_Failure(t *testing.T) {
	host := newFakeHost()
	host.fail = errors.New("disk I/O error")
	b := NewBridge(host)

	err := b.Open(context.Background(), "main", "x.db")
	require.ErrorIs(t, err, ErrFailure)
	require.Contains(t, err.Error(), "disk I/O error")

	_, err = b.Execute(context.Background(), "main", "DELETE FROM bill")
	var engErr *Error
	require.True(t, errors.As(err, &engErr))
	assert.Equal(t, "execute", engErr.Op)
}

func TestBridge_ContextCancelled(t *testing.T) {
	host := newFakeHost()
	host.silent = true
	b := NewBridge(host)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := b.Select(ctx, "main", "SELECT 1")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.ErrorIs(t, err, ErrFailure)
}
