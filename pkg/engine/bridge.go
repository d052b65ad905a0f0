package engine

import (
	"context"
	"fmt"
)

// Host is a callback-style database host: every call returns immediately and
// reports its outcome later through exactly one of success or fail.
type Host interface {
	IsOpenDatabase(name, path string) bool
	OpenDatabase(name, path string, success func(), fail func(error))
	CloseDatabase(name string, success func(), fail func(error))
	ExecuteSQL(name, sql string, success func(), fail func(error))
	SelectSQL(name, sql string, success func([]Row), fail func(error))
}

// Bridge adapts a Host to the blocking Engine contract. Calls wait for the
// host callback or for ctx to be done, whichever comes first.
type Bridge struct {
	host Host
}

func NewBridge(host Host) *Bridge {
	return &Bridge{host: host}
}

type outcome struct {
	rows []Row
	err  error
}

// await runs call and blocks until one of its callbacks fires. The channel is
// buffered so a late callback after cancellation never blocks the host.
func await(ctx context.Context, call func(success func([]Row), fail func(error))) ([]Row, error) {
	done := make(chan outcome, 1)
	call(
		func(rows []Row) { done <- outcome{rows: rows} },
		func(err error) {
			if err == nil {
				err = fmt.Errorf("host reported failure")
			}
			done <- outcome{err: err}
		},
	)
	select {
	case o := <-done:
		return o.rows, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *Bridge) IsOpen(name, path string) bool {
	return b.host.IsOpenDatabase(name, path)
}

func (b *Bridge) Open(ctx context.Context, name, path string) error {
	if b.host.IsOpenDatabase(name, path) {
		return nil
	}
	_, err := await(ctx, func(success func([]Row), fail func(error)) {
		b.host.OpenDatabase(name, path, func() { success(nil) }, fail)
	})
	if err != nil {
		return newError("open", name, err)
	}
	return nil
}

func (b *Bridge) Close(ctx context.Context, name string) error {
	_, err := await(ctx, func(success func([]Row), fail func(error)) {
		b.host.CloseDatabase(name, func() { success(nil) }, fail)
	})
	if err != nil {
		return newError("close", name, err)
	}
	return nil
}

func (b *Bridge) Execute(ctx context.Context, name, sql string) (ExecResult, error) {
	_, err := await(ctx, func(success func([]Row), fail func(error)) {
		b.host.ExecuteSQL(name, sql, func() { success(nil) }, fail)
	})
	if err != nil {
		return ExecResult{}, newError("execute", name, err)
	}
	return ExecResult{}, nil
}

func (b *Bridge) Select(ctx context.Context, name, sql string) ([]Row, error) {
	rows, err := await(ctx, func(success func([]Row), fail func(error)) {
		b.host.SelectSQL(name, sql, success, fail)
	})
	if err != nil {
		return nil, newError("select", name, err)
	}
	if rows == nil {
		rows = []Row{}
	}
	return rows, nil
}
