package plugin

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChain_StopsOnBeforeError(t *testing.T) {
	var calls []string
	denied := errors.New("denied")

	chain := Chain{
		Funcs{Before: func(_ context.Context, s Statement) error {
			calls = append(calls, "first "+s.SQL)
			return nil
		}},
		Funcs{Before: func(context.Context, Statement) error {
			calls = append(calls, "second")
			return denied
		}},
		Funcs{Before: func(context.Context, Statement) error {
			calls = append(calls, "third")
			return nil
		}},
	}

	err := chain.BeforeExec(context.Background(), Statement{SQL: "DELETE FROM bill"})
	require.ErrorIs(t, err, denied)
	require.Equal(t, []string{"first DELETE FROM bill", "second"}, calls)
}

func TestChain_AfterRunsAll(t *testing.T) {
	var seen []error
	boom := errors.New("boom")
	record := Funcs{After: func(_ context.Context, _ Statement, err error) {
		seen = append(seen, err)
	}}

	Chain{record, Funcs{}, record}.AfterExec(context.Background(), Statement{}, boom)
	require.Equal(t, []error{boom, boom}, seen)
	require.NoError(t, Funcs{}.BeforeExec(context.Background(), Statement{}))
}
