package bootstrap

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TechXTT/litequery/pkg/config"
	"github.com/TechXTT/litequery/pkg/engine"
	"github.com/TechXTT/litequery/pkg/logging"
	"github.com/TechXTT/litequery/pkg/query"
)

type fakeExecutor struct {
	tables map[string]bool
	ran    []string
	failOn string
}

func (f *fakeExecutor) HasTable(_ context.Context, name string) (bool, error) {
	return f.tables[name], nil
}

func (f *fakeExecutor) ExecSQL(_ context.Context, sql string) (query.Result, error) {
	f.ran = append(f.ran, sql)
	if f.failOn != "" && sql == f.failOn {
		return query.Result{}, errors.New("syntax error")
	}
	return query.Result{SQL: sql}, nil
}

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_bill.sql":       {Data: []byte("CREATE TABLE bill (id INTEGER);\n")},
		"0002_bill.index.sql": {Data: []byte("CREATE INDEX d ON bill (id);")},
		"0001_wallet.sql":     {Data: []byte("CREATE TABLE wallet (id INTEGER);")},
		"README.md":           {Data: []byte("ignored")},
	}
	scripts, err := Load(fsys)
	require.NoError(t, err)
	assert.Equal(t, []Script{
		{Version: 1, Table: "wallet", CreateSQL: "CREATE TABLE wallet (id INTEGER);"},
		{Version: 2, Table: "bill", CreateSQL: "CREATE TABLE bill (id INTEGER);", IndexSQL: "CREATE INDEX d ON bill (id);"},
	}, scripts)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(fstest.MapFS{"notes.txt": {}})
	require.ErrorIs(t, err, ErrNoScripts)

	_, err = Load(fstest.MapFS{"0001_bill.index.sql": {Data: []byte("x")}})
	require.ErrorContains(t, err, "index script without table script")

	_, err = Load(fstest.MapFS{
		"0001_bill.sql":   {Data: []byte("x")},
		"0001_wallet.sql": {Data: []byte("y")},
	})
	require.ErrorContains(t, err, "version 0001 is used by both")

	_, err = LoadDir(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestDefault(t *testing.T) {
	scripts, err := Default()
	require.NoError(t, err)
	require.Len(t, scripts, 2)
	assert.Equal(t, "wallet", scripts[0].Table)
	assert.Equal(t, "bill", scripts[1].Table)
	assert.Contains(t, scripts[1].IndexSQL, `CREATE INDEX "main"."date"`)
}

func TestRun_CreatesMissingTables(t *testing.T) {
	scripts := []Script{
		{Version: 1, Table: "wallet", CreateSQL: "create wallet"},
		{Version: 2, Table: "bill", CreateSQL: "create bill", IndexSQL: "index bill"},
	}
	exec := &fakeExecutor{tables: map[string]bool{"wallet": true}}

	got, err := NewRunner(exec, scripts, logging.Discard()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []TableStatus{
		{Version: 1, Table: "wallet", Present: true},
		{Version: 2, Table: "bill", Present: true, Created: true},
	}, got)
	assert.Equal(t, []string{"create bill", "index bill"}, exec.ran)
}

func TestRun_StopsAtFailure(t *testing.T) {
	scripts := []Script{
		{Version: 1, Table: "wallet", CreateSQL: "create wallet"},
		{Version: 2, Table: "bill", CreateSQL: "create bill"},
	}
	exec := &fakeExecutor{tables: map[string]bool{}, failOn: "create wallet"}

	got, err := NewRunner(exec, scripts, logging.Discard()).Run(context.Background())
	require.ErrorContains(t, err, "create table wallet")
	assert.Empty(t, got)
	assert.Equal(t, []string{"create wallet"}, exec.ran)
}

func TestStatus(t *testing.T) {
	scripts := []Script{
		{Version: 1, Table: "wallet", CreateSQL: "create wallet"},
		{Version: 2, Table: "bill", CreateSQL: "create bill"},
	}
	exec := &fakeExecutor{tables: map[string]bool{"bill": true}}

	got, err := NewRunner(exec, scripts, nil).Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []TableStatus{
		{Version: 1, Table: "wallet"},
		{Version: 2, Table: "bill", Present: true},
	}, got)
	assert.Empty(t, exec.ran)
}

func TestRun_SQLite(t *testing.T) {
	eng := engine.NewSQL(engine.WithDriver(engine.DriverPure))
	t.Cleanup(func() { _ = eng.CloseAll() })

	opts := config.Default()
	opts.Path = filepath.Join(t.TempDir(), "accountBook.db")
	opts.AutoClose = false
	s, err := query.New(eng, opts, query.WithLogger(logging.Discard()))
	require.NoError(t, err)

	scripts, err := Default()
	require.NoError(t, err)
	runner := NewRunner(s, scripts, logging.Discard())
	ctx := context.Background()

	first, err := runner.Run(ctx)
	require.NoError(t, err)
	for _, st := range first {
		assert.True(t, st.Created, st.Table)
	}

	second, err := runner.Run(ctx)
	require.NoError(t, err)
	for _, st := range second {
		assert.True(t, st.Present, st.Table)
		assert.False(t, st.Created, st.Table)
	}

	cols, err := s.Columns(ctx, "bill")
	require.NoError(t, err)
	assert.Len(t, cols, 10)
}
