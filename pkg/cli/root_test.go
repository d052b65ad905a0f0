package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TechXTT/litequery/pkg/bootstrap"
	"github.com/TechXTT/litequery/pkg/query"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCmd()
	require.NotNil(t, cmd)
	assert.Equal(t, "litequery", cmd.Use)

	for _, name := range []string{"exec", "tables", "columns", "bootstrap", "status", "version"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCmd()
	for _, name := range []string{"config", "driver", "name", "path", "dry-run", "echo"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
	assert.Equal(t, "c", cmd.PersistentFlags().Lookup("config").Shorthand)
	assert.Equal(t, "false", cmd.PersistentFlags().Lookup("dry-run").DefValue)
}

// run executes the root command and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)
}

func TestCommands_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.db")
	base := []string{"--driver", "sqlite", "--path", path}

	out, _, err := run(t, append(base, "status")...)
	require.NoError(t, err)
	var statuses []bootstrap.TableStatus
	require.NoError(t, json.Unmarshal([]byte(out), &statuses))
	require.Len(t, statuses, 2)
	assert.False(t, statuses[0].Present)

	out, _, err = run(t, append(base, "bootstrap")...)
	require.NoError(t, err)
	statuses = nil
	require.NoError(t, json.Unmarshal([]byte(out), &statuses))
	require.Len(t, statuses, 2)
	for _, st := range statuses {
		assert.True(t, st.Created, st.Table)
	}

	out, _, err = run(t, append(base, "tables")...)
	require.NoError(t, err)
	var tables []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &tables))
	names := make([]string, 0, len(tables))
	for _, row := range tables {
		names = append(names, row["name"].(string))
	}
	assert.ElementsMatch(t, []string{"wallet", "bill"}, names)

	out, errOut, err := run(t, append(base, "columns", "wallet")...)
	require.NoError(t, err)
	var cols []query.Column
	require.NoError(t, json.Unmarshal([]byte(out), &cols))
	require.Len(t, cols, 5)
	assert.Equal(t, "id", cols[0].Name)
	assert.True(t, cols[0].PrimaryKey)
	assert.Equal(t, "int64", cols[0].GoType)
	assert.Contains(t, errOut, "driver=sqlite")

	out, errOut, err = run(t, append(base, "--echo", "exec", "INSERT INTO wallet (name, value) VALUES ('cash', 5)")...)
	require.NoError(t, err)
	var res execOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, int64(1), res.RowsAffected)
	assert.Contains(t, errOut, "INSERT INTO wallet (name, value) VALUES ('cash', 5)\n")

	out, _, err = run(t, append(base, "exec", "SELECT name, value FROM wallet")...)
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.Equal(t, []map[string]any{{"name": "cash", "value": 5.0}}, rows)
}

func TestExec_DryRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "book.db")

	out, _, err := run(t, "--driver", "sqlite", "--path", path, "--dry-run", "exec", "DELETE FROM bill")
	require.NoError(t, err)
	var res execOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.DryRun)
	assert.Equal(t, "DELETE FROM bill", res.SQL)
	assert.NoDirExists(t, filepath.Dir(path))
}

func TestExec_Errors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.db")

	_, _, err := run(t, "--driver", "sqlite", "--path", path, "exec")
	require.Error(t, err)

	_, _, err = run(t, "--driver", "sqlite", "--path", path, "exec", "SELECT * FROM missing")
	require.Error(t, err)

	_, _, err = run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "tables")
	require.ErrorContains(t, err, "reading config file")
}
