// Package bootstrap creates missing tables from versioned SQL scripts.
//
// A script directory holds one NNNN_<table>.sql file per table with its
// CREATE TABLE statement and, optionally, NNNN_<table>.index.sql with
// statements run right after the table is created. Tables that already exist
// are left alone; nothing is ever dropped or altered.
package bootstrap

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/TechXTT/litequery/pkg/logging"
	"github.com/TechXTT/litequery/pkg/query"
)

//go:embed schema/*.sql
var defaultSchema embed.FS

var scriptName = regexp.MustCompile(`^(\d+)_([^.]+)(\.index)?\.sql$`)

// ErrNoScripts is returned when a directory holds no table scripts.
var ErrNoScripts = errors.New("no table scripts found")

// Script holds the statements for one table.
type Script struct {
	Version   int
	Table     string
	CreateSQL string
	IndexSQL  string
}

// Executor is the part of a query session bootstrap needs.
type Executor interface {
	HasTable(ctx context.Context, name string) (bool, error)
	ExecSQL(ctx context.Context, sql string) (query.Result, error)
}

// Default returns the built-in wallet and bill scripts.
func Default() ([]Script, error) {
	sub, err := fs.Sub(defaultSchema, "schema")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}

// LoadDir reads scripts from dir.
func LoadDir(dir string) ([]Script, error) {
	return Load(os.DirFS(dir))
}

// Load reads the scripts at the root of fsys, ordered by version.
func Load(fsys fs.FS) ([]Script, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read scripts dir: %w", err)
	}

	tmp := map[int]*Script{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := scriptName.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		ver, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("parse version of %s: %w", e.Name(), err)
		}
		data, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}

		s, ok := tmp[ver]
		if !ok {
			s = &Script{Version: ver, Table: m[2]}
			tmp[ver] = s
		}
		if s.Table != m[2] {
			return nil, fmt.Errorf("version %04d is used by both %s and %s", ver, s.Table, m[2])
		}
		body := strings.TrimSpace(string(data))
		if m[3] != "" {
			s.IndexSQL = body
		} else {
			s.CreateSQL = body
		}
	}
	if len(tmp) == 0 {
		return nil, ErrNoScripts
	}

	versions := make([]int, 0, len(tmp))
	for v := range tmp {
		versions = append(versions, v)
	}
	sort.Ints(versions)

	scripts := make([]Script, 0, len(versions))
	for _, v := range versions {
		s := *tmp[v]
		if s.CreateSQL == "" {
			return nil, fmt.Errorf("%04d_%s: index script without table script", s.Version, s.Table)
		}
		scripts = append(scripts, s)
	}
	return scripts, nil
}

// TableStatus reports whether the table of a script exists.
type TableStatus struct {
	Version int    `json:"version"`
	Table   string `json:"table"`
	Present bool   `json:"present"`
	// Created is set by Run for tables it created.
	Created bool `json:"created,omitempty"`
}

// Runner applies scripts through an Executor.
type Runner struct {
	exec    Executor
	scripts []Script
	log     *logging.Logger
}

func NewRunner(exec Executor, scripts []Script, log *logging.Logger) *Runner {
	if log == nil {
		log = logging.Default()
	}
	return &Runner{exec: exec, scripts: scripts, log: log}
}

// Run creates every missing table, then its indexes, in version order. It
// stops at the first failure; the statuses gathered so far are returned.
func (r *Runner) Run(ctx context.Context) ([]TableStatus, error) {
	out := make([]TableStatus, 0, len(r.scripts))
	for _, s := range r.scripts {
		st := TableStatus{Version: s.Version, Table: s.Table}
		ok, err := r.exec.HasTable(ctx, s.Table)
		if err != nil {
			return out, fmt.Errorf("check table %s: %w", s.Table, err)
		}
		if ok {
			r.log.Info("table exists", "table", s.Table)
			st.Present = true
			out = append(out, st)
			continue
		}

		r.log.Warn("table missing, creating", "table", s.Table, "version", s.Version)
		if _, err := r.exec.ExecSQL(ctx, s.CreateSQL); err != nil {
			return out, fmt.Errorf("create table %s: %w", s.Table, err)
		}
		if s.IndexSQL != "" {
			r.log.Info("creating indexes", "table", s.Table)
			if _, err := r.exec.ExecSQL(ctx, s.IndexSQL); err != nil {
				return out, fmt.Errorf("create indexes for %s: %w", s.Table, err)
			}
		}
		st.Present, st.Created = true, true
		out = append(out, st)
	}
	return out, nil
}

// Status reports which tables exist without changing anything.
func (r *Runner) Status(ctx context.Context) ([]TableStatus, error) {
	out := make([]TableStatus, 0, len(r.scripts))
	for _, s := range r.scripts {
		ok, err := r.exec.HasTable(ctx, s.Table)
		if err != nil {
			return nil, fmt.Errorf("check table %s: %w", s.Table, err)
		}
		out = append(out, TableStatus{Version: s.Version, Table: s.Table, Present: ok})
	}
	return out, nil
}
