package engine

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3" // registers "sqlite3" (cgo)
	_ "modernc.org/sqlite"          // registers "sqlite" (pure Go)
)

const (
	// DriverCGO is the mattn/go-sqlite3 driver name.
	DriverCGO = "sqlite3"
	// DriverPure is the modernc.org/sqlite driver name.
	DriverPure = "sqlite"

	dirPermissions = 0o750
)

// Opener opens a *sql.DB for a driver and data source.
type Opener func(driver, dsn string) (*sql.DB, error)

// SQLOption configures an SQL engine.
type SQLOption func(*SQL)

// WithDriver selects the database/sql driver. Defaults to DriverCGO.
func WithDriver(driver string) SQLOption {
	return func(s *SQL) { s.driver = driver }
}

// WithOpener replaces sql.Open, mostly for tests.
func WithOpener(open Opener) SQLOption {
	return func(s *SQL) { s.open = open }
}

// WithPragmas replaces the pragmas applied after a database is opened.
func WithPragmas(pragmas ...string) SQLOption {
	return func(s *SQL) { s.pragmas = pragmas }
}

type handle struct {
	db   *sql.DB
	path string
}

// SQL is an Engine over database/sql. It keeps at most one *sql.DB per
// logical name and is safe for concurrent use.
type SQL struct {
	driver  string
	open    Opener
	pragmas []string

	mu      sync.Mutex
	handles map[string]*handle
}

// NewSQL returns an SQL engine with no open databases.
func NewSQL(opts ...SQLOption) *SQL {
	s := &SQL{
		driver: DriverCGO,
		open:   sql.Open,
		pragmas: []string{
			"PRAGMA busy_timeout = 5000",
			"PRAGMA foreign_keys = ON",
		},
		handles: map[string]*handle{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Driver returns the configured driver name.
func (s *SQL) Driver() string { return s.driver }

func (s *SQL) IsOpen(name, path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handles[name]
	return ok && (path == "" || h.path == path)
}

// Open opens path under name. Opening a name again at the same path is a
// no-op; at a different path it fails.
func (s *SQL) Open(ctx context.Context, name, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.handles[name]; ok {
		if path != "" && h.path != path {
			return newError("open", name, fmt.Errorf("already open at %s", h.path))
		}
		return nil
	}
	if path == "" {
		return newError("open", name, fmt.Errorf("empty database path"))
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, dirPermissions); err != nil {
			return newError("open", name, fmt.Errorf("creating database directory: %w", err))
		}
	}

	db, err := s.open(s.driver, path)
	if err != nil {
		return newError("open", name, fmt.Errorf("opening database: %w", err))
	}
	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck // best effort cleanup on error path
		return newError("open", name, fmt.Errorf("verifying database connection: %w", err))
	}
	for _, pragma := range s.pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close() //nolint:errcheck // best effort cleanup on error path
			return newError("open", name, fmt.Errorf("failed to execute %q: %w", pragma, err))
		}
	}

	s.handles[name] = &handle{db: db, path: path}
	return nil
}

func (s *SQL) Close(_ context.Context, name string) error {
	s.mu.Lock()
	h, ok := s.handles[name]
	delete(s.handles, name)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	if err := h.db.Close(); err != nil {
		return newError("close", name, err)
	}
	return nil
}

func (s *SQL) Execute(ctx context.Context, name, query string) (ExecResult, error) {
	db, err := s.lookup("execute", name)
	if err != nil {
		return ExecResult{}, err
	}
	res, err := db.ExecContext(ctx, query)
	if err != nil {
		return ExecResult{}, newError("execute", name, err)
	}
	var out ExecResult
	// Drivers that cannot report these return an error; zero is fine then.
	if id, err := res.LastInsertId(); err == nil {
		out.LastInsertID = id
	}
	if n, err := res.RowsAffected(); err == nil {
		out.RowsAffected = n
	}
	return out, nil
}

func (s *SQL) Select(ctx context.Context, name, query string) ([]Row, error) {
	db, err := s.lookup("select", name)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, newError("select", name, err)
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, newError("select", name, err)
	}
	return out, nil
}

func (s *SQL) lookup(op, name string) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handles[name]
	if !ok {
		return nil, newError(op, name, fmt.Errorf("database is not open"))
	}
	return h.db, nil
}

// CloseAll closes every open database.
func (s *SQL) CloseAll() error {
	s.mu.Lock()
	names := make([]string, 0, len(s.handles))
	for name := range s.handles {
		names = append(names, name)
	}
	s.mu.Unlock()

	var first error
	for _, name := range names {
		if err := s.Close(context.Background(), name); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	out := []Row{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}
