package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/ncruces/go-strftime"
	"gopkg.in/yaml.v3"
)

// EpochFormat as TimeFormat stores auto timestamps as unix seconds.
const EpochFormat = "unix"

// DefaultDir is the directory relative database paths are rooted under.
const DefaultDir = "_doc/database"

// Options configures one query session. A session keeps its own copy, so
// changing an Options value after the session is built has no effect on it.
type Options struct {
	// Name is the logical database identifier the engine tracks connections by.
	Name string `yaml:"name"`
	// Path is the database file. Relative paths are rooted under Dir.
	Path string `yaml:"path"`
	Dir  string `yaml:"dir"`

	// CreateTime and UpdateTime seed the auto timestamp columns. Either a
	// string or an integer; derived from the clock when empty.
	CreateTime any `yaml:"create_time"`
	UpdateTime any `yaml:"update_time"`

	AutoTime bool `yaml:"auto_time"`
	// TimeFormat is a strftime pattern, or EpochFormat.
	TimeFormat string `yaml:"time_format"`

	SQLLog bool `yaml:"sql_log"`
	// OnlySQL renders statements without executing them.
	OnlySQL bool `yaml:"only_sql"`

	AutoClose  bool          `yaml:"auto_close"`
	CloseDelay time.Duration `yaml:"close_delay"`

	// PrimaryKey is used by batch updates and pagination counts.
	PrimaryKey string `yaml:"primary_key"`

	resolved bool
}

// Default returns the default session options.
func Default() Options {
	return Options{
		Name:       "main",
		Path:       "mydb.db",
		Dir:        DefaultDir,
		AutoTime:   true,
		TimeFormat: "%Y-%m-%d %H:%M:%S",
		SQLLog:     true,
		OnlySQL:    false,
		AutoClose:  true,
		CloseDelay: 10 * time.Second,
		PrimaryKey: "id",
	}
}

// WithDatabaseFile returns a copy of o pointing at <Dir>/<name>.db.
func (o Options) WithDatabaseFile(name string) Options {
	if name == "" {
		return o
	}
	o.Path = name + ".db"
	o.resolved = false
	return o
}

// Resolved reports whether o went through Resolve.
func (o Options) Resolved() bool { return o.resolved }

// Resolve validates o, roots a relative Path under Dir and derives the auto
// timestamps from now. Seeded timestamps are kept.
func (o Options) Resolve(now time.Time) (Options, error) {
	if err := o.Validate(); err != nil {
		return Options{}, err
	}
	if !o.resolved && !filepath.IsAbs(o.Path) && o.Dir != "" {
		o.Path = filepath.Join(o.Dir, o.Path)
	}
	stamp := o.Timestamp(now)
	if isEmpty(o.CreateTime) {
		o.CreateTime = stamp
	}
	if isEmpty(o.UpdateTime) {
		o.UpdateTime = stamp
	}
	o.resolved = true
	return o, nil
}

// Timestamp formats t according to TimeFormat.
func (o Options) Timestamp(t time.Time) any {
	if o.TimeFormat == EpochFormat {
		return t.Unix()
	}
	return strftime.Format(o.TimeFormat, t)
}

// Validate checks the options for values a session cannot work with.
func (o Options) Validate() error {
	if strings.TrimSpace(o.Name) == "" {
		return errors.New("database name is required")
	}
	if strings.TrimSpace(o.Path) == "" {
		return errors.New("database path is required")
	}
	if o.AutoTime && o.TimeFormat == "" {
		return errors.New("time format is required when auto time is enabled")
	}
	if o.CloseDelay < 0 {
		return fmt.Errorf("close delay must not be negative, got %s", o.CloseDelay)
	}
	if strings.TrimSpace(o.PrimaryKey) == "" {
		return errors.New("primary key column is required")
	}
	return nil
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	}
	return false
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// File is the on-disk configuration for the CLI and embedding programs.
type File struct {
	Driver   string        `yaml:"driver"`
	Logging  LoggingConfig `yaml:"logging"`
	Database Options       `yaml:"database"`
}

// DefaultFile returns the configuration used when no file is given.
func DefaultFile() *File {
	return &File{
		Driver: "sqlite3",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Database: Default(),
	}
}

// Load reads the YAML file at path over the defaults and applies environment
// overrides. A .env file in the working directory is honoured. An empty path
// skips the file.
func Load(path string) (*File, error) {
	_ = godotenv.Load() //nolint:errcheck // .env is optional

	cfg := DefaultFile()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Database.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *File) error {
	if v := os.Getenv("LITEQUERY_DRIVER"); v != "" {
		cfg.Driver = v
	}
	if v := os.Getenv("LITEQUERY_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("LITEQUERY_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("LITEQUERY_DIR"); v != "" {
		cfg.Database.Dir = v
	}
	if v := os.Getenv("LITEQUERY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LITEQUERY_ONLY_SQL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing LITEQUERY_ONLY_SQL: %w", err)
		}
		cfg.Database.OnlySQL = b
	}
	return nil
}
