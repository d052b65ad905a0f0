package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/TechXTT/litequery/pkg/config"
	"github.com/TechXTT/litequery/pkg/engine"
	"github.com/TechXTT/litequery/pkg/logging"
	"github.com/TechXTT/litequery/pkg/query"
)

// Version is set at build time via ldflags.
var Version = "dev"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Config string
	Driver string
	Name   string
	Path   string
	DryRun bool
	Echo   bool
}

// NewRootCmd builds the top-level `litequery` command.
func NewRootCmd() *cobra.Command {
	opts := &RootOptions{}

	root := &cobra.Command{
		Use:   "litequery",
		Short: "litequery - query and bootstrap embedded SQLite databases",
		Long: `litequery runs SQL against an embedded SQLite database and creates
missing tables from versioned table scripts.

Settings come from the YAML file given by --config, a .env file in the
working directory and LITEQUERY_* environment variables, in that order.
Flags override all of them.

Examples:
  litequery --path book.db tables
  litequery --path book.db exec "SELECT * FROM wallet"
  litequery --config litequery.yaml bootstrap --dir schema
  litequery --dry-run exec "DELETE FROM bill"`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&opts.Driver, "driver", "", "database/sql driver (sqlite3|sqlite)")
	root.PersistentFlags().StringVar(&opts.Name, "name", "", "logical database name")
	root.PersistentFlags().StringVar(&opts.Path, "path", "", "database file; relative paths are rooted under the configured dir")
	root.PersistentFlags().BoolVar(&opts.DryRun, "dry-run", false, "print statements instead of running them")
	root.PersistentFlags().BoolVar(&opts.Echo, "echo", false, "echo every statement to stderr")

	root.AddCommand(NewExecCmd(opts))
	root.AddCommand(NewTablesCmd(opts))
	root.AddCommand(NewColumnsCmd(opts))
	root.AddCommand(NewBootstrapCmd(opts))
	root.AddCommand(NewStatusCmd(opts))
	root.AddCommand(NewVersionCmd())
	return root
}

// NewVersionCmd builds the `version` command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(Version)
		},
	}
}

// load resolves the configuration: file, environment, then flags.
func (o *RootOptions) load(cmd *cobra.Command) (*config.File, error) {
	cfg, err := config.Load(o.Config)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("driver") {
		cfg.Driver = o.Driver
	}
	if flags.Changed("name") {
		cfg.Database.Name = o.Name
	}
	if flags.Changed("path") {
		cfg.Database.Path = o.Path
	}
	if o.DryRun {
		cfg.Database.OnlySQL = true
	}
	// One-shot commands close the database on the way out.
	cfg.Database.AutoClose = false
	return cfg, cfg.Database.Validate()
}

// session opens a query session for one command. The returned func releases
// the database.
func (o *RootOptions) session(cmd *cobra.Command) (*query.Session, func(), error) {
	cfg, err := o.load(cmd)
	if err != nil {
		return nil, nil, err
	}

	eng := engine.NewSQL(engine.WithDriver(cfg.Driver))
	log := logging.NewWithWriter(cfg.Logging, Version, cmd.ErrOrStderr()).With("driver", eng.Driver())

	options := []query.Option{query.WithLogger(log)}
	if o.Echo {
		options = append(options, query.WithHooks(echoHook(cmd.ErrOrStderr())))
	}
	s, err := query.New(eng, cfg.Database, options...)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if err := eng.CloseAll(); err != nil {
			log.Error("failed to close database", "error", err)
		}
	}
	return s, release, nil
}

func echoHook(w io.Writer) query.Hooks {
	return query.HookFuncs{
		Before: func(_ context.Context, stmt query.Statement) error {
			_, err := fmt.Fprintln(w, stmt.SQL)
			return err
		},
	}
}
