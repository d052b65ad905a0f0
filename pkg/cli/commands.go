package cli

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/TechXTT/litequery/pkg/bootstrap"
	"github.com/TechXTT/litequery/pkg/query"
)

// execOutput is printed for statements that return no rows.
type execOutput struct {
	SQL          string `json:"sql"`
	RowsAffected int64  `json:"rows_affected"`
	LastInsertID int64  `json:"last_insert_id"`
	DryRun       bool   `json:"dry_run,omitempty"`
}

// NewExecCmd builds the `exec` command.
func NewExecCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <sql>",
		Short: "Run one SQL statement",
		Long: `Run one SQL statement. Reads (SELECT, PRAGMA) print their rows as a
JSON array; everything else prints the affected row count.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, release, err := opts.session(cmd)
			if err != nil {
				return err
			}
			defer release()

			res, err := s.ExecSQL(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if res.Rows != nil {
				return writeJSON(cmd.OutOrStdout(), res.Rows)
			}
			return writeJSON(cmd.OutOrStdout(), execOutput{
				SQL:          res.SQL,
				RowsAffected: res.RowsAffected,
				LastInsertID: res.LastInsertID,
				DryRun:       res.DryRun,
			})
		},
	}
}

// NewTablesCmd builds the `tables` command.
func NewTablesCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, release, err := opts.session(cmd)
			if err != nil {
				return err
			}
			defer release()

			rows, err := s.GetTables(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), rows)
		},
	}
}

// NewColumnsCmd builds the `columns` command.
func NewColumnsCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "columns <table>",
		Short: "Describe the columns of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, release, err := opts.session(cmd)
			if err != nil {
				return err
			}
			defer release()

			cols, err := s.Columns(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), cols)
		},
	}
}

// NewBootstrapCmd builds the `bootstrap` command.
func NewBootstrapCmd(opts *RootOptions) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create missing tables from table scripts",
		Long: `Create every table whose NNNN_<table>.sql script is found in --dir and
that does not exist yet, followed by its NNNN_<table>.index.sql script.
Without --dir the built-in wallet and bill tables are used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, release, err := opts.runner(cmd, dir)
			if err != nil {
				return err
			}
			defer release()

			statuses, err := runner.Run(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), statuses)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "table scripts directory")
	return cmd
}

// NewStatusCmd builds the `status` command.
func NewStatusCmd(opts *RootOptions) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which script tables exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, release, err := opts.runner(cmd, dir)
			if err != nil {
				return err
			}
			defer release()

			statuses, err := runner.Status(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), statuses)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "table scripts directory")
	return cmd
}

func (o *RootOptions) runner(cmd *cobra.Command, dir string) (*bootstrap.Runner, func(), error) {
	var (
		scripts []bootstrap.Script
		err     error
	)
	if dir == "" {
		scripts, err = bootstrap.Default()
	} else {
		scripts, err = bootstrap.LoadDir(dir)
	}
	if err != nil {
		return nil, nil, err
	}

	s, release, err := o.session(cmd)
	if err != nil {
		return nil, nil, err
	}
	return bootstrap.NewRunner(s, scripts, s.Logger()), release, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var _ bootstrap.Executor = (*query.Session)(nil)
