package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/TechXTT/litequery/internal/plugin"
	"github.com/TechXTT/litequery/pkg/engine"
)

// Result is the outcome of one statement.
type Result struct {
	// SQL is the statement text as sent (or, in dry-run mode, not sent).
	SQL string
	// Rows holds the rows of a read statement.
	Rows []engine.Row
	// RowsAffected and LastInsertID are reported for writes when the engine
	// knows them.
	RowsAffected int64
	LastInsertID int64
	// DryRun is set when the statement was only rendered.
	DryRun bool
}

// isRead picks the engine's select path. The check is a plain substring scan,
// so a write whose text contains one of the markers is sent down the select
// path too.
func isRead(sql string) bool {
	return strings.Contains(sql, "select") ||
		strings.Contains(sql, "SELECT") ||
		strings.Contains(sql, "PRAGMA")
}

// ExecSQL runs raw SQL. Any chain state built so far is discarded.
func (s *Session) ExecSQL(ctx context.Context, sql string) (Result, error) {
	s.reset()
	return s.exec(ctx, sql)
}

func (s *Session) exec(ctx context.Context, sql string) (Result, error) {
	res := Result{SQL: sql}
	s.lastSQL = sql
	if s.opts.OnlySQL {
		s.log.Info("sql", "statement", sql, "dry_run", true)
		res.DryRun = true
		return res, nil
	}

	if err := s.Open(ctx); err != nil {
		return res, err
	}
	if s.opts.SQLLog {
		s.log.Info("sql", "statement", sql)
	}

	stmt := plugin.Statement{Session: s.id, Table: s.table, SQL: sql, Read: isRead(sql)}
	if err := s.hooks.BeforeExec(ctx, stmt); err != nil {
		return res, fmt.Errorf("statement rejected by hook: %w", err)
	}

	var err error
	if stmt.Read {
		res.Rows, err = s.engine.Select(ctx, s.opts.Name, sql)
	} else {
		var out engine.ExecResult
		out, err = s.engine.Execute(ctx, s.opts.Name, sql)
		res.RowsAffected = out.RowsAffected
		res.LastInsertID = out.LastInsertID
	}
	s.hooks.AfterExec(ctx, stmt, err)
	if err != nil {
		s.log.Error("statement failed", "statement", sql, "error", err)
		return res, err
	}
	return res, nil
}
