package query

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/TechXTT/litequery/internal/core"
	"github.com/TechXTT/litequery/pkg/engine"
)

// Columns filled in automatically when Options.AutoTime is set.
const (
	CreateTimeColumn = "create_time"
	UpdateTimeColumn = "update_time"
)

// Select runs SELECT <fields> FROM <table> with the chained clauses.
func (s *Session) Select(ctx context.Context) ([]engine.Row, error) {
	res, err := s.SelectResult(ctx)
	return res.Rows, err
}

// SelectResult is Select returning the full Result, so the statement text is
// available in dry-run mode too.
func (s *Session) SelectResult(ctx context.Context) (Result, error) {
	if err := s.begin(); err != nil {
		return Result{}, err
	}
	sql := strings.TrimSpace("SELECT " + s.comp.Fields() + " FROM " + s.table + " " + s.comp.Render())
	res, err := s.exec(ctx, sql)
	s.finish()
	return res, err
}

// Find returns the first row of Select, or nil when there is none. LIMIT 1 is
// added unless the chain set a limit.
func (s *Session) Find(ctx context.Context) (engine.Row, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	if !s.comp.HasLimit() {
		_ = s.comp.Limit(1) //nolint:errcheck // 1 is a valid count
	}
	rows, err := s.Select(ctx)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// Insert inserts one row. With AutoTime the create and update timestamps are
// set, overriding values supplied by the caller.
func (s *Session) Insert(ctx context.Context, values map[string]any) (Result, error) {
	if err := s.begin(); err != nil {
		return Result{}, err
	}
	cols, merged := s.stamp(values, true)
	if len(cols) == 0 {
		return Result{}, s.abort(fmt.Errorf("%w: insert needs at least one value", ErrInvalidArgument))
	}

	lits := make([]string, len(cols))
	for i, col := range cols {
		lits[i] = core.Literal(merged[col])
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);",
		s.table, strings.Join(cols, ", "), strings.Join(lits, ", "))

	res, err := s.exec(ctx, sql)
	s.finish()
	return res, err
}

// InsertAll inserts rows in one statement. The column set is taken from the
// first row; columns a later row lacks are inserted as NULL. AutoTime applies
// to every row.
func (s *Session) InsertAll(ctx context.Context, rows []map[string]any) (Result, error) {
	if err := s.begin(); err != nil {
		return Result{}, err
	}
	if len(rows) == 0 {
		return Result{}, s.abort(ErrEmptyBatch)
	}
	cols, _ := s.stamp(rows[0], true)
	if len(cols) == 0 {
		return Result{}, s.abort(fmt.Errorf("%w: insert needs at least one value", ErrInvalidArgument))
	}

	tuples := make([]string, len(rows))
	for i, row := range rows {
		_, merged := s.stamp(row, true)
		lits := make([]string, len(cols))
		for j, col := range cols {
			lits[j] = core.Literal(merged[col])
		}
		tuples[i] = "(" + strings.Join(lits, ", ") + ")"
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s;",
		s.table, strings.Join(cols, ", "), strings.Join(tuples, ", "))

	res, err := s.exec(ctx, sql)
	s.finish()
	return res, err
}

// Update sets values on the rows matching the chained conditions. With
// AutoTime the update timestamp is set.
func (s *Session) Update(ctx context.Context, values map[string]any) (Result, error) {
	if err := s.begin(); err != nil {
		return Result{}, err
	}
	cols, merged := s.stamp(values, false)
	if len(cols) == 0 {
		return Result{}, s.abort(fmt.Errorf("%w: update needs at least one value", ErrInvalidArgument))
	}

	sets := make([]string, len(cols))
	for i, col := range cols {
		sets[i] = col + " = " + core.Literal(merged[col])
	}
	sql := "UPDATE " + s.table + " SET " + strings.Join(sets, ", ")
	if where := s.comp.Where(); where != "" {
		sql += " " + where
	}

	res, err := s.exec(ctx, sql+";")
	s.finish()
	return res, err
}

// UpdateAll runs one Update per row. Every update carries the chained
// conditions; a row holding the primary key column is additionally restricted
// to that key, and the key is not part of its SET list. The connection is not
// auto-closed until all rows are written. On failure the results of the rows
// written so far are returned with the error.
func (s *Session) UpdateAll(ctx context.Context, rows []map[string]any) ([]Result, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, s.abort(ErrEmptyBatch)
	}

	base := s.comp.Clone()
	pk := s.opts.PrimaryKey
	results := make([]Result, 0, len(rows))
	err := s.hold(func() error {
		for i, row := range rows {
			s.comp = base.Clone()
			values := row
			if id, ok := row[pk]; ok {
				values = without(row, pk)
				s.comp.Enclose()
				if err := s.comp.AddCondition(pk, "=", id, core.And); err != nil {
					s.reset()
					return fmt.Errorf("update row %d: %w", i, err)
				}
			}
			res, err := s.Update(ctx, values)
			if err != nil {
				return fmt.Errorf("update row %d: %w", i, err)
			}
			results = append(results, res)
		}
		return nil
	})
	s.finish()
	return results, err
}

// Delete removes the rows matching the chained conditions.
func (s *Session) Delete(ctx context.Context) (Result, error) {
	if err := s.begin(); err != nil {
		return Result{}, err
	}
	sql := "DELETE FROM " + s.table
	if where := s.comp.Where(); where != "" {
		sql += " " + where
	}

	res, err := s.exec(ctx, sql+";")
	s.finish()
	return res, err
}

// stamp merges the auto timestamps into values and returns the column order:
// caller columns sorted by name, then timestamp columns the caller did not
// supply.
func (s *Session) stamp(values map[string]any, create bool) ([]string, map[string]any) {
	merged := make(map[string]any, len(values)+2)
	cols := make([]string, 0, len(values)+2)
	for k, v := range values {
		merged[k] = v
		cols = append(cols, k)
	}
	sort.Strings(cols)

	if !s.opts.AutoTime {
		return cols, merged
	}
	set := func(col string, v any) {
		if _, ok := merged[col]; !ok {
			cols = append(cols, col)
		}
		merged[col] = v
	}
	if create {
		set(CreateTimeColumn, s.opts.CreateTime)
	}
	set(UpdateTimeColumn, s.opts.UpdateTime)
	return cols, merged
}

func without(row map[string]any, key string) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		if k != key {
			out[k] = v
		}
	}
	return out
}
