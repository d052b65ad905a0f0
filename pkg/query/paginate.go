package query

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/TechXTT/litequery/pkg/engine"
)

// Page is one page of a paginated select.
type Page struct {
	// Index is the 1-based page number.
	Index int `json:"index"`
	// Size is the page size.
	Size int `json:"size"`
	// Total is the number of rows matching the chained conditions.
	Total int `json:"total"`
	// Count is the number of pages.
	Count int          `json:"count"`
	Data  []engine.Row `json:"data"`
	// SQL is the page select, also set in dry-run mode.
	SQL string `json:"-"`
}

// Paginate selects page number page (1-based) of size rows and counts the
// rows matching the same conditions. With GROUP BY set, groups are counted.
// Auto-close is held until both statements ran.
func (s *Session) Paginate(ctx context.Context, page, size int) (Page, error) {
	if err := s.begin(); err != nil {
		return Page{}, err
	}
	if page <= 0 {
		return Page{}, s.abort(fmt.Errorf("%w: page number must be a positive integer", ErrInvalidArgument))
	}
	if size <= 0 {
		return Page{}, s.abort(fmt.Errorf("%w: page size must be a positive integer", ErrInvalidArgument))
	}

	countSQL := s.countSQL()

	var (
		data    []engine.Row
		pageSQL string
		total   int
	)
	err := s.hold(func() error {
		s.Limit(size, (page-1)*size)
		res, err := s.SelectResult(ctx)
		if err != nil {
			return err
		}
		data, pageSQL = res.Rows, res.SQL

		counted, err := s.exec(ctx, countSQL)
		if err != nil {
			return err
		}
		total, err = countOf(counted.Rows)
		return err
	})
	s.autoClose()
	if err != nil {
		return Page{}, err
	}

	return Page{
		Index: page,
		Size:  size,
		Total: total,
		Count: (total + size - 1) / size,
		Data:  data,
		SQL:   pageSQL,
	}, nil
}

// countSQL counts the rows matching the chained conditions, or the groups
// when GROUP BY is set.
func (s *Session) countSQL() string {
	where := s.comp.Where()
	grouping := s.comp.Grouping()
	if grouping == "" {
		return strings.TrimSpace(fmt.Sprintf("SELECT COUNT(%s) AS count FROM %s %s",
			s.opts.PrimaryKey, s.table, where)) + ";"
	}
	inner := "SELECT 1 FROM " + s.table
	if where != "" {
		inner += " " + where
	}
	return "SELECT COUNT(*) AS count FROM (" + inner + " " + grouping + ");"
}

// countOf reads the "count" column of the first row. No rows (dry-run)
// counts as zero.
func countOf(rows []engine.Row) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := toInt(rows[0]["count"])
	if err != nil {
		return 0, fmt.Errorf("reading row count: %w", err)
	}
	return n, nil
}

func toInt(v any) (int, error) {
	switch x := v.(type) {
	case int64:
		return int(x), nil
	case int:
		return x, nil
	case float64:
		return int(x), nil
	case string:
		return strconv.Atoi(x)
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("unexpected integer type %T", v)
	}
}
