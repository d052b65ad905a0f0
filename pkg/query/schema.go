package query

import (
	"context"
	"fmt"

	"github.com/TechXTT/litequery/internal/core"
	"github.com/TechXTT/litequery/pkg/engine"
	"github.com/TechXTT/litequery/pkg/internal/typeconv"
)

// Column describes one column reported by PRAGMA table_info.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Affinity string `json:"affinity"`
	// GoType is the Go type values of the column arrive as.
	GoType     string `json:"go_type"`
	NotNull    bool   `json:"not_null"`
	PrimaryKey bool   `json:"primary_key"`
	Default    any    `json:"default"`
}

// GetTables lists the tables of the schema catalog.
func (s *Session) GetTables(ctx context.Context) ([]engine.Row, error) {
	res, err := s.exec(ctx, "select * FROM sqlite_master where type='table';")
	return res.Rows, err
}

// GetTable returns the catalog row of table name, or nil if it does not exist.
func (s *Session) GetTable(ctx context.Context, name string) (engine.Row, error) {
	res, err := s.exec(ctx, "select * FROM sqlite_master where type='table' AND name="+core.Literal(name)+";")
	if err != nil {
		return nil, err
	}
	for _, row := range res.Rows {
		if row["name"] == name {
			return row, nil
		}
	}
	return nil, nil
}

// HasTable reports whether table name exists.
func (s *Session) HasTable(ctx context.Context, name string) (bool, error) {
	row, err := s.GetTable(ctx, name)
	if err != nil {
		return false, err
	}
	return row != nil, nil
}

// Columns describes the columns of table.
func (s *Session) Columns(ctx context.Context, table string) ([]Column, error) {
	res, err := s.exec(ctx, "PRAGMA table_info("+table+");")
	if err != nil {
		return nil, err
	}
	cols := make([]Column, 0, len(res.Rows))
	for _, row := range res.Rows {
		name, _ := row["name"].(string)
		typ, _ := row["type"].(string)
		notNull, err := toInt(row["notnull"])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		pk, err := toInt(row["pk"])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		affinity := typeconv.Affinity(typ)
		cols = append(cols, Column{
			Name:       name,
			Type:       typ,
			Affinity:   affinity,
			GoType:     typeconv.GoType(affinity),
			NotNull:    notNull != 0,
			PrimaryKey: pk != 0,
			Default:    row["dflt_value"],
		})
	}
	return cols, nil
}
