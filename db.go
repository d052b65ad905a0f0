// Package litequery is a fluent SQL builder and session for embedded SQLite
// databases.
//
//	eng := engine.NewSQL(engine.WithDriver(engine.DriverPure))
//	db, err := litequery.Db(eng, config.Default().WithDatabaseFile("book"))
//	...
//	rows, err := db.Table("wallet").Where("value", ">", 0).Select(ctx)
//	var wallets []Wallet
//	err = litequery.Scan(rows, &wallets)
package litequery

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/TechXTT/litequery/pkg/config"
	"github.com/TechXTT/litequery/pkg/engine"
	"github.com/TechXTT/litequery/pkg/query"
)

// Db creates a query session over eng for the database described by opts.
func Db(eng engine.Engine, opts config.Options, options ...query.Option) (*query.Session, error) {
	return query.New(eng, opts, options...)
}

// ErrInvalidDestination is returned by Scan for destinations it cannot fill.
var ErrInvalidDestination = errors.New("invalid scan destination")

const timeLayout = "2006-01-02 15:04:05"

// Scan copies rows into dest, a pointer to a slice of structs (or of struct
// pointers). A column is matched to the field whose `db` tag names it, or
// else to the field whose name in snake_case equals it. Columns without a
// field are skipped; a `db:"-"` field is never filled.
func Scan(rows []engine.Row, dest any) error {
	destVal := reflect.ValueOf(dest)
	if destVal.Kind() != reflect.Pointer || destVal.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("%w: dest must be a pointer to a slice", ErrInvalidDestination)
	}

	sliceVal := destVal.Elem()
	elemType := sliceVal.Type().Elem()
	isPtr := elemType.Kind() == reflect.Pointer
	structType := elemType
	if isPtr {
		structType = elemType.Elem()
	}
	if structType.Kind() != reflect.Struct {
		return fmt.Errorf("%w: slice element must be a struct, got %s", ErrInvalidDestination, elemType)
	}

	fields := columnFields(structType)
	for i, row := range rows {
		elemPtr := reflect.New(structType)
		elemVal := elemPtr.Elem()
		for col, v := range row {
			idx, ok := fields[col]
			if !ok {
				continue
			}
			if err := assign(elemVal.Field(idx), v); err != nil {
				return fmt.Errorf("row %d column %s: %w", i, col, err)
			}
		}
		if isPtr {
			sliceVal.Set(reflect.Append(sliceVal, elemPtr))
		} else {
			sliceVal.Set(reflect.Append(sliceVal, elemVal))
		}
	}
	return nil
}

// columnFields maps column names to exported field indexes of t.
func columnFields(t reflect.Type) map[string]int {
	fields := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Tag.Get("db")
		if name == "-" {
			continue
		}
		if name == "" {
			name = snakeCase(f.Name)
		}
		fields[name] = i
	}
	return fields
}

// snakeCase converts a Go identifier to snake_case: WalletID -> wallet_id.
func snakeCase(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func assign(field reflect.Value, v any) error {
	if v == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}
	if field.Kind() == reflect.Pointer {
		ptr := reflect.New(field.Type().Elem())
		if err := assign(ptr.Elem(), v); err != nil {
			return err
		}
		field.Set(ptr)
		return nil
	}

	src := reflect.ValueOf(v)
	switch {
	case src.Type().AssignableTo(field.Type()):
		field.Set(src)
		return nil
	case field.Type() == reflect.TypeOf(time.Time{}) && src.Kind() == reflect.String:
		t, err := time.ParseInLocation(timeLayout, src.String(), time.UTC)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(t))
		return nil
	case field.Kind() == reflect.Bool && src.CanInt():
		field.SetBool(src.Int() != 0)
		return nil
	case field.Kind() == reflect.String:
		if src.Kind() != reflect.String {
			field.SetString(fmt.Sprint(v))
			return nil
		}
		field.SetString(src.String())
		return nil
	case isNumber(field.Kind()) && isNumber(src.Kind()):
		field.Set(src.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("%w: cannot assign %T to %s", ErrInvalidDestination, v, field.Type())
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
