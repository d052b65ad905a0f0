// File: internal/core/literal.go
package core

import (
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// timeLayout is used for time.Time values rendered as literals.
const timeLayout = "2006-01-02 15:04:05"

// Literal renders v as SQL literal text. Strings are wrapped in single quotes
// as-is: embedded quotes are NOT escaped, so values must not come from
// untrusted input.
func Literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + x + "'"
	case []byte:
		return "'" + string(x) + "'"
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case time.Time:
		return "'" + x.Format(timeLayout) + "'"
	case fmt.Stringer:
		return "'" + x.String() + "'"
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return "NULL"
		}
		return Literal(rv.Elem().Interface())
	case reflect.String:
		return "'" + rv.String() + "'"
	}
	return fmt.Sprint(v)
}

// sliceValues reports whether v is a slice or array (other than []byte) and
// returns its elements.
func sliceValues(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if _, ok := v.([]byte); ok {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
