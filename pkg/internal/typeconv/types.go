package typeconv

import "strings"

// SQLite storage affinities.
const (
	Integer = "INTEGER"
	Text    = "TEXT"
	Blob    = "BLOB"
	Real    = "REAL"
	Numeric = "NUMERIC"
)

// Affinity maps a declared column type to its SQLite affinity, following the
// rules of https://www.sqlite.org/datatype3.html#determination_of_column_affinity.
func Affinity(declared string) string {
	t := strings.ToUpper(strings.TrimSpace(declared))
	switch {
	case strings.Contains(t, "INT"):
		return Integer
	case strings.Contains(t, "CHAR"), strings.Contains(t, "CLOB"), strings.Contains(t, "TEXT"):
		return Text
	case t == "" || strings.Contains(t, "BLOB"):
		return Blob
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"):
		return Real
	default:
		return Numeric
	}
}

// GoType names the Go type values of the given affinity scan into.
func GoType(affinity string) string {
	switch affinity {
	case Integer:
		return "int64"
	case Text:
		return "string"
	case Real:
		return "float64"
	case Blob:
		return "[]byte"
	default:
		return "any"
	}
}
