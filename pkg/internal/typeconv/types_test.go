package typeconv

import "testing"

func TestAffinity(t *testing.T) {
	tests := map[string]string{
		"INTEGER":          Integer,
		"bigint":           Integer,
		"VARCHAR(255)":     Text,
		"text":             Text,
		"CLOB":             Text,
		"":                 Blob,
		"blob":             Blob,
		"real":             Real,
		"DOUBLE PRECISION": Real,
		"FLOAT":            Real,
		"DATE":             Numeric,
		"DECIMAL(10,5)":    Numeric,
		"BOOLEAN":          Numeric,
	}
	for declared, want := range tests {
		if got := Affinity(declared); got != want {
			t.Errorf("Affinity(%q) = %q, want %q", declared, got, want)
		}
	}
}

func TestGoType(t *testing.T) {
	if got := GoType(Affinity("int")); got != "int64" {
		t.Errorf("GoType(INTEGER) = %q", got)
	}
	if got := GoType(Numeric); got != "any" {
		t.Errorf("GoType(NUMERIC) = %q", got)
	}
}
