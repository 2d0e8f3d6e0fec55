package sqlutil

import (
	"errors"
	"testing"
)

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"spans", "`spans`"},
		{"span_records_v2", "`span_records_v2`"},
		{"odd`name", "`odd``name`"},
	}
	for _, tt := range tests {
		if got := QuoteIdentifier(tt.in); got != tt.want {
			t.Errorf("QuoteIdentifier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsValidIdentifier(t *testing.T) {
	valid := []string{"spans", "span_records", "t1", "UPPER_case_9"}
	for _, name := range valid {
		if !IsValidIdentifier(name) {
			t.Errorf("IsValidIdentifier(%q) = false, want true", name)
		}
	}

	invalid := []string{"", "spans; DROP TABLE x", "a b", "a-b", "a`b", "db.spans"}
	for _, name := range invalid {
		if IsValidIdentifier(name) {
			t.Errorf("IsValidIdentifier(%q) = true, want false", name)
		}
	}
}

func TestQuoteIdentifierSafe(t *testing.T) {
	got, err := QuoteIdentifierSafe("spans")
	if err != nil {
		t.Fatalf("QuoteIdentifierSafe(spans) failed: %v", err)
	}
	if got != "`spans`" {
		t.Errorf("got %q, want %q", got, "`spans`")
	}

	_, err = QuoteIdentifierSafe("spans; DROP TABLE x")
	var idErr *InvalidIdentifierError
	if !errors.As(err, &idErr) {
		t.Fatalf("error = %v, want InvalidIdentifierError", err)
	}
	if idErr.Name != "spans; DROP TABLE x" {
		t.Errorf("Name = %q", idErr.Name)
	}
}
