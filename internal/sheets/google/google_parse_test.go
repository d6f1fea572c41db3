package google

import (
	"errors"
	"testing"

	"salesdash/internal/core"
)

// Matrix shaped like an UNFORMATTED_VALUE / SERIAL_NUMBER response.
func TestParseValues(t *testing.T) {
	values := [][]interface{}{
		{"Date", "Item Type", "Item", "Item Sort Order", "Sales"},
		{44941.0, "Fruit", "Apple", 1.0, 10.0},
		{44967.0, "Fruit", "Apple", 1.0, 5.0},
		{},
		{"2023-01-20", "Vegetable", "Leek", 2.0, 2.25},
	}
	recs, err := parseValues(values)
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	if got := core.MonthLabel(recs[1].Date); got != "Feb 23" {
		t.Fatalf("month label: got %q", got)
	}
	if recs[2].SortOrder != 2 || recs[2].Sales.String() != "2.25" {
		t.Fatalf("unexpected leek record: %+v", recs[2])
	}

	table, err := core.Reshape(recs)
	if err != nil {
		t.Fatalf("reshape: %v", err)
	}
	apple, ok := table.Rows[0].Cell("Jan 23")
	if !ok || apple.String() != "10" {
		t.Fatalf("apple Jan 23: %v %v", apple, ok)
	}
}

func TestParseValuesErrors(t *testing.T) {
	if _, err := parseValues(nil); !errors.Is(err, core.ErrMissingColumns) {
		t.Fatalf("empty sheet: got %v", err)
	}

	_, err := parseValues([][]interface{}{
		{"Date", "Item Type", "Item", "Item Sort Order", "Sales"},
		{"not a date", "Fruit", "Apple", 1.0, 10.0},
	})
	var dfe *core.DataFormatError
	if !errors.As(err, &dfe) || dfe.Row != 2 || !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("bad date: got %v", err)
	}
}

func TestToStrings(t *testing.T) {
	got := toStrings([]interface{}{nil, "a", 1.5, 44941.0, true})
	want := []string{"", "a", "1.5", "44941", "true"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("toStrings[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
