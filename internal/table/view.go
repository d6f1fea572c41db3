// Package table shapes visible summary rows for display: the column set,
// multi-column sorting and pagination.
package table

import (
	"sort"
	"strconv"
	"strings"

	"salesdash/internal/core"
)

// DefaultPageSize is the number of rows per page.
const DefaultPageSize = 10

// Column is one displayed column. Month columns carry the month label as ID.
type Column struct {
	ID    string
	Month bool
}

// Columns returns Item, Item Sort Order and up to maxMonths month columns.
func Columns(t core.SummaryTable, maxMonths int) []Column {
	cols := []Column{{ID: core.ColItem}, {ID: core.ColSortOrder}}
	for _, m := range t.DisplayMonths(maxMonths) {
		cols = append(cols, Column{ID: m.Label, Month: true})
	}
	return cols
}

// SortKey orders rows by one column.
type SortKey struct {
	Column string
	Desc   bool
}

// ParseSort reads "Item:asc,Jan 23:desc". Unknown columns, repeats and
// malformed directions are dropped.
func ParseSort(raw string, cols []Column) []SortKey {
	known := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		known[c.ID] = struct{}{}
	}
	var keys []SortKey
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		col, dir := part, "asc"
		if i := strings.LastIndex(part, ":"); i >= 0 {
			col, dir = strings.TrimSpace(part[:i]), strings.ToLower(strings.TrimSpace(part[i+1:]))
		}
		if dir != "asc" && dir != "desc" {
			continue
		}
		if _, ok := known[col]; !ok {
			continue
		}
		if _, dup := seen[col]; dup {
			continue
		}
		seen[col] = struct{}{}
		keys = append(keys, SortKey{Column: col, Desc: dir == "desc"})
	}
	return keys
}

// FormatSort is the inverse of ParseSort.
func FormatSort(keys []SortKey) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		dir := "asc"
		if k.Desc {
			dir = "desc"
		}
		parts = append(parts, k.Column+":"+dir)
	}
	return strings.Join(parts, ",")
}

// Toggle cycles col through ascending, descending and unsorted while
// keeping the other keys, like a multi-sort header click.
func Toggle(keys []SortKey, col string) []SortKey {
	out := make([]SortKey, 0, len(keys)+1)
	found := false
	for _, k := range keys {
		if k.Column != col {
			out = append(out, k)
			continue
		}
		found = true
		if !k.Desc {
			out = append(out, SortKey{Column: col, Desc: true})
		}
	}
	if !found {
		out = append(out, SortKey{Column: col})
	}
	return out
}

// Direction returns "asc", "desc" or "" for col.
func Direction(keys []SortKey, col string) string {
	for _, k := range keys {
		if k.Column == col {
			if k.Desc {
				return "desc"
			}
			return "asc"
		}
	}
	return ""
}

// Sort returns a sorted copy of rows. Without keys the input order is kept.
// Empty month cells sort after filled ones in either direction.
func Sort(rows []core.SummaryRow, keys []SortKey) []core.SummaryRow {
	out := append([]core.SummaryRow(nil), rows...)
	if len(keys) == 0 {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		for _, k := range keys {
			c := compare(out[i], out[j], k)
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
	return out
}

func compare(a, b core.SummaryRow, k SortKey) int {
	var c int
	switch k.Column {
	case core.ColItem:
		c = strings.Compare(a.Item, b.Item)
	case core.ColSortOrder:
		c = cmpInt(a.SortOrder, b.SortOrder)
	default:
		av, aok := a.Cell(k.Column)
		bv, bok := b.Cell(k.Column)
		switch {
		case !aok && !bok:
			return 0
		case !aok:
			return 1
		case !bok:
			return -1
		}
		c = av.Cmp(bv)
	}
	if k.Desc {
		c = -c
	}
	return c
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Page is one page of rows. Number is 0-based.
type Page struct {
	Rows   []core.SummaryRow
	Number int
	Count  int
	Size   int
	Total  int
}

// HasPrev reports whether an earlier page exists.
func (p Page) HasPrev() bool { return p.Number > 0 }

// HasNext reports whether a later page exists.
func (p Page) HasNext() bool { return p.Number+1 < p.Count }

// Label renders the 1-based position, e.g. "1 / 3".
func (p Page) Label() string {
	return strconv.Itoa(p.Number+1) + " / " + strconv.Itoa(max(p.Count, 1))
}

// Paginate slices rows into pages of size rows and returns page number,
// clamped into range.
func Paginate(rows []core.SummaryRow, number, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	count := (len(rows) + size - 1) / size
	if number >= count {
		number = count - 1
	}
	if number < 0 {
		number = 0
	}
	start := number * size
	end := min(start+size, len(rows))
	var pageRows []core.SummaryRow
	if start < end {
		pageRows = rows[start:end]
	}
	return Page{Rows: pageRows, Number: number, Count: count, Size: size, Total: len(rows)}
}
