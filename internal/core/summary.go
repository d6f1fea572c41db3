package core

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"
)

// RowKey identifies one summary row.
type RowKey struct {
	ItemType  string
	Item      string
	SortOrder int
}

// SummaryRow holds the monthly sales sums for one key. Months with no
// matching records have no entry in Cells.
type SummaryRow struct {
	RowKey
	Cells map[string]decimal.Decimal
}

// SummaryTable is the item × month pivot of the loaded sales records.
// It is built once at startup and only read afterwards.
type SummaryTable struct {
	Months []Month
	Rows   []SummaryRow
}

// Cell returns the sum for the month label and whether any record contributed to it.
func (r SummaryRow) Cell(label string) (decimal.Decimal, bool) {
	v, ok := r.Cells[label]
	return v, ok
}

// Total sums every month cell of the row.
func (r SummaryRow) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range r.Cells {
		total = total.Add(v)
	}
	return total
}

// ItemTypes returns the distinct item types in ascending order.
func (t SummaryTable) ItemTypes() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range t.Rows {
		if _, ok := seen[r.ItemType]; ok {
			continue
		}
		seen[r.ItemType] = struct{}{}
		out = append(out, r.ItemType)
	}
	sort.Strings(out)
	return out
}

// DisplayMonths returns at most n leading month columns; n <= 0 means all.
func (t SummaryTable) DisplayMonths(n int) []Month {
	if n <= 0 || n >= len(t.Months) {
		return append([]Month(nil), t.Months...)
	}
	return append([]Month(nil), t.Months[:n]...)
}

// Reshape pivots records into a SummaryTable: one row per distinct
// (item type, item, sort order), one column per month, each cell the sum
// of sales for that key and month. Rows are ordered by sort order, then
// item type and item. Month columns are chronological.
func Reshape(records []SalesRecord) (SummaryTable, error) {
	rows := make(map[RowKey]*SummaryRow)
	months := make(map[string]Month)

	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			var dfe *DataFormatError
			if errors.As(err, &dfe) {
				dfe.Row = i + 1
			}
			return SummaryTable{}, err
		}

		m := MonthOf(rec.Date)
		if _, ok := months[m.Label]; !ok {
			months[m.Label] = m
		}

		key := RowKey{ItemType: rec.ItemType, Item: rec.Item, SortOrder: rec.SortOrder}
		row, ok := rows[key]
		if !ok {
			row = &SummaryRow{RowKey: key, Cells: make(map[string]decimal.Decimal)}
			rows[key] = row
		}
		row.Cells[m.Label] = row.Cells[m.Label].Add(rec.Sales)
	}

	table := SummaryTable{
		Months: make([]Month, 0, len(months)),
		Rows:   make([]SummaryRow, 0, len(rows)),
	}
	for _, m := range months {
		table.Months = append(table.Months, m)
	}
	sort.Slice(table.Months, func(i, j int) bool {
		return table.Months[i].Start.Before(table.Months[j].Start)
	})

	for _, r := range rows {
		table.Rows = append(table.Rows, *r)
	}
	sort.Slice(table.Rows, func(i, j int) bool {
		a, b := table.Rows[i].RowKey, table.Rows[j].RowKey
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		if a.ItemType != b.ItemType {
			return a.ItemType < b.ItemType
		}
		return a.Item < b.Item
	})

	return table, nil
}
