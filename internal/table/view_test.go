package table

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdash/internal/core"
)

func sampleTable(t *testing.T) core.SummaryTable {
	t.Helper()
	jan := time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2023, 2, 5, 0, 0, 0, 0, time.UTC)
	table, err := core.Reshape([]core.SalesRecord{
		{Date: jan, ItemType: "Fruit", Item: "Pear", SortOrder: 1, Sales: decimal.NewFromInt(5)},
		{Date: jan, ItemType: "Fruit", Item: "Apple", SortOrder: 2, Sales: decimal.NewFromInt(9)},
		{Date: feb, ItemType: "Fruit", Item: "Apple", SortOrder: 2, Sales: decimal.NewFromInt(1)},
		{Date: feb, ItemType: "Vegetable", Item: "Kale", SortOrder: 3, Sales: decimal.NewFromInt(5)},
	})
	require.NoError(t, err)
	return table
}

func names(rows []core.SummaryRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Item)
	}
	return out
}

func TestColumns(t *testing.T) {
	tbl := sampleTable(t)
	cols := Columns(tbl, 6)
	require.Len(t, cols, 4)
	assert.Equal(t, Column{ID: core.ColItem}, cols[0])
	assert.Equal(t, Column{ID: core.ColSortOrder}, cols[1])
	assert.Equal(t, Column{ID: "Jan 23", Month: true}, cols[2])

	assert.Len(t, Columns(tbl, 1), 3)
}

func TestParseAndFormatSort(t *testing.T) {
	cols := Columns(sampleTable(t), 6)
	keys := ParseSort("Jan 23:desc, Item ,Bogus:asc,Item:desc,Item Sort Order:sideways", cols)
	assert.Equal(t, []SortKey{{Column: "Jan 23", Desc: true}, {Column: "Item"}}, keys)
	assert.Equal(t, "Jan 23:desc,Item:asc", FormatSort(keys))
	assert.Empty(t, ParseSort("", cols))
}

func TestToggleCycles(t *testing.T) {
	keys := Toggle(nil, "Item")
	assert.Equal(t, []SortKey{{Column: "Item"}}, keys)
	assert.Equal(t, "asc", Direction(keys, "Item"))

	keys = Toggle(keys, "Jan 23")
	keys = Toggle(keys, "Item")
	assert.Equal(t, []SortKey{{Column: "Item", Desc: true}, {Column: "Jan 23"}}, keys)

	keys = Toggle(keys, "Item")
	assert.Equal(t, []SortKey{{Column: "Jan 23"}}, keys)
	assert.Equal(t, "", Direction(keys, "Item"))
}

func TestSortMultiColumn(t *testing.T) {
	rows := sampleTable(t).Rows

	assert.Equal(t, []string{"Pear", "Apple", "Kale"}, names(Sort(rows, nil)))
	assert.Equal(t, []string{"Apple", "Kale", "Pear"}, names(Sort(rows, []SortKey{{Column: core.ColItem}})))
	assert.Equal(t, []string{"Kale", "Apple", "Pear"}, names(Sort(rows, []SortKey{{Column: core.ColSortOrder, Desc: true}})))

	// Kale has no January cell and sorts last in both directions.
	assert.Equal(t, []string{"Pear", "Apple", "Kale"}, names(Sort(rows, []SortKey{{Column: "Jan 23"}})))
	assert.Equal(t, []string{"Apple", "Pear", "Kale"}, names(Sort(rows, []SortKey{{Column: "Jan 23", Desc: true}})))

	// Ties on Feb fall through to the second key.
	byFebThenItem := Sort(rows, []SortKey{{Column: "Feb 23", Desc: true}, {Column: core.ColItem}})
	assert.Equal(t, []string{"Kale", "Apple", "Pear"}, names(byFebThenItem))

	assert.Equal(t, []string{"Pear", "Apple", "Kale"}, names(rows), "input untouched")
}

func TestPaginate(t *testing.T) {
	var rows []core.SummaryRow
	for i := 0; i < 23; i++ {
		rows = append(rows, core.SummaryRow{RowKey: core.RowKey{Item: "x", SortOrder: i}})
	}

	p := Paginate(rows, 0, 10)
	assert.Len(t, p.Rows, 10)
	assert.Equal(t, 3, p.Count)
	assert.False(t, p.HasPrev())
	assert.True(t, p.HasNext())
	assert.Equal(t, "1 / 3", p.Label())

	p = Paginate(rows, 2, 10)
	assert.Len(t, p.Rows, 3)
	assert.Equal(t, 20, p.Rows[0].SortOrder)
	assert.False(t, p.HasNext())

	p = Paginate(rows, 99, 10)
	assert.Equal(t, 2, p.Number, "clamped to last page")

	p = Paginate(rows, -1, 0)
	assert.Equal(t, 0, p.Number)
	assert.Equal(t, DefaultPageSize, p.Size)

	p = Paginate(nil, 3, 10)
	assert.Empty(t, p.Rows)
	assert.Equal(t, 0, p.Count)
	assert.Equal(t, "1 / 1", p.Label())
}
