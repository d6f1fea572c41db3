package excel

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"salesdash/internal/core"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "sales.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

var header = []any{"Date", "Item Type", "Item", "Item Sort Order", "Sales"}

func TestReadRecordsDateCellsAndText(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]any{
		header,
		{time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC), "Fruit", "Apple", 1, 10},
		{"2023-02-10", "Fruit", "Apple", 1, 5.5},
	})

	recs, err := New(path, "").ReadRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Jan 23", core.MonthLabel(recs[0].Date))
	assert.Equal(t, "Feb 23", core.MonthLabel(recs[1].Date))
	assert.Equal(t, "5.5", recs[1].Sales.String())

	table, err := core.Reshape(recs)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
}

func TestReadRecordsNamedSheet(t *testing.T) {
	path := writeWorkbook(t, "Data", [][]any{
		header,
		{"2023-03-01", "Vegetable", "Leek", 4, 2},
	})

	recs, err := New(path, "Data").ReadRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Leek", recs[0].Item)

	_, err = New(path, "Missing").ReadRecords(context.Background())
	assert.ErrorContains(t, err, `sheet "Missing" not found`)
}

func TestReadRecordsMissingColumns(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]any{{"Date", "Item", "Sales"}})
	_, err := New(path, "").ReadRecords(context.Background())
	assert.ErrorIs(t, err, core.ErrMissingColumns)
}

func TestReadRecordsMissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.xlsx"), "").ReadRecords(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadFrom(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]any{
		header,
		{"2023-01-15", "Fruit", "Apple", 1, 10},
	})
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	recs, err := ReadFrom(bytes.NewReader(raw), "")
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}
