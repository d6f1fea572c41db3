package sheets

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"salesdash/internal/core"
)

// columnAliases maps normalized header spellings to canonical column names.
var columnAliases = map[string]string{
	"date":            core.ColDate,
	"sale date":       core.ColDate,
	"sales date":      core.ColDate,
	"item type":       core.ColItemType,
	"itemtype":        core.ColItemType,
	"type":            core.ColItemType,
	"category":        core.ColItemType,
	"item":            core.ColItem,
	"item name":       core.ColItem,
	"product":         core.ColItem,
	"item sort order": core.ColSortOrder,
	"sort order":      core.ColSortOrder,
	"sort":            core.ColSortOrder,
	"sales":           core.ColSales,
	"amount":          core.ColSales,
}

// dateLayouts are tried in order for text date cells.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/06",
	"01-02-06",
	"2 Jan 2006",
	"Jan 2, 2006",
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, "_", " ")
	return strings.Join(strings.Fields(h), " ")
}

// ColumnIndex maps canonical column names to header positions. First match
// wins. Missing required columns are reported together.
func ColumnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(core.RequiredColumns))
	for i, h := range header {
		canon, ok := columnAliases[normalizeHeader(h)]
		if !ok {
			continue
		}
		if _, exists := idx[canon]; !exists {
			idx[canon] = i
		}
	}
	var missing []string
	for _, c := range core.RequiredColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &core.DataFormatError{Missing: missing}
	}
	return idx, nil
}

// ParseRecords converts a header and data rows into sales records.
// firstRow is the 1-based source row number of rows[0], used in errors.
// Rows whose cells are all blank are skipped.
func ParseRecords(header []string, rows [][]string, firstRow int) ([]core.SalesRecord, error) {
	idx, err := ColumnIndex(header)
	if err != nil {
		return nil, err
	}

	out := make([]core.SalesRecord, 0, len(rows))
	for i, row := range rows {
		if blankRow(row) {
			continue
		}
		rowNum := firstRow + i
		rec, err := parseRow(row, idx)
		if err != nil {
			err.Row = rowNum
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseRow(row []string, idx map[string]int) (core.SalesRecord, *core.DataFormatError) {
	cell := func(col string) string {
		i := idx[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	date, err := ParseDate(cell(core.ColDate))
	if err != nil {
		return core.SalesRecord{}, &core.DataFormatError{Column: core.ColDate, Err: err}
	}
	order, err := parseSortOrder(cell(core.ColSortOrder))
	if err != nil {
		return core.SalesRecord{}, &core.DataFormatError{Column: core.ColSortOrder, Err: err}
	}
	sales, err := ParseSales(cell(core.ColSales))
	if err != nil {
		return core.SalesRecord{}, &core.DataFormatError{Column: core.ColSales, Err: err}
	}

	rec := core.SalesRecord{
		Date:      date,
		ItemType:  cell(core.ColItemType),
		Item:      cell(core.ColItem),
		SortOrder: order,
		Sales:     sales,
	}
	if err := rec.Validate(); err != nil {
		var dfe *core.DataFormatError
		if errors.As(err, &dfe) {
			return core.SalesRecord{}, dfe
		}
		return core.SalesRecord{}, &core.DataFormatError{Err: err}
	}
	return rec, nil
}

// maxExcelSerial is the first serial past 9999-12-31, the last date Excel
// represents.
const maxExcelSerial = 2958466

// ParseDate accepts an Excel serial day number or one of dateLayouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", core.ErrInvalidDate)
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(serial) || math.IsInf(serial, 0) || serial < 1 || serial >= maxExcelSerial {
			return time.Time{}, fmt.Errorf("%w: serial %q", core.ErrInvalidDate, s)
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", core.ErrInvalidDate, err)
		}
		return t.Round(time.Second), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, s)
}

// ParseSales reads an amount, ignoring thousands separators and a leading
// currency symbol.
func ParseSales(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$€£")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: empty", core.ErrInvalidSales)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", core.ErrInvalidSales, s)
	}
	return d, nil
}

func parseSortOrder(s string) (int, error) {
	if i, err := strconv.Atoi(s); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %q", core.ErrInvalidOrder, s)
	}
	return int(f), nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
