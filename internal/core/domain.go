package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Canonical spreadsheet column names.
const (
	ColDate      = "Date"
	ColItemType  = "Item Type"
	ColItem      = "Item"
	ColSortOrder = "Item Sort Order"
	ColSales     = "Sales"
)

// RequiredColumns lists the input columns in their canonical order.
var RequiredColumns = []string{ColDate, ColItemType, ColItem, ColSortOrder, ColSales}

type (
	// SalesRecord is one input row. Records are immutable once loaded.
	SalesRecord struct {
		Date      time.Time
		ItemType  string
		Item      string
		SortOrder int
		Sales     decimal.Decimal
	}

	// DataFormatError reports input that cannot be turned into sales records.
	DataFormatError struct {
		Row     int // 1-based row in the source, 0 when the problem is not row-specific
		Column  string
		Missing []string
		Err     error
	}
)

var (
	ErrMissingColumns = errors.New("missing required columns")
	ErrInvalidDate    = errors.New("invalid date")
	ErrEmptyItemType  = errors.New("empty item type")
	ErrEmptyItem      = errors.New("empty item")
	ErrInvalidOrder   = errors.New("invalid item sort order")
	ErrInvalidSales   = errors.New("invalid sales amount")
)

func (e *DataFormatError) Error() string {
	var b strings.Builder
	b.WriteString("data format")
	if e.Row > 0 {
		fmt.Fprintf(&b, ": row %d", e.Row)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, ": column %q", e.Column)
	}
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": %v: %s", ErrMissingColumns, strings.Join(e.Missing, ", "))
		return b.String()
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *DataFormatError) Unwrap() error {
	if len(e.Missing) > 0 {
		return ErrMissingColumns
	}
	return e.Err
}

// Validate checks the fields a record needs to take part in the pivot.
func (r SalesRecord) Validate() error {
	if r.Date.IsZero() {
		return &DataFormatError{Column: ColDate, Err: ErrInvalidDate}
	}
	if strings.TrimSpace(r.ItemType) == "" {
		return &DataFormatError{Column: ColItemType, Err: ErrEmptyItemType}
	}
	if strings.TrimSpace(r.Item) == "" {
		return &DataFormatError{Column: ColItem, Err: ErrEmptyItem}
	}
	return nil
}
