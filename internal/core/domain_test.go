package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSalesRecordValidate(t *testing.T) {
	good := SalesRecord{
		Date:      time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC),
		ItemType:  "Fruit",
		Item:      "Apple",
		SortOrder: 1,
		Sales:     decimal.NewFromInt(10),
	}
	require.NoError(t, good.Validate())

	cases := []struct {
		name   string
		mutate func(*SalesRecord)
		want   error
		column string
	}{
		{"zero date", func(r *SalesRecord) { r.Date = time.Time{} }, ErrInvalidDate, ColDate},
		{"blank item type", func(r *SalesRecord) { r.ItemType = "  " }, ErrEmptyItemType, ColItemType},
		{"blank item", func(r *SalesRecord) { r.Item = "" }, ErrEmptyItem, ColItem},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := good
			tc.mutate(&rec)
			err := rec.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)

			var dfe *DataFormatError
			require.True(t, errors.As(err, &dfe))
			assert.Equal(t, tc.column, dfe.Column)
		})
	}
}

func TestDataFormatErrorMessage(t *testing.T) {
	err := &DataFormatError{Missing: []string{ColDate, ColSales}}
	assert.Equal(t, `data format: missing required columns: Date, Sales`, err.Error())
	assert.ErrorIs(t, err, ErrMissingColumns)

	err = &DataFormatError{Row: 4, Column: ColDate, Err: ErrInvalidDate}
	assert.Equal(t, `data format: row 4: column "Date": invalid date`, err.Error())
}

func TestMonthOf(t *testing.T) {
	m := MonthOf(time.Date(2023, 2, 28, 13, 45, 0, 0, time.UTC))
	assert.Equal(t, "Feb 23", m.Label)
	assert.Equal(t, time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC), m.Start)
	assert.Equal(t, "Dec 22", MonthLabel(time.Date(2022, 12, 1, 0, 0, 0, 0, time.UTC)))
}
