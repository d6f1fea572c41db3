package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdash/internal/core"
	"salesdash/internal/sheets/memory"
)

type recordingWriter struct {
	calls map[string]int
	err   error
}

func (w *recordingWriter) ReplaceRecords(_ context.Context, source string, records []core.SalesRecord) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	if w.calls == nil {
		w.calls = make(map[string]int)
	}
	w.calls[source] = len(records)
	return len(records), nil
}

type failingReader struct{ err error }

func (r failingReader) ReadRecords(context.Context) ([]core.SalesRecord, error) {
	return nil, r.err
}

func record(typ, item string, order int, sales int64) core.SalesRecord {
	return core.SalesRecord{
		Date:      time.Date(2023, time.January, 10, 0, 0, 0, 0, time.UTC),
		ItemType:  typ,
		Item:      item,
		SortOrder: order,
		Sales:     decimal.NewFromInt(sales),
	}
}

func TestImporter_Import(t *testing.T) {
	w := &recordingWriter{}
	im := NewImporter(w, nil)

	results, err := im.Import(context.Background(),
		Source{Name: "north.xlsx", Reader: memory.New(memory.DemoRecords())},
		Source{Name: "south.xlsx", Reader: memory.New([]core.SalesRecord{record("Nuts", "Almond", 9, 3)})},
	)
	require.NoError(t, err)
	assert.Equal(t, []ImportResult{
		{Source: "north.xlsx", Records: 15},
		{Source: "south.xlsx", Records: 1},
	}, results)
	assert.Equal(t, map[string]int{"north.xlsx": 15, "south.xlsx": 1}, w.calls)
}

func TestImporter_DryRunWritesNothing(t *testing.T) {
	w := &recordingWriter{}
	im := NewImporter(w, nil, WithDryRun())

	results, err := im.Import(context.Background(), Source{Name: "a.xlsx", Reader: memory.New(memory.DemoRecords())})
	require.NoError(t, err)
	assert.Equal(t, 15, results[0].Records)
	assert.Empty(t, w.calls)
}

func TestImporter_ReadFailureWritesNothing(t *testing.T) {
	w := &recordingWriter{}
	im := NewImporter(w, nil)
	missing := &core.DataFormatError{Missing: []string{core.ColSales}}

	_, err := im.Import(context.Background(),
		Source{Name: "good.xlsx", Reader: memory.New(memory.DemoRecords())},
		Source{Name: "bad.xlsx", Reader: failingReader{err: missing}},
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMissingColumns)
	assert.Contains(t, err.Error(), "bad.xlsx")
	assert.Empty(t, w.calls)
}

func TestImporter_InvalidRecordWritesNothing(t *testing.T) {
	w := &recordingWriter{}
	im := NewImporter(w, nil)

	_, err := im.Import(context.Background(),
		Source{Name: "a.xlsx", Reader: memory.New([]core.SalesRecord{record("", "Apple", 1, 1)})},
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrEmptyItemType)
	assert.Empty(t, w.calls)
}

func TestImporter_WriteFailure(t *testing.T) {
	w := &recordingWriter{err: errors.New("database is locked")}
	im := NewImporter(w, nil)

	_, err := im.Import(context.Background(), Source{Name: "a.xlsx", Reader: memory.New(memory.DemoRecords())})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write a.xlsx")
}

func TestImporter_NoSources(t *testing.T) {
	_, err := NewImporter(&recordingWriter{}, nil).Import(context.Background())
	assert.Error(t, err)
}
