package memory

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"salesdash/internal/core"
	ports "salesdash/internal/sheets"
)

var _ ports.RecordReader = (*Store)(nil)

// SeedFile is the CSV looked up by NewFromFiles.
const SeedFile = "sales.csv"

type Store struct {
	mu      sync.Mutex
	records []core.SalesRecord
}

func New(records []core.SalesRecord) *Store {
	return &Store{records: append([]core.SalesRecord(nil), records...)}
}

// NewFromFiles seeds the store from base/sales.csv, falling back to a small
// demo data set when the file is absent. A present but malformed file is an error.
// The memory backend is for local development; real inputs go through the
// excel, sheets or sqlite backends, where a missing input is fatal.
func NewFromFiles(base string) (*Store, error) {
	path := filepath.Join(base, SeedFile)
	recs, err := readCSV(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("Seed file not found, serving demo records", "path", path, "records", len(DemoRecords()))
			return New(DemoRecords()), nil
		}
		return nil, fmt.Errorf("seed %s: %w", path, err)
	}
	return New(recs), nil
}

// ReadRecords returns a copy of the stored records.
func (s *Store) ReadRecords(_ context.Context) ([]core.SalesRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.SalesRecord(nil), s.records...), nil
}

// ReplaceRecords swaps the stored records. The source name is ignored.
func (s *Store) ReplaceRecords(_ context.Context, _ string, records []core.SalesRecord) (int, error) {
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return 0, fmt.Errorf("record %d: %w", i+1, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]core.SalesRecord(nil), records...)
	return len(records), nil
}

func readCSV(path string) ([]core.SalesRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &core.DataFormatError{Missing: core.RequiredColumns}
	}
	return ports.ParseRecords(rows[0], rows[1:], 2)
}

// DemoRecords is a fixed two-category, three-month data set.
func DemoRecords() []core.SalesRecord {
	type item struct {
		typ, name string
		order     int
		base      int64
	}
	items := []item{
		{"Fruit", "Apple", 1, 120},
		{"Fruit", "Banana", 2, 80},
		{"Fruit", "Cherry", 3, 45},
		{"Vegetable", "Carrot", 4, 60},
		{"Vegetable", "Leek", 5, 30},
	}
	var out []core.SalesRecord
	for m := 0; m < 3; m++ {
		date := time.Date(2023, time.January+time.Month(m), 15, 0, 0, 0, 0, time.UTC)
		for _, it := range items {
			out = append(out, core.SalesRecord{
				Date:      date,
				ItemType:  it.typ,
				Item:      it.name,
				SortOrder: it.order,
				Sales:     decimal.New(it.base+int64(m)*10, 0),
			})
		}
	}
	return out
}
