package memory

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"salesdash/internal/core"
)

func TestMemoryStoreReadAndReplace(t *testing.T) {
	s := New(DemoRecords())
	recs, err := s.ReadRecords(context.Background())
	if err != nil || len(recs) != 15 {
		t.Fatalf("unexpected read: n=%d err=%v", len(recs), err)
	}

	// Mutating the returned slice must not touch the store.
	recs[0].Item = "Changed"
	again, _ := s.ReadRecords(context.Background())
	if again[0].Item != "Apple" {
		t.Fatalf("store leaked its backing slice: %q", again[0].Item)
	}

	n, err := s.ReplaceRecords(context.Background(), "test", []core.SalesRecord{{
		Date: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), ItemType: "Fruit", Item: "Fig",
		SortOrder: 1, Sales: decimal.NewFromInt(3),
	}})
	if err != nil || n != 1 {
		t.Fatalf("unexpected replace: n=%d err=%v", n, err)
	}

	_, err = s.ReplaceRecords(context.Background(), "test", []core.SalesRecord{{ItemType: "Fruit"}})
	var dfe *core.DataFormatError
	if !errors.As(err, &dfe) {
		t.Fatalf("expected DataFormatError, got %v", err)
	}
	recs, _ = s.ReadRecords(context.Background())
	if len(recs) != 1 || recs[0].Item != "Fig" {
		t.Fatalf("failed replace must keep previous records: %+v", recs)
	}
}

func TestNewFromFilesSeedsAndDefaults(t *testing.T) {
	dir := t.TempDir()
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	// No file -> demo data, with a warning
	s, err := NewFromFiles(dir)
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	recs, _ := s.ReadRecords(context.Background())
	if len(recs) == 0 {
		t.Fatalf("expected demo records when file missing")
	}
	if !strings.Contains(logs.String(), "level=WARN") || !strings.Contains(logs.String(), SeedFile) {
		t.Fatalf("expected a warning naming the seed file, got %s", logs.String())
	}

	csv := "Date,Item Type,Item,Item Sort Order,Sales\n" +
		"2023-01-15,Fruit,Apple,1,10\n" +
		"\n" +
		"2023-02-10,Fruit,Apple,1,5\n"
	if err := os.WriteFile(filepath.Join(dir, SeedFile), []byte(csv), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s, err = NewFromFiles(dir)
	if err != nil {
		t.Fatalf("seeded: %v", err)
	}
	recs, _ = s.ReadRecords(context.Background())
	if len(recs) != 2 || recs[1].Sales.String() != "5" {
		t.Fatalf("unexpected seeded records: %+v", recs)
	}
}

func TestNewFromFilesRejectsBadSeed(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, SeedFile), []byte("Date,Item\n2023-01-01,Apple\n"), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	_, err := NewFromFiles(dir)
	if !errors.Is(err, core.ErrMissingColumns) {
		t.Fatalf("expected missing columns, got %v", err)
	}
}

func TestDemoRecordsReshape(t *testing.T) {
	table, err := core.Reshape(DemoRecords())
	if err != nil {
		t.Fatalf("reshape: %v", err)
	}
	if len(table.Rows) != 5 || len(table.Months) != 3 {
		t.Fatalf("unexpected shape: rows=%d months=%d", len(table.Rows), len(table.Months))
	}
	if got := table.ItemTypes(); len(got) != 2 || got[0] != "Fruit" {
		t.Fatalf("unexpected item types: %v", got)
	}
}
