// Package adapters bridges the record readers to the SQLite store.
package adapters

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"salesdash/internal/core"
	"salesdash/internal/sheets"
)

// Source is one named input, usually a workbook path.
type Source struct {
	Name   string
	Reader sheets.RecordReader
}

// ImportResult reports how many records a source contributed.
type ImportResult struct {
	Source  string
	Records int
}

// Importer copies records from readers into a RecordWriter. Every source
// is read and validated before anything is written, so a bad file leaves
// the store untouched.
type Importer struct {
	writer sheets.RecordWriter
	logger *slog.Logger
	dryRun bool
}

type ImporterOption func(*Importer)

// WithDryRun reads and validates without writing.
func WithDryRun() ImporterOption {
	return func(im *Importer) { im.dryRun = true }
}

func NewImporter(writer sheets.RecordWriter, logger *slog.Logger, opts ...ImporterOption) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	im := &Importer{writer: writer, logger: logger}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Import reads all sources concurrently, checks that their union pivots
// cleanly and then replaces each source's records in order.
func (im *Importer) Import(ctx context.Context, sources ...Source) ([]ImportResult, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("import: no sources given")
	}

	batches := make([][]core.SalesRecord, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			recs, err := src.Reader.ReadRecords(gctx)
			if err != nil {
				return fmt.Errorf("read %s: %w", src.Name, err)
			}
			batches[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []core.SalesRecord
	for _, b := range batches {
		all = append(all, b...)
	}
	summary, err := core.Reshape(all)
	if err != nil {
		return nil, fmt.Errorf("validate records: %w", err)
	}
	im.logger.InfoContext(ctx, "Import validated",
		"sources", len(sources),
		"records", len(all),
		"rows", len(summary.Rows),
		"months", len(summary.Months),
		"dry_run", im.dryRun)

	results := make([]ImportResult, 0, len(sources))
	for i, src := range sources {
		n := len(batches[i])
		if !im.dryRun {
			if n, err = im.writer.ReplaceRecords(ctx, src.Name, batches[i]); err != nil {
				return results, fmt.Errorf("write %s: %w", src.Name, err)
			}
		}
		results = append(results, ImportResult{Source: src.Name, Records: n})
		im.logger.InfoContext(ctx, "Source imported", "source", src.Name, "records", n)
	}
	return results, nil
}
