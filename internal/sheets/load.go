package sheets

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"salesdash/internal/core"
)

// LoadAll reads every source concurrently and concatenates the records in
// source order. The first failure cancels the remaining reads.
func LoadAll(ctx context.Context, readers ...RecordReader) ([]core.SalesRecord, error) {
	results := make([][]core.SalesRecord, len(readers))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range readers {
		g.Go(func() error {
			recs, err := r.ReadRecords(gctx)
			if err != nil {
				return fmt.Errorf("source %d: %w", i+1, err)
			}
			results[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, recs := range results {
		total += len(recs)
	}
	out := make([]core.SalesRecord, 0, total)
	for _, recs := range results {
		out = append(out, recs...)
	}
	slog.DebugContext(ctx, "Sales records loaded", "sources", len(readers), "records", total)
	return out, nil
}
