package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"salesdash/internal/core"
	"salesdash/internal/filter"
	"salesdash/internal/sheets"
)

// Dashboard is the read-only data shared by every session.
type Dashboard struct {
	Table      core.SummaryTable
	Controller *filter.Controller
	Records    int
	LoadedAt   time.Time
}

// BuildDashboard loads every reader, pivots the records and prepares the
// filter controller. Any failure is fatal for startup.
func BuildDashboard(ctx context.Context, readers ...sheets.RecordReader) (*Dashboard, error) {
	start := time.Now()

	records, err := sheets.LoadAll(ctx, readers...)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	if len(records) == 0 {
		slog.WarnContext(ctx, "No sales records loaded, the dashboard will be empty")
	}

	table, err := core.Reshape(records)
	if err != nil {
		return nil, fmt.Errorf("reshape records: %w", err)
	}

	d := &Dashboard{
		Table:      table,
		Controller: filter.NewController(table),
		Records:    len(records),
		LoadedAt:   time.Now(),
	}

	slog.InfoContext(ctx, "Dashboard built",
		"records", d.Records,
		"rows", len(table.Rows),
		"months", len(table.Months),
		"item_types", len(d.Controller.Domain()),
		"duration", time.Since(start))
	return d, nil
}
