package sheets

import (
	"context"

	"salesdash/internal/core"
)

// Ports for inbound data adapters.
type (
	// RecordReader loads every sales record from one source.
	RecordReader interface {
		ReadRecords(ctx context.Context) ([]core.SalesRecord, error)
	}

	// RecordWriter replaces the records stored under a source name.
	RecordWriter interface {
		ReplaceRecords(ctx context.Context, source string, records []core.SalesRecord) (int, error)
	}
)
