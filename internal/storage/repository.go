package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"salesdash/internal/core"
	"salesdash/internal/sheets"

	_ "modernc.org/sqlite"
)

var (
	_ sheets.RecordReader = (*SQLiteRepository)(nil)
	_ sheets.RecordWriter = (*SQLiteRepository)(nil)
)

// dateLayout is how sale dates are stored in sales_records.sale_date.
const dateLayout = "2006-01-02"

// FilterEvent is one persisted dashboard interaction.
type FilterEvent struct {
	ID          int64
	SessionID   string
	Kind        string
	Selected    []string
	SelectAll   bool
	VisibleRows int
	OccurredAt  time.Time
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ReadRecords implements sheets.RecordReader
func (r *SQLiteRepository) ReadRecords(ctx context.Context) ([]core.SalesRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT sale_date, item_type, item, item_sort_order, sales
		FROM sales_records
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query sales records: %w", err)
	}
	defer rows.Close()

	var out []core.SalesRecord
	for rows.Next() {
		var (
			date, sales string
			rec         core.SalesRecord
		)
		if err := rows.Scan(&date, &rec.ItemType, &rec.Item, &rec.SortOrder, &sales); err != nil {
			return nil, fmt.Errorf("scan sales record: %w", err)
		}
		if rec.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, &core.DataFormatError{Row: len(out) + 1, Column: core.ColDate, Err: fmt.Errorf("%w: %v", core.ErrInvalidDate, err)}
		}
		if rec.Sales, err = decimal.NewFromString(sales); err != nil {
			return nil, &core.DataFormatError{Row: len(out) + 1, Column: core.ColSales, Err: fmt.Errorf("%w: %v", core.ErrInvalidSales, err)}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales records: %w", err)
	}
	return out, nil
}

// ReplaceRecords implements sheets.RecordWriter. All rows previously imported
// from source are removed in the same transaction.
func (r *SQLiteRepository) ReplaceRecords(ctx context.Context, source string, records []core.SalesRecord) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sales_records WHERE source = ?`, source); err != nil {
		return 0, fmt.Errorf("clear source %q: %w", source, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sales_records (sale_date, item_type, item, item_sort_order, sales, source)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return 0, fmt.Errorf("record %d: %w", i+1, err)
		}
		if _, err := stmt.ExecContext(ctx,
			rec.Date.Format(dateLayout), rec.ItemType, rec.Item, rec.SortOrder, rec.Sales.String(), source,
		); err != nil {
			return 0, fmt.Errorf("insert record %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Sales records imported", "source", source, "records", len(records))
	return len(records), nil
}

// CountRecords returns the number of stored sales records.
func (r *SQLiteRepository) CountRecords(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sales_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sales records: %w", err)
	}
	return n, nil
}

// RecordEvent stores a dashboard interaction.
func (r *SQLiteRepository) RecordEvent(ctx context.Context, ev FilterEvent) (int64, error) {
	selected, err := json.Marshal(ev.Selected)
	if err != nil {
		return 0, fmt.Errorf("encode selection: %w", err)
	}
	if ev.Selected == nil {
		selected = []byte("[]")
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO filter_events (session_id, kind, selected, select_all, visible_rows, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ev.SessionID, ev.Kind, string(selected), ev.SelectAll, ev.VisibleRows, ev.OccurredAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert filter event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("filter event id: %w", err)
	}
	return id, nil
}

// ListEvents returns the events of one session, oldest first.
func (r *SQLiteRepository) ListEvents(ctx context.Context, sessionID string) ([]FilterEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, kind, selected, select_all, visible_rows, occurred_at
		FROM filter_events
		WHERE session_id = ?
		ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query filter events: %w", err)
	}
	defer rows.Close()

	var out []FilterEvent
	for rows.Next() {
		var (
			ev       FilterEvent
			selected string
		)
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.Kind, &selected, &ev.SelectAll, &ev.VisibleRows, &ev.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan filter event: %w", err)
		}
		if err := json.Unmarshal([]byte(selected), &ev.Selected); err != nil {
			return nil, fmt.Errorf("decode selection of event %d: %w", ev.ID, err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
