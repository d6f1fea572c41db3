// Package excel reads sales records from an .xlsx workbook.
package excel

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"salesdash/internal/core"
	ports "salesdash/internal/sheets"
)

var (
	_ ports.RecordReader = (*Reader)(nil)
	_ ports.RecordReader = (*Stream)(nil)
)

// Reader loads one worksheet of a workbook on disk.
type Reader struct {
	path  string
	sheet string
}

// New returns a reader for path. An empty sheet selects the workbook's
// active sheet.
func New(path, sheet string) *Reader {
	return &Reader{path: path, sheet: sheet}
}

// ReadRecords opens the workbook and parses the configured sheet.
func (r *Reader) ReadRecords(ctx context.Context) ([]core.SalesRecord, error) {
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", r.path, err)
	}
	defer f.Close()

	recs, err := readSheet(f, r.sheet)
	if err != nil {
		return nil, fmt.Errorf("workbook %s: %w", r.path, err)
	}
	slog.InfoContext(ctx, "Workbook loaded", "path", r.path, "records", len(recs))
	return recs, nil
}

// ReadFrom parses a workbook streamed from src.
func ReadFrom(src io.Reader, sheet string) ([]core.SalesRecord, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return readSheet(f, sheet)
}

// Stream reads a single workbook from an io.Reader, such as stdin.
type Stream struct {
	src   io.Reader
	sheet string
}

func NewStream(src io.Reader, sheet string) *Stream {
	return &Stream{src: src, sheet: sheet}
}

// ReadRecords consumes src. A Stream can only be read once.
func (s *Stream) ReadRecords(ctx context.Context) ([]core.SalesRecord, error) {
	recs, err := ReadFrom(s.src, s.sheet)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Workbook streamed", "records", len(recs))
	return recs, nil
}

func readSheet(f *excelize.File, sheet string) ([]core.SalesRecord, error) {
	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found (have %v)", sheet, f.GetSheetList())
	}

	// Raw values keep dates as serial numbers instead of display strings.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, &core.DataFormatError{Missing: core.RequiredColumns}
	}
	return ports.ParseRecords(rows[0], rows[1:], 2)
}
