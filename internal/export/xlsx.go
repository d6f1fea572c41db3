// Package export writes summary rows as an .xlsx workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"salesdash/internal/core"
	"salesdash/internal/table"
)

// SheetName is the name of the only worksheet written.
const SheetName = "Summary"

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WriteXLSX writes one header row and one row per summary row. Missing
// month cells stay empty.
func WriteXLSX(w io.Writer, cols []table.Column, rows []core.SummaryRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("amount style: %w", err)
	}

	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c.ID
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(max(len(cols), 1), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for r, row := range rows {
		for c, col := range cols {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			switch {
			case col.ID == core.ColItem:
				err = f.SetCellStr(SheetName, cell, row.Item)
			case col.ID == core.ColSortOrder:
				err = f.SetCellInt(SheetName, cell, row.SortOrder)
			case col.Month:
				v, ok := row.Cell(col.ID)
				if !ok {
					continue
				}
				if err = f.SetCellFloat(SheetName, cell, v.InexactFloat64(), -1, 64); err == nil {
					err = f.SetCellStyle(SheetName, cell, cell, amountStyle)
				}
			}
			if err != nil {
				return fmt.Errorf("write %s: %w", cell, err)
			}
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
