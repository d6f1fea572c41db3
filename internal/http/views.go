package http

import (
	"strconv"

	"salesdash/internal/core"
	"salesdash/internal/filter"
	"salesdash/internal/table"
)

const (
	pathTable  = "/ui/table"
	pathExport = "/export.xlsx"
)

type optionView struct {
	Value   string
	Checked bool
}

type checklistView struct {
	Options []optionView
	OOB     bool
}

type selectAllView struct {
	Checked bool
	OOB     bool
}

type headerView struct {
	Label     string
	Direction string
	SortURL   string
	Numeric   bool
}

type cellView struct {
	Text    string
	Numeric bool
}

type tableView struct {
	Headers   []headerView
	Rows      [][]cellView
	Sort      string
	PageLabel string
	Total     int
	HasPrev   bool
	HasNext   bool
	PrevURL   string
	NextURL   string
	ExportURL string
}

type indexView struct {
	Checklist checklistView
	SelectAll selectAllView
	Table     tableView
	Records   int
	LoadedAt  string
}

func newChecklistView(domain, selected []string, oob bool) checklistView {
	picked := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		picked[s] = struct{}{}
	}
	v := checklistView{Options: make([]optionView, 0, len(domain)), OOB: oob}
	for _, d := range domain {
		_, ok := picked[d]
		v.Options = append(v.Options, optionView{Value: d, Checked: ok})
	}
	return v
}

// newTableView sorts rows by the requested keys and cuts out one page.
func newTableView(cols []table.Column, rows []core.SummaryRow, params TableParams, pageSize int) tableView {
	keys := table.ParseSort(params.Sort, cols)
	sortParam := table.FormatSort(keys)
	page := table.Paginate(table.Sort(rows, keys), params.Page, pageSize)

	v := tableView{
		Headers:   make([]headerView, 0, len(cols)),
		Rows:      make([][]cellView, 0, len(page.Rows)),
		Sort:      sortParam,
		PageLabel: page.Label(),
		Total:     page.Total,
		HasPrev:   page.HasPrev(),
		HasNext:   page.HasNext(),
		PrevURL:   tableURL(pathTable, sortParam, page.Number-1),
		NextURL:   tableURL(pathTable, sortParam, page.Number+1),
		ExportURL: tableURL(pathExport, sortParam, 0),
	}
	for _, c := range cols {
		v.Headers = append(v.Headers, headerView{
			Label:     c.ID,
			Direction: table.Direction(keys, c.ID),
			SortURL:   tableURL(pathTable, table.FormatSort(table.Toggle(keys, c.ID)), 0),
			Numeric:   c.ID != core.ColItem,
		})
	}
	for _, r := range page.Rows {
		v.Rows = append(v.Rows, rowCells(cols, r))
	}
	return v
}

// rowCells renders one row. Months without records stay blank.
func rowCells(cols []table.Column, r core.SummaryRow) []cellView {
	cells := make([]cellView, 0, len(cols))
	for _, c := range cols {
		switch {
		case c.Month:
			text := ""
			if v, ok := r.Cell(c.ID); ok {
				text = formatAmount(v)
			}
			cells = append(cells, cellView{Text: text, Numeric: true})
		case c.ID == core.ColSortOrder:
			cells = append(cells, cellView{Text: strconv.Itoa(r.SortOrder), Numeric: true})
		default:
			cells = append(cells, cellView{Text: r.Item})
		}
	}
	return cells
}

func newIndexView(domain []string, st filter.State, tv tableView, records int, loadedAt string) indexView {
	return indexView{
		Checklist: newChecklistView(domain, st.Selected, false),
		SelectAll: selectAllView{Checked: st.SelectAll},
		Table:     tv,
		Records:   records,
		LoadedAt:  loadedAt,
	}
}
