// Package filter implements the category checklist state machine: which
// summary rows are visible for the checked item types, and how the
// "select all" control stays consistent with the checklist.
package filter

import (
	"fmt"
	"strings"

	"salesdash/internal/core"
)

// ValidationError reports checklist values outside the known item types.
type ValidationError struct {
	Values []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("unknown item type: %s", strings.Join(e.Values, ", "))
}

// Update is the result of a transition. Changed == false is the no-update
// signal: the caller must leave the corresponding control untouched.
type Update[T any] struct {
	Value   T
	Changed bool
}

// NoUpdate returns the no-update signal.
func NoUpdate[T any]() Update[T] {
	return Update[T]{}
}

// Set returns an update carrying v.
func Set[T any](v T) Update[T] {
	return Update[T]{Value: v, Changed: true}
}

// Controller holds the immutable inputs of the transitions: the summary
// table and the closed domain of item types shown in the checklist.
type Controller struct {
	table  core.SummaryTable
	domain []string
	index  map[string]int
}

// NewController builds a controller whose checklist domain is the set of
// item types present in table.
func NewController(table core.SummaryTable) *Controller {
	domain := table.ItemTypes()
	index := make(map[string]int, len(domain))
	for i, v := range domain {
		index[v] = i
	}
	return &Controller{table: table, domain: domain, index: index}
}

// Table returns the summary table the controller filters.
func (c *Controller) Table() core.SummaryTable {
	return c.table
}

// Domain returns the checklist options in display order.
func (c *Controller) Domain() []string {
	return append([]string(nil), c.domain...)
}

// Normalize dedupes values and orders them like the domain. Unknown values
// yield a *ValidationError.
func (c *Controller) Normalize(values []string) ([]string, error) {
	picked := make([]bool, len(c.domain))
	var unknown []string
	for _, v := range values {
		i, ok := c.index[v]
		if !ok {
			unknown = append(unknown, v)
			continue
		}
		picked[i] = true
	}
	if len(unknown) > 0 {
		return nil, &ValidationError{Values: unknown}
	}
	out := make([]string, 0, len(values))
	for i, ok := range picked {
		if ok {
			out = append(out, c.domain[i])
		}
	}
	return out, nil
}

// IsFullDomain reports whether selected covers every item type.
func (c *Controller) IsFullDomain(selected []string) bool {
	norm, err := c.Normalize(selected)
	if err != nil {
		return false
	}
	return len(norm) == len(c.domain)
}

// FilterRows returns the summary rows whose item type is selected, in
// table order. An empty selection yields no rows.
func (c *Controller) FilterRows(selected []string) ([]core.SummaryRow, error) {
	norm, err := c.Normalize(selected)
	if err != nil {
		return nil, err
	}
	return c.filter(norm), nil
}

func (c *Controller) filter(selected []string) []core.SummaryRow {
	if len(selected) == 0 {
		return []core.SummaryRow{}
	}
	keep := make(map[string]struct{}, len(selected))
	for _, v := range selected {
		keep[v] = struct{}{}
	}
	rows := make([]core.SummaryRow, 0, len(c.table.Rows))
	for _, r := range c.table.Rows {
		if _, ok := keep[r.ItemType]; ok {
			rows = append(rows, r)
		}
	}
	return rows
}

// SelectAll handles a change of the select-all control. Only a flip from
// unchecked to checked selects every item type; anything else is no update.
func (c *Controller) SelectAll(wasChecked, checked bool) Update[[]string] {
	if !checked || wasChecked {
		return NoUpdate[[]string]()
	}
	return Set(c.Domain())
}

// Reconcile decides how the select-all control must be redrawn after the
// checklist changed. It only affects the control's appearance and never
// feeds back into SelectAll.
func (c *Controller) Reconcile(selected []string, selectAllChecked bool) Update[bool] {
	full := c.IsFullDomain(selected)
	switch {
	case !full && !selectAllChecked:
		return NoUpdate[bool]()
	case !full && selectAllChecked:
		return Set(false)
	case full && selectAllChecked:
		return NoUpdate[bool]()
	default:
		return Set(true)
	}
}
