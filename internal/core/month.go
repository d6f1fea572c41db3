package core

import "time"

// MonthLayout renders a month column label, e.g. "Jan 23".
const MonthLayout = "Jan 06"

// Month is one pivot column.
type Month struct {
	Start time.Time // first day of the month, UTC
	Label string
}

// MonthOf returns the month column a date falls into.
func MonthOf(t time.Time) Month {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Month{Start: start, Label: start.Format(MonthLayout)}
}

// MonthLabel formats t with MonthLayout.
func MonthLabel(t time.Time) string {
	return t.Format(MonthLayout)
}
