package http

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// formatAmount renders a sales sum with two decimals and thousands
// separators (e.g. "12,345.60").
func formatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + "." + frac
	if neg {
		return "-" + out
	}
	return out
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(result)
}

// tableURL builds a link to path carrying the sort and 1-based page.
func tableURL(path, sort string, page int) string {
	q := url.Values{}
	if sort != "" {
		q.Set(paramSort, sort)
	}
	if page > 0 {
		q.Set(paramPage, strconv.Itoa(page+1))
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
