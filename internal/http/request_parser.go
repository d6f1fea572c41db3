package http

// This file implements utilities for parsing and validating HTTP request data:
// form parsing, the checklist values, the select-all checkbox and the
// sort/page query of the table partial.

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Form and query keys posted by the dashboard controls.
const (
	paramItemType  = "item_type"
	paramSelectAll = "select_all"
	paramSort      = "sort"
	paramPage      = "page"
)

// TableParams holds the table view requested by the client.
type TableParams struct {
	Sort string
	Page int // 0-based
}

// ParseTableParams reads sort and the 1-based page from values. A missing or
// invalid page means the first one.
func ParseTableParams(values url.Values) TableParams {
	params := TableParams{Sort: sanitizeInput(values.Get(paramSort))}
	if v := strings.TrimSpace(values.Get(paramPage)); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 1 {
			params.Page = p - 1
		}
	}
	return params
}

// FormValues returns the sanitized, non-empty values posted under key, in
// the order the browser sent them.
func FormValues(form url.Values, key string) []string {
	raw := form[key]
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if v = sanitizeInput(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ParseCheckbox reports whether a checkbox was posted checked. Browsers
// omit unchecked boxes entirely.
func ParseCheckbox(form url.Values, key string) bool {
	switch strings.ToLower(strings.TrimSpace(form.Get(key))) {
	case "on", "true", "1", "yes", "checked":
		return true
	default:
		return false
	}
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format")
	}
	return nil
}
