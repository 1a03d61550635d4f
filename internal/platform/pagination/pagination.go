// Package pagination parses page/limit query parameters and builds list metadata.
package pagination

import "strconv"

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is a validated page request. Page starts at 1.
type Params struct {
	Page  int
	Limit int
}

// Offset returns the SQL OFFSET for p.
func (p Params) Offset() int { return (p.Page - 1) * p.Limit }

// Meta describes a page of results.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Parse reads page and limit from their raw query values. Missing, non-numeric or non-positive
// values fall back to defaults; limit is capped at MaxLimit.
func Parse(page, limit string) Params {
	p := Params{Page: 1, Limit: DefaultLimit}
	if n, err := strconv.Atoi(page); err == nil && n > 0 {
		p.Page = n
	}
	if n, err := strconv.Atoi(limit); err == nil && n > 0 {
		p.Limit = min(n, MaxLimit)
	}
	return p
}

// NewMeta builds Meta for a page of a result set of size total.
func NewMeta(p Params, total int) Meta {
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return Meta{Page: p.Page, Limit: p.Limit, Total: total, TotalPages: pages}
}
