package sqlkit

import (
	"fmt"
	"net/url"
	"strconv"
)

// Pagination defaults and bounds
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Pagination carries clamped paging parameters for list queries.
type Pagination struct {
	Page         int
	PerPage      int
	NoPagination bool
}

// ParsePagination reads page/limit/noPagination query parameters and clamps
// them: 1 ≤ page, 1 ≤ limit ≤ 100.
func ParsePagination(q url.Values) Pagination {
	p := Pagination{Page: 1, PerPage: DefaultPerPage}

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		if v > MaxPerPage {
			v = MaxPerPage
		}
		p.PerPage = v
	}
	if q.Get("noPagination") == "true" {
		p.NoPagination = true
	}
	return p
}

// LimitOffset returns the " LIMIT n OFFSET m" suffix, or "" when pagination
// is disabled.
func (p Pagination) LimitOffset() string {
	if p.NoPagination {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", p.PerPage, (p.Page-1)*p.PerPage)
}

// TotalPages computes the page count for a result set.
func (p Pagination) TotalPages(total int64) int {
	if p.NoPagination || p.PerPage == 0 {
		if total > 0 {
			return 1
		}
		return 0
	}
	pages := int(total) / p.PerPage
	if int(total)%p.PerPage > 0 {
		pages++
	}
	return pages
}
