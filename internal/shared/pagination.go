package shared

import (
	"math"
	"net/url"
	"strconv"
)

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, limit, total int) Pagination {
	if limit <= 0 {
		limit = 10
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

// Offset returns the row offset of the current page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// PageParams reads page and limit from a query string, clamping limit to max.
func PageParams(q url.Values, max int) (page, limit int) {
	page, _ = strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = 10
	}
	if max > 0 && limit > max {
		limit = max
	}
	return page, limit
}
