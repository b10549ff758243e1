package shared

import "math"

// ListFilters carries request-scoped search, sorting and paging parameters.
// Filter state is never persisted server-side; every query receives its own copy.
type ListFilters struct {
	Search  string
	SortBy  string
	SortDir string
	Page    int
	PerPage int
}

// Offset computes the row offset for the current page.
func (f ListFilters) Offset() int {
	page := f.Page
	if page <= 0 {
		page = 1
	}
	per := f.PerPage
	if per <= 0 {
		per = 20
	}
	return (page - 1) * per
}

// Limit returns the effective page size.
func (f ListFilters) Limit() int {
	if f.PerPage <= 0 {
		return 20
	}
	return f.PerPage
}

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}
