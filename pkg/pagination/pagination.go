// Package pagination provides the two listing styles the API exposes:
// classic page/per_page offset pagination and keyset (cursor) pagination
// for collections that grow while being paged, such as refund histories.
package pagination

import "math"

const (
	defaultPageSize = 15
	maxPageSize     = 100
)

// PaginationParams are the offset-pagination inputs bound from the query string.
type PaginationParams struct {
	Page    int `form:"page" json:"page"`
	PerPage int `form:"per_page" json:"per_page"`
}

// Validate clamps page and per_page into their allowed ranges.
func (p *PaginationParams) Validate() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = defaultPageSize
	}
	if p.PerPage > maxPageSize {
		p.PerPage = maxPageSize
	}
}

// Offset is the SQL offset for the current page.
func (p *PaginationParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Pagination is the page metadata attached to offset-paginated responses.
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
}

// NewPagination derives the page metadata from a total row count.
func NewPagination(page, perPage int, total int64) *Pagination {
	pages := int(math.Ceil(float64(total) / float64(perPage)))
	return &Pagination{
		CurrentPage: page,
		PerPage:     perPage,
		Total:       total,
		TotalPages:  pages,
		HasNext:     page < pages,
		HasPrev:     page > 1,
	}
}

// PaginatedResult pairs a page of items with its metadata.
type PaginatedResult[T any] struct {
	Items      []T         `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

func NewPaginatedResult[T any](items []T, pagination *Pagination) *PaginatedResult[T] {
	return &PaginatedResult[T]{Items: items, Pagination: pagination}
}
