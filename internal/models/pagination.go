package models

import "math"

// maxOffset bounds the row offset so (page-1)*size never overflows and stays a valid OFFSET.
const maxOffset = math.MaxInt32

// Pagination describes an offset page.
type Pagination struct {
	Page        int  `json:"page"`
	PageSize    int  `json:"page_size"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"total_pages"`
	HasNextPage bool `json:"has_next_page"`
	HasPrevPage bool `json:"has_prev_page"`
}

// NewPagination derives page counts from the total.
func NewPagination(page, size, total int) *Pagination {
	totalPages := 0
	if size > 0 {
		totalPages = (total + size - 1) / size
	}
	return &Pagination{
		Page:        page,
		PageSize:    size,
		Total:       total,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}
}

// NormalizePage clamps page and size to sane bounds, falling back to defaultSize. Pages past
// the largest representable offset are pinned to it and simply come back empty.
func NormalizePage(page, size, defaultSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = defaultSize
	}
	if size > 0 && page-1 > maxOffset/size {
		page = maxOffset/size + 1
	}
	return page, size
}

// Offset returns the zero-based first row of the page. The inclusive last row is Offset+size-1.
func Offset(page, size int) int {
	return (page - 1) * size
}
