package shared

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Filter carries the paging, ordering and free-text search of list queries.
// Repositories check OrderBy against their own column whitelist.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
}

// DefaultFilter lists the newest rows first, one page of defaultPageSize
func DefaultFilter() Filter {
	return Filter{Page: 1, PageSize: defaultPageSize, OrderBy: "created_at", OrderDir: "desc"}
}

// Offset is the number of rows before the filter's page
func (f Filter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}

// Limit clamps the page size to [1, maxPageSize]; unset means defaultPageSize
func (f Filter) Limit() int {
	if f.PageSize <= 0 {
		return defaultPageSize
	}
	return min(f.PageSize, maxPageSize)
}

// Paginated is one page of a list query with the overall row count
type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginated wraps items; TotalPages rounds up
func NewPaginated[T any](items []T, total int64, page, pageSize int) Paginated[T] {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	size := int64(pageSize)
	return Paginated[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int((total + size - 1) / size),
	}
}
