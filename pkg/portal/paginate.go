package portal

// NewPage builds a response envelope for a window of items starting at
// offset. total is clamped so it never undercounts the returned items.
func NewPage[T any](items []T, total, limit, offset int) *Page[T] {
	if items == nil {
		items = []T{}
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	if total < len(items) {
		total = len(items)
	}
	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}
	return &Page[T]{
		Items:      items,
		Total:      total,
		Page:       offset/limit + 1,
		PageSize:   limit,
		TotalPages: totalPages,
	}
}

// Paginate slices an already filtered and sorted collection
func Paginate[T any](all []T, limit, offset int) *Page[T] {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	start := offset
	if start > len(all) {
		start = len(all)
	}
	end := start + min(limit, len(all)-start)
	window := make([]T, end-start)
	copy(window, all[start:end])
	return NewPage(window, len(all), limit, offset)
}

// PageNumber converts an offset into the 1-based page a page-numbered backend
// expects.
func PageNumber(limit, offset int) int {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	return offset/limit + 1
}
