package domain

// PageSlice describes one rendered slice of a paginated list.
type PageSlice[T any] struct {
	Items   []T
	Index   int
	Last    int
	Total   int
	HasPrev bool
	HasNext bool
}

// Paginate slices items for one page of size pageSize. An out-of-range page
// index is clamped to the nearest boundary at render time; stored indices are
// left alone. An empty list yields a single empty page.
//
// Every paginated view shares this function so the boundary rules cannot
// drift between renderers.
func Paginate[T any](items []T, pageIndex, pageSize int) PageSlice[T] {
	if pageSize <= 0 {
		pageSize = 1
	}
	last := 0
	if len(items) > 0 {
		last = (len(items) - 1) / pageSize
	}
	if pageIndex < 0 {
		pageIndex = 0
	}
	if pageIndex > last {
		pageIndex = last
	}
	start := pageIndex * pageSize
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return PageSlice[T]{
		Items:   items[start:end],
		Index:   pageIndex,
		Last:    last,
		Total:   len(items),
		HasPrev: pageIndex > 0,
		HasNext: end < len(items),
	}
}
