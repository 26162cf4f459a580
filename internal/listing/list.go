package listing

import "strings"

// DefaultPageSize is used when a list is created without a positive page size
const DefaultPageSize = 10

// FacetAll disables the facet filter
const FacetAll = "all"

// View is one rendered page of a list
type View[T any] struct {
	Items     []T    `json:"items"`
	Total     int    `json:"total"`
	Page      int    `json:"page"`
	PageCount int    `json:"pageCount"`
	PageSize  int    `json:"pageSize"`
	From      int    `json:"from"`
	To        int    `json:"to"`
	Window    Window `json:"window"`
}

// List holds the scoped search, facet and page state of one section.
// It is not safe for concurrent use; each view owns its own List.
type List[T any] struct {
	items  []T
	fields func(T) []string
	facet  func(T) string

	term     string
	facetVal string
	page     int
	size     int
}

// NewList creates a list searching the given fields
func NewList[T any](size int, fields func(T) []string) *List[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	return &List[T]{
		fields:   fields,
		size:     size,
		page:     1,
		facetVal: FacetAll,
	}
}

// WithFacet enables the status facet, keyed by the value facet returns for an item
func (l *List[T]) WithFacet(facet func(T) string) *List[T] {
	l.facet = facet
	return l
}

// SetItems replaces the source collection and keeps the current page in range
func (l *List[T]) SetItems(items []T) {
	l.items = items
	l.clamp()
}

// Items returns the unfiltered source collection
func (l *List[T]) Items() []T {
	return l.items
}

// Term returns the current search term
func (l *List[T]) Term() string {
	return l.term
}

// SetTerm changes the search term; a different term returns to page 1
func (l *List[T]) SetTerm(term string) {
	if term == l.term {
		return
	}
	l.term = term
	l.page = 1
}

// Facet returns the selected facet value, FacetAll when unset
func (l *List[T]) Facet() string {
	return l.facetVal
}

// SetFacet selects a facet value; "" and FacetAll clear it. A change returns to page 1.
func (l *List[T]) SetFacet(value string) {
	if value == "" {
		value = FacetAll
	}
	if value == l.facetVal {
		return
	}
	l.facetVal = value
	l.page = 1
}

// Page returns the current 1-based page
func (l *List[T]) Page() int {
	return l.page
}

// SetPage moves to page n, clamped to [1, max(pageCount, 1)]
func (l *List[T]) SetPage(n int) {
	l.page = n
	l.clamp()
}

// Next advances one page if there is one
func (l *List[T]) Next() {
	l.SetPage(l.page + 1)
}

// Prev goes back one page if there is one
func (l *List[T]) Prev() {
	l.SetPage(l.page - 1)
}

// Filtered returns the items matching the term and facet
func (l *List[T]) Filtered() []T {
	filtered := Filter(l.items, l.term, l.fields)
	if l.facet != nil && l.facetVal != FacetAll {
		want := strings.ToLower(l.facetVal)
		filtered = Where(filtered, func(item T) bool {
			return strings.ToLower(l.facet(item)) == want
		})
	}
	return filtered
}

// View renders the current page
func (l *List[T]) View() View[T] {
	filtered := l.Filtered()
	count := PageCount(len(filtered), l.size)
	from, to := DisplayRange(len(filtered), l.page, l.size)

	return View[T]{
		Items:     Page(filtered, l.page, l.size),
		Total:     len(filtered),
		Page:      l.page,
		PageCount: count,
		PageSize:  l.size,
		From:      from,
		To:        to,
		Window:    PageWindow(l.page, count),
	}
}

func (l *List[T]) clamp() {
	maxPage := PageCount(len(l.Filtered()), l.size)
	if maxPage < 1 {
		maxPage = 1
	}
	if l.page > maxPage {
		l.page = maxPage
	}
	if l.page < 1 {
		l.page = 1
	}
}
