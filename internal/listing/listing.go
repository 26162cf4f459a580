// Package listing implements the filter, paginate and page-window pipeline shared
// by every tabular section. It performs no I/O and never fails.
package listing

import "strings"

// WindowThreshold is the largest page count for which every page is a jump target
const WindowThreshold = 20

// Filter keeps the items for which any of the selected fields contains term,
// compared case-insensitively. Order is preserved; an empty term returns items unchanged.
func Filter[T any](items []T, term string, fields func(T) []string) []T {
	if term == "" || fields == nil {
		return items
	}

	needle := strings.ToLower(term)
	filtered := make([]T, 0, len(items))
	for _, item := range items {
		for _, field := range fields(item) {
			if strings.Contains(strings.ToLower(field), needle) {
				filtered = append(filtered, item)
				break
			}
		}
	}
	return filtered
}

// Where keeps the items satisfying keep. A nil predicate keeps everything.
func Where[T any](items []T, keep func(T) bool) []T {
	if keep == nil {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// PageCount returns ceil(count/size), never negative
func PageCount(count, size int) int {
	if count <= 0 || size <= 0 {
		return 0
	}
	return (count + size - 1) / size
}

// Page returns the n-th page (1-based) of filtered. Pages outside
// [1, PageCount] are empty.
func Page[T any](filtered []T, n, size int) []T {
	if n < 1 || size <= 0 {
		return []T{}
	}
	start := (n - 1) * size
	if start >= len(filtered) {
		return []T{}
	}
	end := start + size
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end]
}

// DisplayRange returns the 1-based "showing from to" bounds of page n.
// An empty result is reported as (0, 0).
func DisplayRange(count, n, size int) (from, to int) {
	if count <= 0 || n < 1 || size <= 0 {
		return 0, 0
	}
	start := (n - 1) * size
	if start >= count {
		return 0, 0
	}
	to = start + size
	if to > count {
		to = count
	}
	return start + 1, to
}

// Window describes the pagination controls for one page
type Window struct {
	Pages     []int `json:"pages"`
	Collapsed bool  `json:"collapsed"`
	HasPrev   bool  `json:"hasPrev"`
	HasNext   bool  `json:"hasNext"`
}

// PageWindow lists every page as a jump target up to WindowThreshold pages;
// beyond that the window collapses to prev/next only
func PageWindow(page, pageCount int) Window {
	w := Window{
		HasPrev: page > 1,
		HasNext: page < pageCount,
	}
	if pageCount > WindowThreshold {
		w.Collapsed = true
		return w
	}
	w.Pages = make([]int, pageCount)
	for i := range w.Pages {
		w.Pages[i] = i + 1
	}
	return w
}
