package search

import (
	"math"
	"net/url"
	"strconv"
)

// Page is a 1-based page of fixed size.
type Page struct {
	Number int
	Size   int
}

// ParsePage reads ?page=N. Missing or invalid values mean the first page.
func ParsePage(q url.Values, size int) Page {
	n, err := strconv.Atoi(q.Get("page"))
	if err != nil || n < 1 {
		n = 1
	}
	if size <= 0 {
		size = 10
	}
	// keep (n-1)*size inside int; such a page is past the end anyway
	if n > math.MaxInt32/size {
		n = math.MaxInt32 / size
	}
	return Page{Number: n, Size: size}
}

func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// Slice cuts the page out of an already filtered and ordered list.
func Slice[T any](items []T, p Page) []T {
	start := p.Offset()
	if start < 0 || start >= len(items) {
		return []T{}
	}
	end := start + p.Size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
