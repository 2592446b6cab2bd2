// Package pagination computes the page-number window shown under lists.
package pagination

// Page is one link in the window.
type Page struct {
	Number  int
	Current bool
}

type Window struct {
	Pages     []Page
	Current   int
	Total     int
	HasPrev   bool
	HasNext   bool
	Prev      int
	Next      int
	ShowFirst bool
	ShowLast  bool
}

// Range returns at most visible page numbers centred on current. current is
// clamped into [1, total]; total below 1 is treated as a single page.
func Range(current, total, visible int) Window {
	if total < 1 {
		total = 1
	}
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}
	if visible < 1 {
		visible = 1
	}
	if visible > total {
		visible = total
	}

	start := current - visible/2
	if start < 1 {
		start = 1
	}
	end := start + visible - 1
	if end > total {
		end = total
		start = end - visible + 1
	}

	w := Window{
		Current:   current,
		Total:     total,
		HasPrev:   current > 1,
		HasNext:   current < total,
		Prev:      current - 1,
		Next:      current + 1,
		ShowFirst: start > 1,
		ShowLast:  end < total,
	}
	for n := start; n <= end; n++ {
		w.Pages = append(w.Pages, Page{Number: n, Current: n == current})
	}
	return w
}
