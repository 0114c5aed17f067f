// Package paginate provides LIMIT/OFFSET pagination with an elided page
// range for rendering pager controls. Long ranges collapse to the pages
// around the current one plus the first and last few, separated by an
// ellipsis marker.
package paginate

// Ellipsis is the marker emitted in an elided range where pages were
// skipped. Templates render it as a literal.
const Ellipsis = -1

const (
	onEachSide = 2
	onEnds     = 2
)

// Page describes one page of a listing.
type Page struct {
	Number   int // 1-based page number
	Size     int // items per page
	Total    int // total item count
	NumPages int // total page count, at least 1
}

// New clamps number into [1, numPages] and returns the page descriptor.
func New(number, size, total int) Page {
	if size < 1 {
		size = 1
	}
	numPages := (total + size - 1) / size
	if numPages < 1 {
		numPages = 1
	}
	if number < 1 {
		number = 1
	}
	if number > numPages {
		number = numPages
	}
	return Page{Number: number, Size: size, Total: total, NumPages: numPages}
}

// Offset returns the query offset for this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// HasPrev reports whether a previous page exists.
func (p Page) HasPrev() bool { return p.Number > 1 }

// HasNext reports whether a next page exists.
func (p Page) HasNext() bool { return p.Number < p.NumPages }

// Prev returns the previous page number, clamped to 1.
func (p Page) Prev() int {
	if p.Number <= 1 {
		return 1
	}
	return p.Number - 1
}

// Next returns the next page number, clamped to the last page.
func (p Page) Next() int {
	if p.Number >= p.NumPages {
		return p.NumPages
	}
	return p.Number + 1
}

// ElidedRange returns the page numbers to render in the pager, with
// Ellipsis standing in for skipped runs. Short ranges come back whole;
// long ones keep 2 pages around the current number and 2 at each end.
func (p Page) ElidedRange() []int {
	// If the whole range fits without saving at least one slot per
	// ellipsis, return it unelided.
	if p.NumPages <= (onEachSide+onEnds)*2+3 {
		pages := make([]int, p.NumPages)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages
	}

	var pages []int

	if p.Number > onEachSide+onEnds+1 {
		for i := 1; i <= onEnds; i++ {
			pages = append(pages, i)
		}
		pages = append(pages, Ellipsis)
		for i := p.Number - onEachSide; i <= p.Number; i++ {
			pages = append(pages, i)
		}
	} else {
		for i := 1; i <= p.Number; i++ {
			pages = append(pages, i)
		}
	}

	if p.Number < p.NumPages-onEachSide-onEnds {
		for i := p.Number + 1; i <= p.Number+onEachSide; i++ {
			pages = append(pages, i)
		}
		pages = append(pages, Ellipsis)
		for i := p.NumPages - onEnds + 1; i <= p.NumPages; i++ {
			pages = append(pages, i)
		}
	} else {
		for i := p.Number + 1; i <= p.NumPages; i++ {
			pages = append(pages, i)
		}
	}

	return pages
}
