package listing

// Pager computes the page controls of the report list.
type Pager struct {
	Total int
	Take  int
	Skip  int
}

const window = 5

func (p Pager) take() int {
	if p.Take <= 0 {
		return 10
	}
	return p.Take
}

// TotalPages is at least 1, even for an empty list.
func (p Pager) TotalPages() int {
	n := (p.Total + p.take() - 1) / p.take()
	if n < 1 {
		return 1
	}
	return n
}

// Current is the 1-based page Skip falls on.
func (p Pager) Current() int {
	if p.Skip <= 0 {
		return 1
	}
	return p.Skip/p.take() + 1
}

// Window returns up to five page numbers starting two before the current page.
func (p Pager) Window() []int {
	total := p.TotalPages()
	start := max(1, p.Current()-2)
	end := min(total, start+window-1)
	pages := make([]int, 0, window)
	for n := start; n <= end; n++ {
		pages = append(pages, n)
	}
	return pages
}

// Page returns the Skip of page n, clamped to the valid range.
func (p Pager) Page(n int) int {
	n = max(1, min(n, p.TotalPages()))
	return (n - 1) * p.take()
}

func (p Pager) HasPrev() bool { return p.Current() > 1 }

func (p Pager) HasNext() bool { return p.Current() < p.TotalPages() }
