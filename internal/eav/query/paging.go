package query

// Page is a zero-based page request. Size 0 compiles to an empty row
// window, which yields an empty result rather than an error. A negative
// Size (see Unbounded) compiles without a window at all.
type Page struct {
	Number int
	Size   int
}

// NewPage returns a page request for the given zero-based page number.
func NewPage(number, size int) Page {
	return Page{Number: number, Size: size}
}

// Unbounded returns a page that selects every row.
func Unbounded() Page {
	return Page{Size: -1}
}

// Bounded reports whether the page limits the result at all.
func (p Page) Bounded() bool {
	return p.Size >= 0
}

// Rows translates the page into the inclusive 1-based row window
// [first, last].
func (p Page) Rows() (first, last int) {
	first = p.Number*p.Size + 1
	last = (p.Number + 1) * p.Size
	return first, last
}

// wrapWindow nests the statement in a row-numbering wrapper selecting
// only the rows whose rank falls inside the page's window, in the order
// established by the inner statement.
func wrapWindow(inner *Fragment, p Page) *Fragment {
	first, last := p.Rows()
	f := &Fragment{}
	f.WriteString("SELECT * FROM (SELECT w.*, ROW_NUMBER() OVER () AS rnum FROM (")
	f.Append(inner)
	f.WriteString(") w) r WHERE r.rnum BETWEEN ")
	f.Arg(first)
	f.WriteString(" AND ")
	f.Arg(last)
	return f
}
