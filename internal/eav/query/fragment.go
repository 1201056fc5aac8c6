// Package query compiles requested attribute sets into dynamically
// pivoted SQL: one join per attribute id against the matching satellite
// table, with filter, sort, and row-window paging composed around the
// pivoted result.
package query

import (
	"fmt"
	"strings"
)

// Fragment is a piece of SQL text carrying its own parameter list.
// Fragments are written with anonymous placeholders and concatenated
// freely; Numbered assigns positional `$n` markers once at the end, so
// no caller ever does placeholder index arithmetic.
type Fragment struct {
	buf  strings.Builder
	args []any
}

// WriteString appends raw SQL text.
func (f *Fragment) WriteString(s string) {
	f.buf.WriteString(s)
}

// Writef appends formatted SQL text.
func (f *Fragment) Writef(format string, a ...any) {
	fmt.Fprintf(&f.buf, format, a...)
}

// Arg appends one placeholder and binds its value.
func (f *Fragment) Arg(v any) {
	f.buf.WriteByte('?')
	f.args = append(f.args, v)
}

// Append concatenates another fragment, text and parameters alike.
func (f *Fragment) Append(o *Fragment) {
	f.buf.WriteString(o.buf.String())
	f.args = append(f.args, o.args...)
}

// Args returns the bound parameters in emission order.
func (f *Fragment) Args() []any {
	return f.args
}

// Numbered returns the statement with placeholders rewritten to
// positional `$1..$n` markers, plus the parameters in matching order.
func (f *Fragment) Numbered() (string, []any) {
	raw := f.buf.String()
	var out strings.Builder
	out.Grow(len(raw) + len(f.args)*2)
	n := 0
	for _, r := range raw {
		if r == '?' {
			n++
			fmt.Fprintf(&out, "$%d", n)
			continue
		}
		out.WriteRune(r)
	}
	return out.String(), f.args
}
