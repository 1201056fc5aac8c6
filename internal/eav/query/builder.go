package query

import (
	"fmt"

	"github.com/Seliarn/nc2018team1/internal/eav"
)

// Selection names the attribute ids to pivot into the result, one per
// output column, grouped by category. Each slice keeps the declaration
// order of the record type it was derived from; that order is the column
// order of the compiled statement.
type Selection struct {
	Values     []int64
	Dates      []int64
	Lists      []int64
	References []int64
}

// Contains reports whether the attribute id is part of the selection.
func (s Selection) Contains(attrID int64) bool {
	for _, group := range [][]int64{s.Values, s.Dates, s.Lists, s.References} {
		for _, id := range group {
			if id == attrID {
				return true
			}
		}
	}
	return false
}

// satellite describes where one attribute category is stored.
type satellite struct {
	ids    []int64
	table  string
	column string
}

func (s Selection) satellites() []satellite {
	return []satellite{
		{s.Values, "attributes", "value"},
		{s.Dates, "date_attributes", "date_value"},
		{s.Lists, "list_attributes", "list_value_id"},
		{s.References, "object_references", "reference"},
	}
}

// Builder compiles one pivoted, parameterized statement per call. The
// zero builder selects only the five general columns; constraints,
// filters, sorts, and paging are layered on before ToSQL.
type Builder struct {
	sel Selection

	objectID  *int64
	parentID  *int64
	typeID    *int64
	refTarget *int64

	filters []Filter
	sorts   []Sort

	page  Page
	paged bool
}

// NewBuilder creates a builder for the given selection.
func NewBuilder(sel Selection) *Builder {
	return &Builder{sel: sel}
}

// WhereObjectID constrains the base statement to a single object id.
func (b *Builder) WhereObjectID(id int64) *Builder {
	b.objectID = &id
	return b
}

// WhereParent constrains the base statement to children of one parent.
func (b *Builder) WhereParent(id int64) *Builder {
	b.parentID = &id
	return b
}

// WhereObjectType constrains the base statement to one object-type id.
func (b *Builder) WhereObjectType(id int64) *Builder {
	b.typeID = &id
	return b
}

// WhereReference keeps only objects holding target under any of the
// selection's reference attributes.
func (b *Builder) WhereReference(target int64) *Builder {
	b.refTarget = &target
	return b
}

// Filter adds membership filters over pivoted columns.
func (b *Builder) Filter(filters ...Filter) *Builder {
	b.filters = append(b.filters, filters...)
	return b
}

// Sort adds sort keys, composed left to right.
func (b *Builder) Sort(sorts ...Sort) *Builder {
	b.sorts = append(b.sorts, sorts...)
	return b
}

// Page applies a row window outermost.
func (b *Builder) Page(p Page) *Builder {
	b.page = p
	b.paged = true
	return b
}

// ToSQL compiles the full statement and its parameters.
func (b *Builder) ToSQL() (string, []any, error) {
	f, err := b.compile(false)
	if err != nil {
		return "", nil, err
	}
	stmt, args := f.Numbered()
	return stmt, args, nil
}

// ToCountSQL compiles the `SELECT COUNT(*)` variant over the same
// filtered derived table, without sorting or paging.
func (b *Builder) ToCountSQL() (string, []any, error) {
	f, err := b.compile(true)
	if err != nil {
		return "", nil, err
	}
	stmt, args := f.Numbered()
	return stmt, args, nil
}

func (b *Builder) compile(count bool) (*Fragment, error) {
	if b.refTarget != nil && len(b.sel.References) == 0 {
		return nil, fmt.Errorf("%w: reference constraint on a selection with no reference attributes",
			eav.ErrAttributeNotProjected)
	}

	where, err := buildWhere(b.sel, b.filters)
	if err != nil {
		return nil, err
	}
	var orderBy *Fragment
	if !count {
		orderBy, err = buildOrderBy(b.sel, b.sorts)
		if err != nil {
			return nil, err
		}
	}

	f := b.base()

	if count || where != nil || orderBy != nil || b.refTarget != nil {
		inner := f
		f = &Fragment{}
		if count {
			f.WriteString("SELECT COUNT(*) AS total FROM (")
		} else {
			f.WriteString("SELECT * FROM (")
		}
		f.Append(inner)
		f.WriteString(") q")

		wroteWhere := false
		if b.refTarget != nil {
			f.WriteString(" WHERE (")
			for i, id := range b.sel.References {
				if i > 0 {
					f.WriteString(" OR ")
				}
				f.Writef("%s = ", attrColumn(id))
				f.Arg(*b.refTarget)
			}
			f.WriteString(")")
			wroteWhere = true
		}
		if where != nil {
			if wroteWhere {
				f.WriteString(" AND ")
			} else {
				f.WriteString(" WHERE ")
			}
			f.Append(where)
		}
		if orderBy != nil {
			f.Append(orderBy)
		}
	}

	if !count && b.paged && b.page.Bounded() {
		f = wrapWindow(f, b.page)
	}
	return f, nil
}

// base emits the pivoted SELECT: the five general columns plus one
// joined satellite row per requested attribute id. Joins are LEFT so an
// object whose attribute row was never written still comes back, with
// NULL in that pivoted column. Zero requested ids in a category
// contribute no joins and no parameters.
func (b *Builder) base() *Fragment {
	f := &Fragment{}
	f.WriteString("SELECT o.object_id, o.parent_id, o.object_type_id, o.name, o.description")

	alias := 1
	for _, s := range b.sel.satellites() {
		for _, id := range s.ids {
			f.Writef(", a%d.%s AS %s", alias, s.column, attrColumn(id))
			alias++
		}
	}

	f.WriteString(" FROM objects o")

	alias = 1
	for _, s := range b.sel.satellites() {
		for _, id := range s.ids {
			f.Writef(" LEFT JOIN %s a%d ON a%d.attr_id = ", s.table, alias, alias)
			f.Arg(id)
			f.Writef(" AND a%d.object_id = o.object_id", alias)
			alias++
		}
	}

	conj := " WHERE "
	for _, c := range []struct {
		col string
		val *int64
	}{
		{"o.object_id", b.objectID},
		{"o.parent_id", b.parentID},
		{"o.object_type_id", b.typeID},
	} {
		if c.val == nil {
			continue
		}
		f.Writef("%s%s = ", conj, c.col)
		f.Arg(*c.val)
		conj = " AND "
	}
	return f
}
