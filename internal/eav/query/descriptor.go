package query

import (
	"fmt"

	"github.com/Seliarn/nc2018team1/internal/eav"
)

// Filter restricts the result to rows whose pivoted attribute value is a
// member of Values. Multiple filters combine with AND. A filter may only
// reference an attribute id that is also part of the selection.
type Filter struct {
	AttributeID int64
	Values      []any
}

// Sort orders the result by one pivoted attribute or one general-info
// column. Multiple sorts compose left to right as primary/secondary
// keys. Without any sort the row order is database-defined.
type Sort struct {
	AttributeID int64  // pivoted attribute, when non-zero
	Column      string // general-info column, when AttributeID is zero
	Descending  bool
}

// generalColumns are the object-table columns a Sort may name directly.
var generalColumns = map[string]bool{
	"object_id":      true,
	"parent_id":      true,
	"object_type_id": true,
	"name":           true,
	"description":    true,
}

// attrColumn is the self-describing output alias of one pivoted
// attribute column.
func attrColumn(attrID int64) string {
	return fmt.Sprintf("attr%d", attrID)
}

// buildWhere compiles the filter descriptors into one AND-joined WHERE
// fragment over the pivoted column aliases. Returns nil when there is
// nothing to constrain.
func buildWhere(sel Selection, filters []Filter) (*Fragment, error) {
	if len(filters) == 0 {
		return nil, nil
	}
	f := &Fragment{}
	for i, flt := range filters {
		if len(flt.Values) == 0 {
			return nil, fmt.Errorf("%w: filter on attribute %d has no comparison values",
				eav.ErrInvalidFilter, flt.AttributeID)
		}
		if !sel.Contains(flt.AttributeID) {
			return nil, fmt.Errorf("%w: filter references attribute %d outside the selection",
				eav.ErrAttributeNotProjected, flt.AttributeID)
		}
		if i > 0 {
			f.WriteString(" AND ")
		}
		f.Writef("%s IN (", attrColumn(flt.AttributeID))
		for j, v := range flt.Values {
			if j > 0 {
				f.WriteString(", ")
			}
			f.Arg(v)
		}
		f.WriteString(")")
	}
	return f, nil
}

// buildOrderBy compiles the sort descriptors into one ORDER BY fragment.
// Returns nil when no sort is requested.
func buildOrderBy(sel Selection, sorts []Sort) (*Fragment, error) {
	if len(sorts) == 0 {
		return nil, nil
	}
	f := &Fragment{}
	f.WriteString(" ORDER BY ")
	for i, s := range sorts {
		if i > 0 {
			f.WriteString(", ")
		}
		switch {
		case s.AttributeID != 0:
			if !sel.Contains(s.AttributeID) {
				return nil, fmt.Errorf("%w: sort references attribute %d outside the selection",
					eav.ErrAttributeNotProjected, s.AttributeID)
			}
			f.WriteString(attrColumn(s.AttributeID))
		case generalColumns[s.Column]:
			f.WriteString(s.Column)
		default:
			return nil, fmt.Errorf("%w: unknown sort column %q", eav.ErrInvalidArgument, s.Column)
		}
		if s.Descending {
			f.WriteString(" DESC")
		} else {
			f.WriteString(" ASC")
		}
	}
	return f, nil
}
