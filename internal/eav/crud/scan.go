package crud

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/Seliarn/nc2018team1/internal/eav"
	"github.com/Seliarn/nc2018team1/internal/eav/query"
)

// scanMutables reads every result row of a pivoted statement into a
// generic record. Columns are resolved by their self-describing aliases
// (attr<id>), never by position, so wrapper columns such as the paging
// rank are ignored.
func scanMutables(rows *sql.Rows, sel query.Selection) ([]*eav.Mutable, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	colIndex := make(map[string]int, len(columns))
	for i, c := range columns {
		colIndex[c] = i
	}

	var mutables []*eav.Mutable
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		m, err := rowToMutable(values, colIndex, sel)
		if err != nil {
			return nil, err
		}
		mutables = append(mutables, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return mutables, nil
}

func rowToMutable(values []any, colIndex map[string]int, sel query.Selection) (*eav.Mutable, error) {
	m := eav.NewMutable()

	col := func(name string) (any, error) {
		i, ok := colIndex[name]
		if !ok {
			return nil, fmt.Errorf("result row has no column %q", name)
		}
		return values[i], nil
	}

	v, err := col("object_id")
	if err != nil {
		return nil, err
	}
	if m.ObjectID, err = asInt64(v); err != nil {
		return nil, fmt.Errorf("object_id: %w", err)
	}
	if v, err = col("parent_id"); err != nil {
		return nil, err
	}
	if v != nil {
		parent, err := asInt64(v)
		if err != nil {
			return nil, fmt.Errorf("parent_id: %w", err)
		}
		m.ParentID = &parent
	}
	if v, err = col("object_type_id"); err != nil {
		return nil, err
	}
	if m.ObjectTypeID, err = asInt64(v); err != nil {
		return nil, fmt.Errorf("object_type_id: %w", err)
	}
	if v, err = col("name"); err != nil {
		return nil, err
	}
	if v != nil {
		name := asString(v)
		m.Name = &name
	}
	if v, err = col("description"); err != nil {
		return nil, err
	}
	if v != nil {
		desc := asString(v)
		m.Description = &desc
	}

	for _, id := range sel.Values {
		v, err := col(attrColumn(id))
		if err != nil {
			return nil, err
		}
		if v != nil {
			m.Values[id] = asString(v)
		}
	}
	for _, id := range sel.Dates {
		v, err := col(attrColumn(id))
		if err != nil {
			return nil, err
		}
		if v == nil {
			continue
		}
		t, err := asTime(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %d: %w", id, err)
		}
		m.DateValues[id] = t
	}
	for _, id := range sel.Lists {
		v, err := col(attrColumn(id))
		if err != nil {
			return nil, err
		}
		if v == nil {
			continue
		}
		n, err := asInt64(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %d: %w", id, err)
		}
		m.ListValues[id] = n
	}
	for _, id := range sel.References {
		v, err := col(attrColumn(id))
		if err != nil {
			return nil, err
		}
		if v == nil {
			continue
		}
		n, err := asInt64(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %d: %w", id, err)
		}
		m.References[id] = n
	}
	return m, nil
}

func attrColumn(attrID int64) string {
	return fmt.Sprintf("attr%d", attrID)
}

// Drivers disagree on the Go types they hand back; the coercions below
// cover the PostgreSQL and SQLite drivers this engine runs against.

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func asInt64(v any) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int32:
		return int64(t), nil
	case float64:
		return int64(t), nil
	case []byte:
		return strconv.ParseInt(string(t), 10, 64)
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, fmt.Errorf("cannot read %T as integer", v)
	}
}

func asTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case []byte:
		return parseTime(string(t))
	case string:
		return parseTime(t)
	default:
		return time.Time{}, fmt.Errorf("cannot read %T as timestamp", v)
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
