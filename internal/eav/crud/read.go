package crud

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Seliarn/nc2018team1/internal/eav"
	"github.com/Seliarn/nc2018team1/internal/eav/query"
)

// FindByID loads the object with the given id, selecting exactly the
// attribute ids the record type declares. Returns (nil, nil) when no
// matching object exists.
func (r *Repository[T]) FindByID(ctx context.Context, objectID int64) (*T, error) {
	if objectID <= 0 {
		return nil, fmt.Errorf("%w: object id %d", eav.ErrInvalidArgument, objectID)
	}

	b := query.NewBuilder(r.selection()).WhereObjectID(objectID)
	mutables, err := r.queryMutables(ctx, b)
	if err != nil {
		return nil, err
	}
	if len(mutables) == 0 {
		return nil, nil
	}
	rec := new(T)
	if err := r.desc.Materialize(mutables[0], rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// FindAll loads the objects with the given ids, skipping ids that do
// not exist.
func (r *Repository[T]) FindAll(ctx context.Context, objectIDs []int64) ([]*T, error) {
	if objectIDs == nil {
		return nil, fmt.Errorf("%w: nil id list", eav.ErrInvalidArgument)
	}
	out := make([]*T, 0, len(objectIDs))
	for _, id := range objectIDs {
		rec, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			out = append(out, rec)
		}
	}
	return out, nil
}

// FindSlice returns one page of records of this type, in
// database-defined order.
func (r *Repository[T]) FindSlice(ctx context.Context, page query.Page) ([]*T, error) {
	return r.FindSliceFiltered(ctx, page, nil, nil)
}

// FindSliceFiltered returns one page of records matching the filters,
// ordered by the sort keys.
func (r *Repository[T]) FindSliceFiltered(ctx context.Context, page query.Page, sortBy []query.Sort, filterBy []query.Filter) ([]*T, error) {
	b := query.NewBuilder(r.selection()).
		WhereObjectType(r.desc.ObjectTypeID()).
		Filter(filterBy...).
		Sort(sortBy...).
		Page(page)

	mutables, err := r.queryMutables(ctx, b)
	if err != nil {
		return nil, err
	}
	return r.materializeAll(mutables)
}

// FindChildren returns one page of records whose parent id matches.
func (r *Repository[T]) FindChildren(ctx context.Context, parentID int64, page query.Page) ([]*T, error) {
	return r.FindChildrenFiltered(ctx, parentID, page, nil, nil)
}

// FindChildrenFiltered is FindChildren with sort and filter criteria.
func (r *Repository[T]) FindChildrenFiltered(ctx context.Context, parentID int64, page query.Page, sortBy []query.Sort, filterBy []query.Filter) ([]*T, error) {
	if parentID <= 0 {
		return nil, fmt.Errorf("%w: parent id %d", eav.ErrInvalidArgument, parentID)
	}

	b := query.NewBuilder(r.selection()).
		WhereParent(parentID).
		WhereObjectType(r.desc.ObjectTypeID()).
		Filter(filterBy...).
		Sort(sortBy...).
		Page(page)

	mutables, err := r.queryMutables(ctx, b)
	if err != nil {
		return nil, err
	}
	return r.materializeAll(mutables)
}

// FindByReference returns every record of this type holding refID under
// any of its declared reference attributes.
func (r *Repository[T]) FindByReference(ctx context.Context, refID int64) ([]*T, error) {
	if refID <= 0 {
		return nil, fmt.Errorf("%w: reference id %d", eav.ErrInvalidArgument, refID)
	}

	b := query.NewBuilder(r.selection()).
		WhereObjectType(r.desc.ObjectTypeID()).
		WhereReference(refID)

	mutables, err := r.queryMutables(ctx, b)
	if err != nil {
		return nil, err
	}
	return r.materializeAll(mutables)
}

// FindOneByReference returns the first record of this type holding
// refID under a reference attribute, or (nil, nil) when there is none.
func (r *Repository[T]) FindOneByReference(ctx context.Context, refID int64) (*T, error) {
	recs, err := r.FindByReference(ctx, refID)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return recs[0], nil
}

// FindByReferences returns every record of this type matching all the
// given reference filters.
func (r *Repository[T]) FindByReferences(ctx context.Context, filterBy []query.Filter) ([]*T, error) {
	if len(filterBy) == 0 {
		return nil, fmt.Errorf("%w: no reference filters", eav.ErrInvalidArgument)
	}

	b := query.NewBuilder(r.selection()).
		WhereObjectType(r.desc.ObjectTypeID()).
		Filter(filterBy...)

	mutables, err := r.queryMutables(ctx, b)
	if err != nil {
		return nil, err
	}
	return r.materializeAll(mutables)
}

// Count returns the number of stored records of this type.
func (r *Repository[T]) Count(ctx context.Context) (int64, error) {
	const stmt = `SELECT COUNT(*) FROM objects WHERE object_type_id = $1`
	var n int64
	if err := r.db.QueryRowContext(ctx, stmt, r.desc.ObjectTypeID()).Scan(&n); err != nil {
		return 0, r.queryFailed(stmt, []any{r.desc.ObjectTypeID()}, err)
	}
	return n, nil
}

// CountFiltered returns the cardinality of the same logical query
// FindSliceFiltered runs, without materializing rows.
func (r *Repository[T]) CountFiltered(ctx context.Context, filterBy []query.Filter) (int64, error) {
	b := query.NewBuilder(r.selection()).
		WhereObjectType(r.desc.ObjectTypeID()).
		Filter(filterBy...)

	stmt, args, err := b.ToCountSQL()
	if err != nil {
		return 0, err
	}
	var n int64
	if err := r.db.QueryRowContext(ctx, stmt, args...).Scan(&n); err != nil {
		return 0, r.queryFailed(stmt, args, err)
	}
	return n, nil
}

// ExistsByID reports whether an object with the given id is stored,
// regardless of type.
func (r *Repository[T]) ExistsByID(ctx context.Context, objectID int64) (bool, error) {
	if objectID <= 0 {
		return false, fmt.Errorf("%w: object id %d", eav.ErrInvalidArgument, objectID)
	}
	const stmt = `SELECT EXISTS(SELECT 1 FROM objects WHERE object_id = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, stmt, objectID).Scan(&exists); err != nil {
		return false, r.queryFailed(stmt, []any{objectID}, err)
	}
	return exists, nil
}

// queryMutables compiles and executes one pivoted statement and scans
// the result rows into generic records.
func (r *Repository[T]) queryMutables(ctx context.Context, b *query.Builder) ([]*eav.Mutable, error) {
	stmt, args, err := b.ToSQL()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, r.queryFailed(stmt, args, err)
	}
	defer rows.Close()

	mutables, err := scanMutables(rows, r.selection())
	if err != nil {
		return nil, r.queryFailed(stmt, args, err)
	}
	return mutables, nil
}

func (r *Repository[T]) queryFailed(stmt string, args []any, err error) error {
	err = eav.ConvertDBError(err)
	r.log.Error("statement failed",
		zap.String("type", r.desc.TypeName()),
		zap.String("statement", stmt),
		zap.Error(err))
	return eav.NewQueryError(stmt, args, err)
}
