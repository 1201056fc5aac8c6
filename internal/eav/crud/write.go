package crud

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Seliarn/nc2018team1/internal/eav"
)

// Insert stores a new record: it allocates the lowest unused object id,
// extracts the record's attributes, and writes them as fresh rows, all
// inside one serializable transaction so a concurrent insert cannot
// claim the same id. The returned instance is re-read from storage and
// is authoritative.
func (r *Repository[T]) Insert(ctx context.Context, rec *T) (*T, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: nil record", eav.ErrInvalidArgument)
	}
	m, err := r.desc.Extract(rec)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("begin insert transaction: %w", err)
	}
	defer tx.Rollback()

	id, err := allocateObjectID(ctx, tx)
	if err != nil {
		return nil, err
	}
	m.ObjectID = id

	if err := insertMutable(ctx, tx, m); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert: %w", err)
	}

	r.log.Info("inserted object",
		zap.String("type", r.desc.TypeName()),
		zap.Int64("object_id", id))
	return r.FindByID(ctx, id)
}

// Update writes an already-identified record: the object row and every
// present attribute are upserted. Attributes the record leaves nil stay
// untouched in storage; clearing a stored attribute is not expressible
// through Update. The returned instance is re-read from storage and is
// authoritative; the input may be stale afterward.
func (r *Repository[T]) Update(ctx context.Context, rec *T) (*T, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: nil record", eav.ErrInvalidArgument)
	}
	if r.desc.Header(rec).ObjectID <= 0 {
		return nil, fmt.Errorf("%w: record has no object id", eav.ErrInvalidArgument)
	}
	m, err := r.desc.Extract(rec)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertMutable(ctx, tx, m); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}

	r.log.Info("updated object",
		zap.String("type", r.desc.TypeName()),
		zap.Int64("object_id", m.ObjectID))
	return r.FindByID(ctx, m.ObjectID)
}

// SaveAll inserts or updates each record in order, choosing Insert for
// records without an object id. Not atomic as a batch: a failure
// partway leaves prior writes committed.
func (r *Repository[T]) SaveAll(ctx context.Context, recs []*T) ([]*T, error) {
	if recs == nil {
		return nil, fmt.Errorf("%w: nil record list", eav.ErrInvalidArgument)
	}
	saved := make([]*T, 0, len(recs))
	for _, rec := range recs {
		if rec == nil {
			continue
		}
		var (
			out *T
			err error
		)
		if r.desc.Header(rec).ObjectID > 0 {
			out, err = r.Update(ctx, rec)
		} else {
			out, err = r.Insert(ctx, rec)
		}
		if err != nil {
			return saved, err
		}
		saved = append(saved, out)
	}
	return saved, nil
}

const (
	insertObjectStmt = `INSERT INTO objects (object_id, parent_id, object_type_id, name, description) VALUES ($1, $2, $3, $4, $5)`
	upsertObjectStmt = insertObjectStmt + ` ON CONFLICT (object_id) DO UPDATE SET parent_id = excluded.parent_id, object_type_id = excluded.object_type_id, name = excluded.name, description = excluded.description`

	attrInsert = `INSERT INTO %s (object_id, attr_id, %s) VALUES ($1, $2, $3)`
	attrUpsert = attrInsert + ` ON CONFLICT (object_id, attr_id) DO UPDATE SET %[2]s = excluded.%[2]s`
)

// insertMutable writes a brand-new object. Plain INSERTs: an id
// collision surfaces as a constraint violation instead of silently
// updating an existing row.
func insertMutable(ctx context.Context, tx *sql.Tx, m *eav.Mutable) error {
	return writeMutable(ctx, tx, m, insertObjectStmt, attrInsert)
}

// upsertMutable writes an existing object, updating whichever attribute
// rows already exist and inserting the rest.
func upsertMutable(ctx context.Context, tx *sql.Tx, m *eav.Mutable) error {
	return writeMutable(ctx, tx, m, upsertObjectStmt, attrUpsert)
}

func writeMutable(ctx context.Context, tx *sql.Tx, m *eav.Mutable, objectStmt, attrFormat string) error {
	var parent, name, desc any
	if m.ParentID != nil {
		parent = *m.ParentID
	}
	if m.Name != nil {
		name = *m.Name
	}
	if m.Description != nil {
		desc = *m.Description
	}
	args := []any{m.ObjectID, parent, m.ObjectTypeID, name, desc}
	if _, err := tx.ExecContext(ctx, objectStmt, args...); err != nil {
		return eav.NewQueryError(objectStmt, args, eav.ConvertDBError(err))
	}

	writeGroup := func(table, column string, entries func(yield func(attrID int64, value any))) error {
		stmt := fmt.Sprintf(attrFormat, table, column)
		var wErr error
		entries(func(attrID int64, value any) {
			if wErr != nil {
				return
			}
			args := []any{m.ObjectID, attrID, value}
			if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
				wErr = eav.NewQueryError(stmt, args, eav.ConvertDBError(err))
			}
		})
		return wErr
	}

	if err := writeGroup("attributes", "value", func(yield func(int64, any)) {
		for _, id := range sortedKeys(m.Values) {
			yield(id, m.Values[id])
		}
	}); err != nil {
		return err
	}
	if err := writeGroup("date_attributes", "date_value", func(yield func(int64, any)) {
		for _, id := range sortedKeys(m.DateValues) {
			yield(id, m.DateValues[id])
		}
	}); err != nil {
		return err
	}
	if err := writeGroup("list_attributes", "list_value_id", func(yield func(int64, any)) {
		for _, id := range sortedKeys(m.ListValues) {
			yield(id, m.ListValues[id])
		}
	}); err != nil {
		return err
	}
	return writeGroup("object_references", "reference", func(yield func(int64, any)) {
		for _, id := range sortedKeys(m.References) {
			yield(id, m.References[id])
		}
	})
}

// sortedKeys fixes the satellite write order so statement sequences are
// deterministic.
func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
