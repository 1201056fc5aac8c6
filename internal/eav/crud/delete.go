package crud

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/Seliarn/nc2018team1/internal/eav"
)

// Delete removes the given record's stored object. See DeleteByID.
func (r *Repository[T]) Delete(ctx context.Context, rec *T) error {
	if rec == nil {
		return fmt.Errorf("%w: nil record", eav.ErrInvalidArgument)
	}
	return r.DeleteByID(ctx, r.desc.Header(rec).ObjectID)
}

// DeleteByID removes the object and all its attribute and reference
// rows. An object that is still the target of another object's
// reference attribute cannot be deleted. The reference check and the
// deletes run inside one serializable transaction, so a reference
// inserted concurrently cannot slip between the check and the delete.
func (r *Repository[T]) DeleteByID(ctx context.Context, objectID int64) error {
	if objectID <= 0 {
		return fmt.Errorf("%w: object id %d", eav.ErrInvalidArgument, objectID)
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	const countStmt = `SELECT COUNT(*) FROM object_references WHERE reference = $1`
	var inbound int64
	if err := tx.QueryRowContext(ctx, countStmt, objectID).Scan(&inbound); err != nil {
		return eav.NewQueryError(countStmt, []any{objectID}, eav.ConvertDBError(err))
	}
	if inbound > 0 {
		return fmt.Errorf("%w: object %d has %d inbound reference(s)",
			eav.ErrReferentialIntegrity, objectID, inbound)
	}

	for _, stmt := range []string{
		`DELETE FROM attributes WHERE object_id = $1`,
		`DELETE FROM date_attributes WHERE object_id = $1`,
		`DELETE FROM list_attributes WHERE object_id = $1`,
		`DELETE FROM object_references WHERE object_id = $1`,
		`DELETE FROM objects WHERE object_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, objectID); err != nil {
			return eav.NewQueryError(stmt, []any{objectID}, eav.ConvertDBError(err))
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}

	r.log.Info("deleted object",
		zap.String("type", r.desc.TypeName()),
		zap.Int64("object_id", objectID))
	return nil
}

// DeleteAll deletes each record in order. Not atomic as a batch: a
// failure partway leaves the prior deletions committed.
func (r *Repository[T]) DeleteAll(ctx context.Context, recs []*T) error {
	if recs == nil {
		return fmt.Errorf("%w: nil record list", eav.ErrInvalidArgument)
	}
	for _, rec := range recs {
		if rec == nil {
			continue
		}
		if err := r.Delete(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
