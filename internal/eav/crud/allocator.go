package crud

import (
	"context"
	"database/sql"

	"github.com/Seliarn/nc2018team1/internal/eav"
)

// allocateObjectIDStmt finds the smallest positive object id not
// currently in use: 1 when the table is empty or id 1 is free, otherwise
// the first gap in the sequence, or one past the maximum when there is
// no gap.
const allocateObjectIDStmt = `SELECT CASE
  WHEN NOT EXISTS (SELECT 1 FROM objects WHERE object_id = 1) THEN 1
  ELSE (SELECT MIN(o1.object_id + 1)
          FROM objects o1
          LEFT JOIN objects o2 ON o1.object_id + 1 = o2.object_id
         WHERE o2.object_id IS NULL)
END`

// allocateObjectID runs inside the caller's insert transaction; the
// transaction's isolation level is what keeps two concurrent inserts
// from claiming the same id.
func allocateObjectID(ctx context.Context, tx *sql.Tx) (int64, error) {
	var id int64
	if err := tx.QueryRowContext(ctx, allocateObjectIDStmt).Scan(&id); err != nil {
		return 0, eav.NewQueryError(allocateObjectIDStmt, nil, eav.ConvertDBError(err))
	}
	return id, nil
}
