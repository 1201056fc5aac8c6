// Package crud implements the repository layer of the EAV engine: it
// orchestrates metadata extraction, pivot query compilation, identifier
// allocation, and typed-record reconstruction into the find, insert,
// update, delete, and count operations the rest of the application uses
// to reach storage.
package crud

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/Seliarn/nc2018team1/internal/eav"
	"github.com/Seliarn/nc2018team1/internal/eav/metadata"
	"github.com/Seliarn/nc2018team1/internal/eav/query"
)

// Repository provides CRUD operations for one record type. It holds no
// state beyond its collaborators; every operation acquires and releases
// its own statement scope and is safe for concurrent use.
type Repository[T any] struct {
	db   *sql.DB
	desc *metadata.Descriptor[T]
	log  *zap.Logger
}

// NewRepository creates a repository for the record type described by
// desc. The descriptor is validated eagerly. A nil logger disables
// logging.
func NewRepository[T any](db *sql.DB, desc *metadata.Descriptor[T], logger *zap.Logger) (*Repository[T], error) {
	if db == nil {
		return nil, fmt.Errorf("%w: nil database handle", eav.ErrInvalidArgument)
	}
	if desc == nil {
		return nil, fmt.Errorf("%w: nil descriptor", eav.ErrInvalidArgument)
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository[T]{db: db, desc: desc, log: logger}, nil
}

// selection derives the full declared attribute set of T, in
// declaration order per category.
func (r *Repository[T]) selection() query.Selection {
	return query.Selection{
		Values:     r.desc.AttributeIDs(eav.CategoryValue),
		Dates:      r.desc.AttributeIDs(eav.CategoryDate),
		Lists:      r.desc.AttributeIDs(eav.CategoryList),
		References: r.desc.AttributeIDs(eav.CategoryReference),
	}
}

// materializeAll reconstructs one typed record per generic record.
func (r *Repository[T]) materializeAll(mutables []*eav.Mutable) ([]*T, error) {
	out := make([]*T, 0, len(mutables))
	for _, m := range mutables {
		rec := new(T)
		if err := r.desc.Materialize(m, rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
