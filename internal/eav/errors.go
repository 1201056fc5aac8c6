package eav

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Common storage-layer error kinds
var (
	// ErrInvalidArgument is returned when a required argument is nil or
	// zero. Caller bug, surfaced before any I/O.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMissingTypeMetadata is returned when a record type declares no
	// object-type id.
	ErrMissingTypeMetadata = errors.New("record type has no object-type id")

	// ErrInvalidEnumMapping is returned when an enumerated field value
	// cannot be matched against the attribute's declared option table.
	ErrInvalidEnumMapping = errors.New("invalid enum mapping")

	// ErrUnresolvableAttribute is returned when a declared attribute id
	// is present in a generic record under a different category than the
	// one the type declares.
	ErrUnresolvableAttribute = errors.New("attribute category mismatch")

	// ErrInvalidFilter is returned for a malformed filter specification,
	// such as an empty comparison value set.
	ErrInvalidFilter = errors.New("invalid filter specification")

	// ErrAttributeNotProjected is returned when a filter or sort
	// references an attribute id outside the query's selection.
	ErrAttributeNotProjected = errors.New("attribute not projected")

	// ErrReferentialIntegrity is returned when deleting an object that is
	// still the target of another object's reference attribute.
	ErrReferentialIntegrity = errors.New("object is still referenced")
)

// QueryError carries a database-reported failure together with the
// offending statement and its bound arguments for diagnostics.
type QueryError struct {
	Stmt string
	Args []any
	Err  error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %v\nstatement: %s", e.Err, e.Stmt)
}

// Unwrap returns the underlying database error.
func (e *QueryError) Unwrap() error { return e.Err }

// NewQueryError wraps a database error with its statement context.
func NewQueryError(stmt string, args []any, err error) *QueryError {
	return &QueryError{Stmt: stmt, Args: args, Err: err}
}

// ConvertDBError classifies driver errors into storage-layer kinds.
// PostgreSQL foreign-key violations map onto the referential-integrity
// rule so the same constraint reads identically whether it was caught by
// the delete guard or by the database itself.
func ConvertDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: %s", ErrReferentialIntegrity, pgErr.Detail)
		case "23505": // unique_violation
			return fmt.Errorf("object id already in use: %s", pgErr.Detail)
		}
	}

	return err
}

// IsInvalidArgument returns true if the error is ErrInvalidArgument.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsReferentialIntegrity returns true if the error is ErrReferentialIntegrity.
func IsReferentialIntegrity(err error) bool {
	return errors.Is(err, ErrReferentialIntegrity)
}

// IsQueryError reports whether err carries statement context and, if so,
// returns it.
func IsQueryError(err error) (*QueryError, bool) {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe, true
	}
	return nil, false
}
