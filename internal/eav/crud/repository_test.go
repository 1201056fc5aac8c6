package crud

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seliarn/nc2018team1/internal/eav"
	"github.com/Seliarn/nc2018team1/internal/eav/metadata"
	"github.com/Seliarn/nc2018team1/internal/eav/query"
)

// flight is the fixture record type; it covers all four attribute
// categories.
type flight struct {
	eav.Header
	Number     *string
	Departure  *time.Time
	Status     *string
	AirplaneID *int64
}

const (
	flightTypeID  = 7
	attrNumber    = 101
	attrDeparture = 102
	attrStatus    = 103
	attrAirplane  = 104
)

func flightDescriptor() *metadata.Descriptor[flight] {
	statuses := metadata.NewEnum(map[string]int64{"ON_TIME": 21, "DELAYED": 22})
	return metadata.NewDescriptor[flight]("Flight", flightTypeID, func(f *flight) *eav.Header { return &f.Header }).
		Value(attrNumber, "Number",
			func(f *flight) *string { return f.Number },
			func(f *flight, v *string) { f.Number = v }).
		Date(attrDeparture, "Departure",
			func(f *flight) *time.Time { return f.Departure },
			func(f *flight, v *time.Time) { f.Departure = v }).
		List(attrStatus, "Status", statuses,
			func(f *flight) *string { return f.Status },
			func(f *flight, v *string) { f.Status = v }).
		Reference(attrAirplane, "AirplaneID",
			func(f *flight) *int64 { return f.AirplaneID },
			func(f *flight, v *int64) { f.AirplaneID = v })
}

func newMockRepository(t *testing.T) (*Repository[flight], sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo, err := NewRepository(db, flightDescriptor(), nil)
	require.NoError(t, err)
	return repo, mock, func() { db.Close() }
}

func flightColumns() []string {
	return []string{"object_id", "parent_id", "object_type_id", "name", "description",
		"attr101", "attr102", "attr103", "attr104"}
}

func strPtr(s string) *string { return &s }
func intPtr(v int64) *int64   { return &v }

func TestNewRepositoryValidation(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = NewRepository[flight](nil, flightDescriptor(), nil)
	assert.ErrorIs(t, err, eav.ErrInvalidArgument)

	_, err = NewRepository[flight](db, nil, nil)
	assert.ErrorIs(t, err, eav.ErrInvalidArgument)

	bad := metadata.NewDescriptor[flight]("Flight", 0, func(f *flight) *eav.Header { return &f.Header })
	_, err = NewRepository(db, bad, nil)
	assert.ErrorIs(t, err, eav.ErrMissingTypeMetadata)
}

func TestFindByID(t *testing.T) {
	repo, mock, done := newMockRepository(t)
	defer done()

	dep := time.Date(2018, 11, 20, 14, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows(flightColumns()).
		AddRow(int64(12), int64(3), int64(flightTypeID), "Flight SU 1402", nil,
			"SU 1402", dep, int64(22), int64(55))

	mock.ExpectQuery(`SELECT o\.object_id, o\.parent_id, o\.object_type_id, o\.name, o\.description`).
		WithArgs(int64(attrNumber), int64(attrDeparture), int64(attrStatus), int64(attrAirplane), int64(12)).
		WillReturnRows(rows)

	rec, err := repo.FindByID(context.Background(), 12)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, int64(12), rec.ObjectID)
	require.NotNil(t, rec.ParentID)
	assert.Equal(t, int64(3), *rec.ParentID)
	require.NotNil(t, rec.Number)
	assert.Equal(t, "SU 1402", *rec.Number)
	require.NotNil(t, rec.Departure)
	assert.True(t, dep.Equal(*rec.Departure))
	require.NotNil(t, rec.Status)
	assert.Equal(t, "DELAYED", *rec.Status)
	require.NotNil(t, rec.AirplaneID)
	assert.Equal(t, int64(55), *rec.AirplaneID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDNotFound(t *testing.T) {
	repo, mock, done := newMockRepository(t)
	defer done()

	mock.ExpectQuery(`SELECT o\.object_id`).
		WillReturnRows(sqlmock.NewRows(flightColumns()))

	rec, err := repo.FindByID(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, rec)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDInvalidID(t *testing.T) {
	repo, _, done := newMockRepository(t)
	defer done()

	_, err := repo.FindByID(context.Background(), 0)
	assert.ErrorIs(t, err, eav.ErrInvalidArgument)
}

func TestFindByIDQueryFailure(t *testing.T) {
	repo, mock, done := newMockRepository(t)
	defer done()

	mock.ExpectQuery(`SELECT o\.object_id`).
		WillReturnError(assert.AnError)

	_, err := repo.FindByID(context.Background(), 12)
	require.Error(t, err)

	qe, ok := eav.IsQueryError(err)
	require.True(t, ok)
	assert.Contains(t, qe.Stmt, "FROM objects o")
	assert.NotEmpty(t, qe.Args)
}

func TestInsert(t *testing.T) {
	repo, mock, done := newMockRepository(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT CASE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectExec(`INSERT INTO objects \(object_id, parent_id, object_type_id, name, description\) VALUES \(\$1, \$2, \$3, \$4, \$5\)$`).
		WithArgs(int64(1), nil, int64(flightTypeID), nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO attributes`).
		WithArgs(int64(1), int64(attrNumber), "SU 1402").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO list_attributes`).
		WithArgs(int64(1), int64(attrStatus), int64(21)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Authoritative re-read after commit.
	mock.ExpectQuery(`SELECT o\.object_id`).
		WithArgs(int64(attrNumber), int64(attrDeparture), int64(attrStatus), int64(attrAirplane), int64(1)).
		WillReturnRows(sqlmock.NewRows(flightColumns()).
			AddRow(int64(1), nil, int64(flightTypeID), nil, nil, "SU 1402", nil, int64(21), nil))

	f := &flight{Number: strPtr("SU 1402"), Status: strPtr("ON_TIME")}
	saved, err := repo.Insert(context.Background(), f)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, int64(1), saved.ObjectID)
	require.NotNil(t, saved.Status)
	assert.Equal(t, "ON_TIME", *saved.Status)
	assert.Nil(t, saved.Departure)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertNilRecord(t *testing.T) {
	repo, _, done := newMockRepository(t)
	defer done()

	_, err := repo.Insert(context.Background(), nil)
	assert.ErrorIs(t, err, eav.ErrInvalidArgument)
}

func TestInsertRollsBackOnWriteFailure(t *testing.T) {
	repo, mock, done := newMockRepository(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT CASE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectExec(`INSERT INTO objects`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	f := &flight{Number: strPtr("SU 1402")}
	_, err := repo.Insert(context.Background(), f)
	require.Error(t, err)

	_, ok := eav.IsQueryError(err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate(t *testing.T) {
	repo, mock, done := newMockRepository(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO objects .* ON CONFLICT \(object_id\) DO UPDATE`).
		WithArgs(int64(12), nil, int64(flightTypeID), nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO attributes .* ON CONFLICT \(object_id, attr_id\) DO UPDATE`).
		WithArgs(int64(12), int64(attrNumber), "SU 1500").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery(`SELECT o\.object_id`).
		WillReturnRows(sqlmock.NewRows(flightColumns()).
			AddRow(int64(12), nil, int64(flightTypeID), nil, nil, "SU 1500", nil, nil, nil))

	f := &flight{Number: strPtr("SU 1500")}
	f.ObjectID = 12
	saved, err := repo.Update(context.Background(), f)
	require.NoError(t, err)
	require.NotNil(t, saved)
	require.NotNil(t, saved.Number)
	assert.Equal(t, "SU 1500", *saved.Number)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWithoutObjectID(t *testing.T) {
	repo, _, done := newMockRepository(t)
	defer done()

	_, err := repo.Update(context.Background(), &flight{Number: strPtr("SU 1500")})
	assert.ErrorIs(t, err, eav.ErrInvalidArgument)
}

func TestDeleteByID(t *testing.T) {
	repo, mock, done := newMockRepository(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM object_references WHERE reference = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))
	for _, table := range []string{"attributes", "date_attributes", "list_attributes", "object_references", "objects"} {
		mock.ExpectExec(`DELETE FROM ` + table + ` WHERE object_id = \$1`).
			WithArgs(int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteByID(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByIDGuard(t *testing.T) {
	repo, mock, done := newMockRepository(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM object_references`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(2)))
	mock.ExpectRollback()

	err := repo.DeleteByID(context.Background(), 5)
	require.Error(t, err)
	assert.True(t, eav.IsReferentialIntegrity(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteInvalidID(t *testing.T) {
	repo, _, done := newMockRepository(t)
	defer done()

	assert.ErrorIs(t, repo.DeleteByID(context.Background(), 0), eav.ErrInvalidArgument)
	assert.ErrorIs(t, repo.Delete(context.Background(), nil), eav.ErrInvalidArgument)
}

func TestCount(t *testing.T) {
	repo, mock, done := newMockRepository(t)
	defer done()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM objects WHERE object_type_id = \$1`).
		WithArgs(int64(flightTypeID)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(42)))

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountFiltered(t *testing.T) {
	repo, mock, done := newMockRepository(t)
	defer done()

	mock.ExpectQuery(`SELECT COUNT\(\*\) AS total FROM \(`).
		WithArgs(int64(attrNumber), int64(attrDeparture), int64(attrStatus), int64(attrAirplane),
			int64(flightTypeID), "SU 1402").
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(int64(3)))

	n, err := repo.CountFiltered(context.Background(), []query.Filter{
		{AttributeID: attrNumber, Values: []any{"SU 1402"}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountFilteredOutsideSelection(t *testing.T) {
	repo, _, done := newMockRepository(t)
	defer done()

	_, err := repo.CountFiltered(context.Background(), []query.Filter{
		{AttributeID: 999, Values: []any{1}},
	})
	assert.ErrorIs(t, err, eav.ErrAttributeNotProjected)
}

func TestExistsByID(t *testing.T) {
	repo, mock, done := newMockRepository(t)
	defer done()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(12)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByID(context.Background(), 12)
	require.NoError(t, err)
	assert.True(t, exists)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAllSkipsMissing(t *testing.T) {
	repo, mock, done := newMockRepository(t)
	defer done()

	mock.ExpectQuery(`SELECT o\.object_id`).
		WillReturnRows(sqlmock.NewRows(flightColumns()).
			AddRow(int64(1), nil, int64(flightTypeID), nil, nil, "SU 1402", nil, nil, nil))
	mock.ExpectQuery(`SELECT o\.object_id`).
		WillReturnRows(sqlmock.NewRows(flightColumns()))

	recs, err := repo.FindAll(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(1), recs[0].ObjectID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByReferencesRequiresFilters(t *testing.T) {
	repo, _, done := newMockRepository(t)
	defer done()

	_, err := repo.FindByReferences(context.Background(), nil)
	assert.ErrorIs(t, err, eav.ErrInvalidArgument)
}

func TestSaveAllStopsOnError(t *testing.T) {
	repo, mock, done := newMockRepository(t)
	defer done()

	// First record inserts cleanly.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT CASE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectExec(`INSERT INTO objects`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO attributes`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT o\.object_id`).
		WillReturnRows(sqlmock.NewRows(flightColumns()).
			AddRow(int64(1), nil, int64(flightTypeID), nil, nil, "A", nil, nil, nil))

	// Second record fails at the allocator.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT CASE`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	recs := []*flight{{Number: strPtr("A")}, {Number: strPtr("B")}}
	saved, err := repo.SaveAll(context.Background(), recs)
	require.Error(t, err)
	assert.Len(t, saved, 1)

	assert.NoError(t, mock.ExpectationsWereMet())
}
