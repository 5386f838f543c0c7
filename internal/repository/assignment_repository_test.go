package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartasset/asset-api/internal/models"
)

func newAssignmentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return sqlxDB, mock, func() { _ = sqlxDB.Close() }
}

func TestAssignmentCreateSyncsAssetStatus(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO assignments").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE assets SET status = $2, updated_at = $3 WHERE id = $1`)).
		WithArgs("asset-1", models.AssetAssigned, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assignment := &models.Assignment{
		AssetID:      "asset-1",
		EmployeeID:   "emp-1",
		DateAssigned: time.Now().UTC(),
		Status:       models.AssignmentAssigned,
	}
	err := repo.Create(context.Background(), assignment)
	require.NoError(t, err)
	assert.NotEmpty(t, assignment.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentCreateRollsBackOnAssetFailure(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO assignments").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE assets SET status").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	assignment := &models.Assignment{
		AssetID:      "asset-1",
		EmployeeID:   "emp-1",
		DateAssigned: time.Now().UTC(),
		Status:       models.AssignmentAssigned,
	}
	err := repo.Create(context.Background(), assignment)
	require.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentUpdateWithoutAssetSync(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE assignments SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assignment := &models.Assignment{
		ID:           "as-1",
		AssetID:      "asset-1",
		EmployeeID:   "emp-1",
		DateAssigned: time.Now().UTC(),
		Status:       models.AssignmentReturnRequested,
	}
	err := repo.Update(context.Background(), assignment, nil)
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentUpdateSyncsAssetWhenReturned(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE assignments SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE assets SET status = $2, updated_at = $3 WHERE id = $1`)).
		WithArgs("asset-1", models.AssetAvailable, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	now := time.Now().UTC()
	assignment := &models.Assignment{
		ID:           "as-1",
		AssetID:      "asset-1",
		EmployeeID:   "emp-1",
		DateAssigned: now,
		DateReturned: &now,
		Status:       models.AssignmentReturned,
		ReturnedAt:   &now,
	}
	available := models.AssetAvailable
	err := repo.Update(context.Background(), assignment, &available)
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentListScopedToEmployee(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "asset_id", "employee_id", "date_assigned", "date_returned", "status", "return_requested_at", "return_note", "returned_at", "returned_by", "created_at", "updated_at"}).
		AddRow("as-1", "asset-1", "emp-1", now, nil, "ASSIGNED", nil, "", nil, nil, now, now)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, asset_id, employee_id, date_assigned, date_returned, status, return_requested_at, return_note, returned_at, returned_by, created_at, updated_at FROM assignments WHERE 1=1 AND employee_id = $1 ORDER BY date_assigned DESC, created_at DESC`)).
		WithArgs("emp-1").
		WillReturnRows(rows)

	assignments, err := repo.List(context.Background(), models.AssignmentFilter{EmployeeID: "emp-1"})
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, models.AssignmentAssigned, assignments[0].Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}
