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

func newAssetMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return sqlxDB, mock, func() { _ = sqlxDB.Close() }
}

func assetRows() *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "name", "type", "serial_number", "status", "purchase_date", "created_at", "updated_at"}).
		AddRow("asset-1", "Laptop", "laptop", "SN-1", "AVAILABLE", nil, now, now)
}

func TestAssetFindByID(t *testing.T) {
	db, mock, cleanup := newAssetMock(t)
	defer cleanup()
	repo := NewAssetRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, type, serial_number, status, purchase_date, created_at, updated_at FROM assets WHERE id = $1 LIMIT 1`)).
		WithArgs("asset-1").
		WillReturnRows(assetRows())

	asset, err := repo.FindByID(context.Background(), "asset-1")
	require.NoError(t, err)
	assert.Equal(t, "Laptop", asset.Name)
	assert.Equal(t, models.AssetAvailable, asset.Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssetListWithEmployeeScope(t *testing.T) {
	db, mock, cleanup := newAssetMock(t)
	defer cleanup()
	repo := NewAssetRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, type, serial_number, status, purchase_date, created_at, updated_at FROM assets WHERE 1=1 AND id IN (SELECT asset_id FROM assignments WHERE employee_id = $1 AND status <> 'RETURNED' AND date_returned IS NULL) ORDER BY created_at DESC`)).
		WithArgs("emp-1").
		WillReturnRows(assetRows())

	assets, err := repo.List(context.Background(), models.AssetFilter{EmployeeID: "emp-1"})
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "asset-1", assets[0].ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssetListWithSearchAndStatus(t *testing.T) {
	db, mock, cleanup := newAssetMock(t)
	defer cleanup()
	repo := NewAssetRepository(db)

	status := models.AssetAvailable
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, type, serial_number, status, purchase_date, created_at, updated_at FROM assets WHERE 1=1 AND (LOWER(name) LIKE $1 OR LOWER(serial_number) LIKE $1) AND status = $2 ORDER BY created_at DESC`)).
		WithArgs("%laptop%", status).
		WillReturnRows(assetRows())

	assets, err := repo.List(context.Background(), models.AssetFilter{Search: "Laptop", Status: &status})
	require.NoError(t, err)
	require.Len(t, assets, 1)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssetCreateStampsIDAndTimestamps(t *testing.T) {
	db, mock, cleanup := newAssetMock(t)
	defer cleanup()
	repo := NewAssetRepository(db)

	mock.ExpectExec("INSERT INTO assets").
		WillReturnResult(sqlmock.NewResult(0, 1))

	asset := &models.Asset{Name: "Monitor", Type: "monitor", SerialNumber: "MN-7", Status: models.AssetAvailable}
	err := repo.Create(context.Background(), asset)
	require.NoError(t, err)
	assert.NotEmpty(t, asset.ID)
	assert.False(t, asset.CreatedAt.IsZero())
	assert.False(t, asset.UpdatedAt.IsZero())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssetReferenceCount(t *testing.T) {
	db, mock, cleanup := newAssetMock(t)
	defer cleanup()
	repo := NewAssetRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT (SELECT COUNT(*) FROM assignments WHERE asset_id = $1) + (SELECT COUNT(*) FROM repair_tickets WHERE asset_id = $1)`)).
		WithArgs("asset-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.ReferenceCount(context.Background(), "asset-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssetDelete(t *testing.T) {
	db, mock, cleanup := newAssetMock(t)
	defer cleanup()
	repo := NewAssetRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM assets WHERE id = $1`)).
		WithArgs("asset-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "asset-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
