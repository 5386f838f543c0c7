package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartasset/asset-api/internal/models"
)

func newDashboardMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return sqlxDB, mock, func() { _ = sqlxDB.Close() }
}

func TestDashboardTotals(t *testing.T) {
	db, mock, cleanup := newDashboardMock(t)
	defer cleanup()
	repo := NewDashboardRepository(db)

	rows := sqlmock.NewRows([]string{"assets_total", "inventory_items_total", "open_tickets", "assigned_assets"}).
		AddRow(12, 5, 3, 7)
	mock.ExpectQuery("SELECT").
		WithArgs(models.TicketOpen, models.AssetAssigned).
		WillReturnRows(rows)

	totals, err := repo.Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, totals.AssetsTotal)
	assert.Equal(t, 5, totals.InventoryItemsTotal)
	assert.Equal(t, 3, totals.OpenTickets)
	assert.Equal(t, 7, totals.AssignedAssets)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardAssetByStatus(t *testing.T) {
	db, mock, cleanup := newDashboardMock(t)
	defer cleanup()
	repo := NewDashboardRepository(db)

	rows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow("ASSIGNED", 7).
		AddRow("AVAILABLE", 5)
	mock.ExpectQuery("SELECT status, COUNT").
		WillReturnRows(rows)

	counts, err := repo.AssetByStatus(context.Background())
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, models.AssetAssigned, counts[0].Status)
	assert.Equal(t, 7, counts[0].Count)

	assert.NoError(t, mock.ExpectationsWereMet())
}
