package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/smartasset/asset-api/internal/dto"
	"github.com/smartasset/asset-api/internal/models"
)

// DashboardRepository runs the read-only aggregation queries backing the
// dashboard endpoints.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository creates a new instance of DashboardRepository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Totals returns the headline counts.
func (r *DashboardRepository) Totals(ctx context.Context) (*dto.DashboardTotals, error) {
	const query = `SELECT
		(SELECT COUNT(*) FROM assets) AS assets_total,
		(SELECT COUNT(*) FROM inventory_items) AS inventory_items_total,
		(SELECT COUNT(*) FROM repair_tickets WHERE status = $1) AS open_tickets,
		(SELECT COUNT(*) FROM assets WHERE status = $2) AS assigned_assets`

	var totals struct {
		AssetsTotal         int `db:"assets_total"`
		InventoryItemsTotal int `db:"inventory_items_total"`
		OpenTickets         int `db:"open_tickets"`
		AssignedAssets      int `db:"assigned_assets"`
	}
	if err := r.db.GetContext(ctx, &totals, query, models.TicketOpen, models.AssetAssigned); err != nil {
		return nil, fmt.Errorf("dashboard totals: %w", err)
	}
	return &dto.DashboardTotals{
		AssetsTotal:         totals.AssetsTotal,
		InventoryItemsTotal: totals.InventoryItemsTotal,
		OpenTickets:         totals.OpenTickets,
		AssignedAssets:      totals.AssignedAssets,
	}, nil
}

// AssetByStatus returns asset counts grouped by status.
func (r *DashboardRepository) AssetByStatus(ctx context.Context) ([]dto.AssetStatusCount, error) {
	const query = `SELECT status, COUNT(*) AS count FROM assets GROUP BY status ORDER BY status`
	var counts []dto.AssetStatusCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("asset counts by status: %w", err)
	}
	return counts, nil
}
