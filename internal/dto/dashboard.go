package dto

import "github.com/smartasset/asset-api/internal/models"

// DashboardTotals aggregates the headline counts.
type DashboardTotals struct {
	AssetsTotal         int `json:"assets_total"`
	InventoryItemsTotal int `json:"inventory_items_total"`
	OpenTickets         int `json:"open_tickets"`
	AssignedAssets      int `json:"assigned_assets"`
}

// AssetStatusCount is one bucket of the grouped asset counts.
type AssetStatusCount struct {
	Status models.AssetStatus `db:"status" json:"status"`
	Count  int                `db:"count" json:"count"`
}

// DashboardResponse is the dashboard stats payload.
type DashboardResponse struct {
	Totals        DashboardTotals    `json:"totals"`
	AssetByStatus []AssetStatusCount `json:"asset_by_status"`
}

// RecentActivityResponse lists the newest tickets and assignments visible
// to the caller.
type RecentActivityResponse struct {
	Tickets     []models.TicketDetail     `json:"tickets"`
	Assignments []models.AssignmentDetail `json:"assignments"`
}
