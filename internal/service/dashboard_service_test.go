package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartasset/asset-api/internal/dto"
	"github.com/smartasset/asset-api/internal/models"
)

type mockDashboardRepo struct {
	totalsCalls int
}

func (m *mockDashboardRepo) Totals(ctx context.Context) (*dto.DashboardTotals, error) {
	m.totalsCalls++
	return &dto.DashboardTotals{AssetsTotal: 12, InventoryItemsTotal: 5, OpenTickets: 3, AssignedAssets: 7}, nil
}

func (m *mockDashboardRepo) AssetByStatus(ctx context.Context) ([]dto.AssetStatusCount, error) {
	return []dto.AssetStatusCount{
		{Status: models.AssetAssigned, Count: 7},
		{Status: models.AssetAvailable, Count: 5},
	}, nil
}

type mockAssignmentLister struct {
	lastFilter models.AssignmentFilter
	lastActor  models.Actor
}

func (m *mockAssignmentLister) List(ctx context.Context, actor models.Actor, filter models.AssignmentFilter) ([]models.AssignmentDetail, error) {
	m.lastActor = actor
	m.lastFilter = filter
	return []models.AssignmentDetail{{Assignment: models.Assignment{ID: "as-1"}}}, nil
}

type mockTicketLister struct {
	lastFilter models.TicketFilter
}

func (m *mockTicketLister) List(ctx context.Context, actor models.Actor, filter models.TicketFilter) ([]models.TicketDetail, error) {
	m.lastFilter = filter
	return []models.TicketDetail{{RepairTicket: models.RepairTicket{ID: "tk-1"}}}, nil
}

func TestDashboardStats(t *testing.T) {
	repo := &mockDashboardRepo{}
	svc := NewDashboardService(repo, &mockAssignmentLister{}, &mockTicketLister{}, nil, nil, 0, 0)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, stats.Totals.AssetsTotal)
	assert.Equal(t, 3, stats.Totals.OpenTickets)
	require.Len(t, stats.AssetByStatus, 2)
	assert.Equal(t, models.AssetAssigned, stats.AssetByStatus[0].Status)
	assert.Equal(t, 1, repo.totalsCalls)
}

func TestRecentActivityDefaultsLimit(t *testing.T) {
	assignments := &mockAssignmentLister{}
	tickets := &mockTicketLister{}
	svc := NewDashboardService(&mockDashboardRepo{}, assignments, tickets, nil, nil, 0, 0)

	activity, err := svc.RecentActivity(context.Background(), employeeActor, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, assignments.lastFilter.Limit)
	assert.Equal(t, 5, tickets.lastFilter.Limit)
	assert.Equal(t, employeeActor, assignments.lastActor)
	require.Len(t, activity.Tickets, 1)
	require.Len(t, activity.Assignments, 1)

	_, err = svc.RecentActivity(context.Background(), employeeActor, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, assignments.lastFilter.Limit)
}
