package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/smartasset/asset-api/internal/dto"
	"github.com/smartasset/asset-api/internal/models"
	appErrors "github.com/smartasset/asset-api/pkg/errors"
)

const dashboardStatsCacheKey = "dashboard:stats"

type dashboardRepository interface {
	Totals(ctx context.Context) (*dto.DashboardTotals, error)
	AssetByStatus(ctx context.Context) ([]dto.AssetStatusCount, error)
}

type assignmentLister interface {
	List(ctx context.Context, actor models.Actor, filter models.AssignmentFilter) ([]models.AssignmentDetail, error)
}

type ticketLister interface {
	List(ctx context.Context, actor models.Actor, filter models.TicketFilter) ([]models.TicketDetail, error)
}

// DashboardService aggregates read-only reporting queries. Stats are cached
// briefly; recent activity reuses the workflow list visibility rules.
type DashboardService struct {
	repo        dashboardRepository
	assignments assignmentLister
	tickets     ticketLister
	cache       *CacheService
	logger      *zap.Logger
	cacheTTL    time.Duration
	recentLimit int
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(repo dashboardRepository, assignments assignmentLister, tickets ticketLister, cache *CacheService, logger *zap.Logger, cacheTTL time.Duration, recentLimit int) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recentLimit <= 0 {
		recentLimit = 5
	}
	return &DashboardService{
		repo:        repo,
		assignments: assignments,
		tickets:     tickets,
		cache:       cache,
		logger:      logger,
		cacheTTL:    cacheTTL,
		recentLimit: recentLimit,
	}
}

// Stats returns the dashboard totals and per-status asset counts.
func (s *DashboardService) Stats(ctx context.Context) (*dto.DashboardResponse, error) {
	var cached dto.DashboardResponse
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, dashboardStatsCacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	totals, err := s.repo.Totals(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard totals")
	}
	byStatus, err := s.repo.AssetByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load asset status counts")
	}

	response := &dto.DashboardResponse{Totals: *totals, AssetByStatus: byStatus}
	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardStatsCacheKey, response, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache dashboard stats", zap.Error(err))
		}
	}
	return response, nil
}

// RecentActivity returns the newest tickets and assignments visible to the
// actor, capped at limit (falling back to the configured default).
func (s *DashboardService) RecentActivity(ctx context.Context, actor models.Actor, limit int) (*dto.RecentActivityResponse, error) {
	if limit <= 0 {
		limit = s.recentLimit
	}

	tickets, err := s.tickets.List(ctx, actor, models.TicketFilter{Limit: limit})
	if err != nil {
		return nil, err
	}
	assignments, err := s.assignments.List(ctx, actor, models.AssignmentFilter{Limit: limit})
	if err != nil {
		return nil, err
	}

	return &dto.RecentActivityResponse{Tickets: tickets, Assignments: assignments}, nil
}
