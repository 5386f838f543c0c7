package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/smartasset/asset-api/internal/service"
	appErrors "github.com/smartasset/asset-api/pkg/errors"
	"github.com/smartasset/asset-api/pkg/response"
)

// DashboardHandler exposes reporting endpoints.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Stats godoc
// @Summary Dashboard totals and asset status breakdown
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.dashboard.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// RecentActivity godoc
// @Summary Newest tickets and assignments visible to the caller
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max rows per collection" default(5)
// @Success 200 {object} response.Envelope
// @Router /recent-activity [get]
func (h *DashboardHandler) RecentActivity(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be an integer"))
			return
		}
		limit = parsed
	}

	activity, err := h.dashboard.RecentActivity(c.Request.Context(), actor, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activity, nil)
}
