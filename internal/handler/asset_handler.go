package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smartasset/asset-api/internal/models"
	"github.com/smartasset/asset-api/internal/service"
	appErrors "github.com/smartasset/asset-api/pkg/errors"
	"github.com/smartasset/asset-api/pkg/response"
)

// AssetHandler exposes asset registry endpoints.
type AssetHandler struct {
	assets *service.AssetService
}

// NewAssetHandler constructs AssetHandler.
func NewAssetHandler(assets *service.AssetService) *AssetHandler {
	return &AssetHandler{assets: assets}
}

func assetFilterFromQuery(c *gin.Context) models.AssetFilter {
	var filter models.AssetFilter
	filter.Search = strings.TrimSpace(c.Query("q"))
	if status := c.Query("status"); status != "" {
		s := models.AssetStatus(status)
		filter.Status = &s
	}
	filter.EmployeeID = c.Query("employee")
	return filter
}

// List godoc
// @Summary List assets
// @Tags Assets
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search by name or serial number"
// @Param status query string false "Filter by status"
// @Param employee query string false "Filter by assigned employee (admin only)"
// @Success 200 {object} response.Envelope
// @Router /assets [get]
func (h *AssetHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	assets, err := h.assets.List(c.Request.Context(), actor, assetFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assets, nil)
}

// Get godoc
// @Summary Get asset detail
// @Tags Assets
// @Produce json
// @Security BearerAuth
// @Param id path string true "Asset ID"
// @Success 200 {object} response.Envelope
// @Router /assets/{id} [get]
func (h *AssetHandler) Get(c *gin.Context) {
	asset, err := h.assets.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, asset, nil)
}

// Create godoc
// @Summary Register asset
// @Tags Assets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateAssetRequest true "Asset payload"
// @Success 201 {object} response.Envelope
// @Router /assets [post]
func (h *AssetHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	asset, err := h.assets.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, asset)
}

// Update godoc
// @Summary Update asset
// @Tags Assets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Asset ID"
// @Param payload body service.UpdateAssetRequest true "Asset payload"
// @Success 200 {object} response.Envelope
// @Router /assets/{id} [put]
func (h *AssetHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	asset, err := h.assets.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, asset, nil)
}

// Delete godoc
// @Summary Delete asset
// @Description Referenced assets are protected and report a conflict
// @Tags Assets
// @Produce json
// @Security BearerAuth
// @Param id path string true "Asset ID"
// @Success 204 "No Content"
// @Failure 409 {object} response.Envelope
// @Router /assets/{id} [delete]
func (h *AssetHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.assets.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export the asset register
// @Tags Assets
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf" default(csv)
// @Param q query string false "Search by name or serial number"
// @Param status query string false "Filter by status"
// @Success 200 {file} byte
// @Router /assets/export [get]
func (h *AssetHandler) Export(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	format := c.DefaultQuery("format", "csv")
	payload, contentType, err := h.assets.Export(c.Request.Context(), actor, assetFilterFromQuery(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("assets-%s.%s", time.Now().Format("20060102"), strings.ToLower(format))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}
