package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartasset/asset-api/internal/service"
	appErrors "github.com/smartasset/asset-api/pkg/errors"
	"github.com/smartasset/asset-api/pkg/response"
)

// InventoryHandler exposes inventory registry endpoints.
type InventoryHandler struct {
	inventory *service.InventoryService
}

// NewInventoryHandler constructs InventoryHandler.
func NewInventoryHandler(inventory *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventory: inventory}
}

// List godoc
// @Summary List inventory items
// @Tags Inventory
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /inventory [get]
func (h *InventoryHandler) List(c *gin.Context) {
	items, err := h.inventory.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get inventory item
// @Tags Inventory
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Router /inventory/{id} [get]
func (h *InventoryHandler) Get(c *gin.Context) {
	item, err := h.inventory.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create inventory item
// @Tags Inventory
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.InventoryItemRequest true "Item payload"
// @Success 201 {object} response.Envelope
// @Router /inventory [post]
func (h *InventoryHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.InventoryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.inventory.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update inventory item
// @Tags Inventory
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Param payload body service.InventoryItemRequest true "Item payload"
// @Success 200 {object} response.Envelope
// @Router /inventory/{id} [put]
func (h *InventoryHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.InventoryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.inventory.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete inventory item
// @Tags Inventory
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Success 204 "No Content"
// @Router /inventory/{id} [delete]
func (h *InventoryHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.inventory.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
