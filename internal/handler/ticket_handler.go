package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartasset/asset-api/internal/models"
	"github.com/smartasset/asset-api/internal/service"
	appErrors "github.com/smartasset/asset-api/pkg/errors"
	"github.com/smartasset/asset-api/pkg/response"
)

// TicketHandler exposes the repair ticket workflow endpoints.
type TicketHandler struct {
	tickets *service.TicketService
}

// NewTicketHandler constructs TicketHandler.
func NewTicketHandler(tickets *service.TicketService) *TicketHandler {
	return &TicketHandler{tickets: tickets}
}

// List godoc
// @Summary List tickets
// @Tags Tickets
// @Produce json
// @Security BearerAuth
// @Param employee query string false "Filter to tickets touching an employee (admin only)"
// @Success 200 {object} response.Envelope
// @Router /tickets [get]
func (h *TicketHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := models.TicketFilter{EmployeeID: c.Query("employee")}
	tickets, err := h.tickets.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tickets, nil)
}

// Get godoc
// @Summary Get ticket detail
// @Tags Tickets
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ticket ID"
// @Success 200 {object} response.Envelope
// @Router /tickets/{id} [get]
func (h *TicketHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	ticket, err := h.tickets.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ticket, nil)
}

// Create godoc
// @Summary Create ticket
// @Tags Tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateTicketRequest true "Ticket payload"
// @Success 201 {object} response.Envelope
// @Router /tickets [post]
func (h *TicketHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	ticket, err := h.tickets.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, ticket)
}

// Update godoc
// @Summary Update ticket
// @Tags Tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ticket ID"
// @Param payload body service.UpdateTicketRequest true "Ticket payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /tickets/{id} [patch]
func (h *TicketHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	ticket, err := h.tickets.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ticket, nil)
}

// MarkDone godoc
// @Summary Mark a ticket resolved
// @Tags Tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ticket ID"
// @Param payload body service.ResolutionRequest false "Optional note"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /tickets/{id}/mark-done [post]
func (h *TicketHandler) MarkDone(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.ResolutionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	ticket, err := h.tickets.MarkDone(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ticket, nil)
}

// ApproveClose godoc
// @Summary Approve and close a resolved ticket
// @Tags Tickets
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ticket ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /tickets/{id}/approve-close [post]
func (h *TicketHandler) ApproveClose(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	ticket, err := h.tickets.ApproveClose(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ticket, nil)
}
