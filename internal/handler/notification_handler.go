package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartasset/asset-api/internal/service"
	appErrors "github.com/smartasset/asset-api/pkg/errors"
	"github.com/smartasset/asset-api/pkg/response"
)

// NotificationHandler exposes the per-user notification feed.
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler constructs NotificationHandler.
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List godoc
// @Summary List own notifications
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	notifs, err := h.notifications.List(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notifs, nil)
}

// UnreadCount godoc
// @Summary Count own unread notifications
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	count, err := h.notifications.UnreadCount(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"unread": count}, nil)
}

// Update godoc
// @Summary Toggle the read marker on a notification
// @Description The payload must contain exactly one field: read
// @Tags Notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Param payload body object{read=bool} true "Read marker"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /notifications/{id} [patch]
func (h *NotificationHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload map[string]json.RawMessage
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	raw, present := payload["read"]
	if !present || len(payload) != 1 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "payload must contain exactly one field: read"))
		return
	}
	var read bool
	if err := json.Unmarshal(raw, &read); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "read must be a boolean"))
		return
	}

	notif, err := h.notifications.SetRead(c.Request.Context(), actor, c.Param("id"), read)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notif, nil)
}

// MarkAllRead godoc
// @Summary Mark all own notifications as read
// @Description Idempotent; reports the number of rows updated
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /notifications/mark-all-read [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	updated, err := h.notifications.MarkAllRead(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"updated": updated}, nil)
}
