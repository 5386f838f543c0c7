package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartasset/asset-api/internal/service"
	appErrors "github.com/smartasset/asset-api/pkg/errors"
	"github.com/smartasset/asset-api/pkg/response"
)

// MeHandler exposes the authenticated user's own profile.
type MeHandler struct {
	users *service.UserService
}

// NewMeHandler constructs MeHandler.
func NewMeHandler(users *service.UserService) *MeHandler {
	return &MeHandler{users: users}
}

// Get godoc
// @Summary Get own profile
// @Tags Me
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /me [get]
func (h *MeHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	profile, err := h.users.Me(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Update godoc
// @Summary Update own profile
// @Tags Me
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.UpdateProfileRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Router /me [patch]
func (h *MeHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid profile payload"))
		return
	}

	profile, err := h.users.UpdateMe(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// UploadAvatar godoc
// @Summary Upload own avatar
// @Tags Me
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param avatar formData file true "Avatar image"
// @Success 200 {object} response.Envelope
// @Router /me/avatar [post]
func (h *MeHandler) UploadAvatar(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "avatar file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read avatar file"))
		return
	}
	defer file.Close()

	profile, err := h.users.UploadAvatar(c.Request.Context(), actor, fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}
