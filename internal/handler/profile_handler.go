package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/myrush/myrush-api/internal/dto"
	"github.com/myrush/myrush-api/internal/models"
	"github.com/myrush/myrush-api/pkg/response"
)

type profileService interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	Upsert(ctx context.Context, userID string, req dto.UpsertProfileRequest) (*models.Profile, error)
	Cities(ctx context.Context) ([]models.City, error)
	GameTypes(ctx context.Context) ([]models.GameType, error)
}

// ProfileHandler exposes player profile endpoints.
type ProfileHandler struct {
	service profileService
}

// NewProfileHandler constructs the handler.
func NewProfileHandler(service profileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// Cities godoc
// @Summary List cities
// @Tags Profile
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /profile/cities [get]
func (h *ProfileHandler) Cities(c *gin.Context) {
	cities, err := h.service.Cities(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cities)
}

// GameTypes godoc
// @Summary List game types
// @Tags Profile
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /profile/game-types [get]
func (h *ProfileHandler) GameTypes(c *gin.Context) {
	gameTypes, err := h.service.GameTypes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gameTypes)
}

// Get godoc
// @Summary Get own profile
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /profile [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	profile, err := h.service.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile)
}

// Upsert godoc
// @Summary Create or update own profile
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.UpsertProfileRequest true "Profile"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /profile [post]
func (h *ProfileHandler) Upsert(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.UpsertProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid profile payload"))
		return
	}
	if req.PhoneNumber == "" {
		req.PhoneNumber = claims.Phone
	}

	profile, err := h.service.Upsert(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile)
}
