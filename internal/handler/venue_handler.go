package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/myrush/myrush-api/internal/dto"
	"github.com/myrush/myrush-api/internal/middleware"
	"github.com/myrush/myrush-api/internal/models"
	"github.com/myrush/myrush-api/pkg/response"
)

type venueService interface {
	ListVenues(ctx context.Context, query dto.VenueQuery) ([]dto.VenueListing, error)
	ListCourts(ctx context.Context, query dto.VenueQuery) ([]dto.VenueListing, error)
	GetVenue(ctx context.Context, id string) (*models.Court, error)
	GetCourt(ctx context.Context, id string) (*dto.VenueListing, error)
}

type availabilityService interface {
	AvailableSlots(ctx context.Context, courtID, rawDate string) (*dto.AvailableSlotsResponse, error)
}

// VenueHandler serves venue, court and availability endpoints.
type VenueHandler struct {
	venues       venueService
	availability availabilityService
}

// NewVenueHandler constructs the handler.
func NewVenueHandler(venues venueService, availability availabilityService) *VenueHandler {
	return &VenueHandler{venues: venues, availability: availability}
}

// ListVenues godoc
// @Summary List venues
// @Tags Venues
// @Produce json
// @Param city query string false "City name"
// @Param location query string false "Alias of city"
// @Param game_type query string false "Game type (substring)"
// @Success 200 {object} response.Envelope
// @Router /venues [get]
func (h *VenueHandler) ListVenues(c *gin.Context) {
	h.list(c, h.venues.ListVenues)
}

// ListCourts godoc
// @Summary List courts with amenities
// @Tags Courts
// @Produce json
// @Param city query string false "City name"
// @Param location query string false "Alias of city"
// @Param game_type query string false "Game type (substring)"
// @Success 200 {object} response.Envelope
// @Router /courts [get]
func (h *VenueHandler) ListCourts(c *gin.Context) {
	h.list(c, h.venues.ListCourts)
}

func (h *VenueHandler) list(c *gin.Context, fetch func(context.Context, dto.VenueQuery) ([]dto.VenueListing, error)) {
	var query dto.VenueQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query"))
		return
	}
	listings, err := fetch(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "count", len(listings))
	response.JSON(c, http.StatusOK, listings, middleware.ResponseMeta(c))
}

// GetVenue godoc
// @Summary Get venue
// @Tags Venues
// @Produce json
// @Param id path string true "Court ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /venues/{id} [get]
func (h *VenueHandler) GetVenue(c *gin.Context) {
	court, err := h.venues.GetVenue(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, court)
}

// GetCourt godoc
// @Summary Get court
// @Tags Courts
// @Produce json
// @Param id path string true "Court ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courts/{id} [get]
func (h *VenueHandler) GetCourt(c *gin.Context) {
	court, err := h.venues.GetCourt(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, court)
}

// AvailableSlots godoc
// @Summary Available slots
// @Description Open hourly slots of an active court on a date
// @Tags Courts
// @Produce json
// @Param id path string true "Court ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope{data=dto.AvailableSlotsResponse}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /courts/{id}/available-slots [get]
func (h *VenueHandler) AvailableSlots(c *gin.Context) {
	res, err := h.availability.AvailableSlots(c.Request.Context(), c.Param("id"), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "slot_count", len(res.Slots))
	response.JSON(c, http.StatusOK, res, middleware.ResponseMeta(c))
}
