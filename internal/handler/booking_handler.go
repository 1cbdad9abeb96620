package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/myrush/myrush-api/internal/dto"
	"github.com/myrush/myrush-api/internal/models"
	"github.com/myrush/myrush-api/pkg/response"
)

type bookingService interface {
	Create(ctx context.Context, userID string, req dto.CreateBookingRequest) (*models.Booking, error)
	ListPage(ctx context.Context, userID string, query dto.BookingListQuery) ([]models.Booking, *models.Pagination, error)
	Export(ctx context.Context, userID string, format dto.ExportFormat) (*dto.ExportFile, error)
}

// BookingHandler exposes booking endpoints for the authenticated user.
type BookingHandler struct {
	service bookingService
}

// NewBookingHandler constructs the handler.
func NewBookingHandler(service bookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// Create godoc
// @Summary Create booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateBookingRequest true "Booking"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid booking payload"))
		return
	}

	booking, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, booking)
}

// List godoc
// @Summary List own bookings
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (1-based)"
// @Param page_size query int false "Page size, at most 100"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /bookings [get]
func (h *BookingHandler) List(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var query dto.BookingListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid pagination"))
		return
	}
	bookings, pagination, err := h.service.ListPage(c.Request.Context(), claims.UserID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, bookings, pagination)
}

// Export godoc
// @Summary Export booking history
// @Tags Bookings
// @Produce text/csv
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param format query string false "csv, pdf or xlsx" Enums(csv, pdf, xlsx)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /bookings/export [get]
func (h *BookingHandler) Export(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	file, err := h.service.Export(c.Request.Context(), claims.UserID, dto.ExportFormat(c.DefaultQuery("format", string(dto.ExportFormatCSV))))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
