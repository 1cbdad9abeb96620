package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/myrush/myrush-api/internal/dto"
	"github.com/myrush/myrush-api/pkg/response"
)

type couponService interface {
	Validate(ctx context.Context, req dto.ValidateCouponRequest) (*dto.CouponValidationResponse, error)
	Available(ctx context.Context) ([]dto.AvailableCoupon, error)
}

// CouponHandler exposes coupon endpoints.
type CouponHandler struct {
	service couponService
}

// NewCouponHandler constructs the handler.
func NewCouponHandler(service couponService) *CouponHandler {
	return &CouponHandler{service: service}
}

// Validate godoc
// @Summary Validate coupon
// @Description Rejections are reported with valid=false and a message.
// @Tags Coupons
// @Accept json
// @Produce json
// @Param payload body dto.ValidateCouponRequest true "Coupon and order total"
// @Success 200 {object} response.Envelope{data=dto.CouponValidationResponse}
// @Failure 400 {object} response.Envelope
// @Router /coupons/validate [post]
func (h *CouponHandler) Validate(c *gin.Context) {
	var req dto.ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid coupon payload"))
		return
	}
	res, err := h.service.Validate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// Available godoc
// @Summary List available coupons
// @Tags Coupons
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /coupons/available [get]
func (h *CouponHandler) Available(c *gin.Context) {
	coupons, err := h.service.Available(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, coupons)
}
