package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/myrush/myrush-api/internal/dto"
	"github.com/myrush/myrush-api/internal/models"
	appErrors "github.com/myrush/myrush-api/pkg/errors"
)

type couponRepository interface {
	FindActiveByCode(ctx context.Context, code string) (*models.Coupon, error)
	ListAvailable(ctx context.Context, now time.Time) ([]models.Coupon, error)
}

// CouponService validates promotional codes and computes discounts.
type CouponService struct {
	coupons   couponRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewCouponService constructs a CouponService.
func NewCouponService(coupons couponRepository, validate *validator.Validate, logger *zap.Logger) *CouponService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CouponService{coupons: coupons, validator: validate, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Validate checks a code against an order total. Business rejections are
// reported with Valid=false rather than an error.
func (s *CouponService) Validate(ctx context.Context, req dto.ValidateCouponRequest) (*dto.CouponValidationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid coupon payload")
	}

	code := strings.ToUpper(strings.TrimSpace(req.CouponCode))
	coupon, err := s.coupons.FindActiveByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &dto.CouponValidationResponse{Valid: false, Message: "Invalid coupon code"}, nil
		}
		return nil, appErrors.Internal(err, "failed to load coupon")
	}

	now := s.now()
	if now.Before(coupon.StartDate) || now.After(coupon.EndDate) {
		return &dto.CouponValidationResponse{Valid: false, Message: "Coupon has expired or is not yet valid"}, nil
	}

	if coupon.MinOrderValue != nil && *coupon.MinOrderValue > 0 && req.TotalAmount < *coupon.MinOrderValue {
		return &dto.CouponValidationResponse{
			Valid:   false,
			Message: fmt.Sprintf("Order value must be at least ₹%s to use this coupon", formatAmount(*coupon.MinOrderValue)),
		}, nil
	}

	var discount, percentage float64
	if strings.EqualFold(string(coupon.DiscountType), string(models.DiscountPercentage)) {
		discount = req.TotalAmount * coupon.DiscountValue / 100
		percentage = coupon.DiscountValue
	} else {
		discount = coupon.DiscountValue
		percentage = discount / req.TotalAmount * 100
	}

	if coupon.MaxDiscount != nil && *coupon.MaxDiscount > 0 && discount > *coupon.MaxDiscount {
		discount = *coupon.MaxDiscount
	}

	final := math.Max(0, req.TotalAmount-discount)

	percentage = roundCents(percentage)
	discount = roundCents(discount)
	final = roundCents(final)

	return &dto.CouponValidationResponse{
		Valid:              true,
		DiscountPercentage: &percentage,
		DiscountAmount:     &discount,
		FinalAmount:        &final,
		Message:            fmt.Sprintf("Valid coupon: %s%% discount applied", formatAmount(percentage)),
	}, nil
}

// Available lists coupons that are active and within their validity window.
func (s *CouponService) Available(ctx context.Context) ([]dto.AvailableCoupon, error) {
	coupons, err := s.coupons.ListAvailable(ctx, s.now())
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list coupons")
	}

	out := make([]dto.AvailableCoupon, 0, len(coupons))
	for _, c := range coupons {
		item := dto.AvailableCoupon{
			Code:          c.Code,
			DiscountType:  string(c.DiscountType),
			DiscountValue: c.DiscountValue,
			MinOrderValue: c.MinOrderValue,
		}
		if c.Description != nil {
			item.Description = *c.Description
		}
		out = append(out, item)
	}
	return out, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
