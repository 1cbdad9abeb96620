package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/myrush/myrush-api/internal/dto"
	"github.com/myrush/myrush-api/internal/models"
	appErrors "github.com/myrush/myrush-api/pkg/errors"
)

type mockCouponRepo struct {
	coupons map[string]*models.Coupon
	err     error
	gotCode string
}

func (m *mockCouponRepo) FindActiveByCode(ctx context.Context, code string) (*models.Coupon, error) {
	m.gotCode = code
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.coupons[code]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return c, nil
}

func (m *mockCouponRepo) ListAvailable(ctx context.Context, now time.Time) ([]models.Coupon, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.Coupon, 0, len(m.coupons))
	for _, c := range m.coupons {
		out = append(out, *c)
	}
	return out, nil
}

func floatPtr(v float64) *float64 { return &v }

func newCouponService(repo *mockCouponRepo) *CouponService {
	svc := NewCouponService(repo, nil, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC) }
	return svc
}

func window(c *models.Coupon) *models.Coupon {
	c.StartDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.EndDate = time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	c.IsActive = true
	return c
}

func TestCouponServicePercentage(t *testing.T) {
	repo := &mockCouponRepo{coupons: map[string]*models.Coupon{
		"SAVE10": window(&models.Coupon{Code: "SAVE10", DiscountType: models.DiscountPercentage, DiscountValue: 10}),
	}}

	resp, err := newCouponService(repo).Validate(context.Background(), dto.ValidateCouponRequest{CouponCode: " save10 ", TotalAmount: 1234.56})
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", repo.gotCode)
	assert.True(t, resp.Valid)
	assert.Equal(t, 10.0, *resp.DiscountPercentage)
	assert.Equal(t, 123.46, *resp.DiscountAmount)
	assert.Equal(t, 1111.1, *resp.FinalAmount)
	assert.Equal(t, "Valid coupon: 10% discount applied", resp.Message)
}

func TestCouponServiceFixedCappedAndFloored(t *testing.T) {
	repo := &mockCouponRepo{coupons: map[string]*models.Coupon{
		"FLAT500": window(&models.Coupon{Code: "FLAT500", DiscountType: models.DiscountFixed, DiscountValue: 500}),
		"CAPPED":  window(&models.Coupon{Code: "CAPPED", DiscountType: models.DiscountPercentage, DiscountValue: 50, MaxDiscount: floatPtr(100)}),
	}}
	svc := newCouponService(repo)

	resp, err := svc.Validate(context.Background(), dto.ValidateCouponRequest{CouponCode: "FLAT500", TotalAmount: 400})
	require.NoError(t, err)
	assert.True(t, resp.Valid)
	assert.Equal(t, 500.0, *resp.DiscountAmount)
	assert.Equal(t, 0.0, *resp.FinalAmount)
	assert.Equal(t, 125.0, *resp.DiscountPercentage)

	resp, err = svc.Validate(context.Background(), dto.ValidateCouponRequest{CouponCode: "CAPPED", TotalAmount: 1000})
	require.NoError(t, err)
	assert.Equal(t, 100.0, *resp.DiscountAmount)
	assert.Equal(t, 900.0, *resp.FinalAmount)
	assert.Equal(t, 50.0, *resp.DiscountPercentage)
}

func TestCouponServiceRejections(t *testing.T) {
	expired := window(&models.Coupon{Code: "OLD", DiscountType: models.DiscountFixed, DiscountValue: 50})
	expired.EndDate = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockCouponRepo{coupons: map[string]*models.Coupon{
		"OLD": expired,
		"BIG": window(&models.Coupon{Code: "BIG", DiscountType: models.DiscountFixed, DiscountValue: 50, MinOrderValue: floatPtr(1000)}),
	}}
	svc := newCouponService(repo)

	cases := map[string]string{
		"NOPE": "Invalid coupon code",
		"OLD":  "Coupon has expired or is not yet valid",
		"BIG":  "Order value must be at least ₹1000 to use this coupon",
	}
	for code, message := range cases {
		resp, err := svc.Validate(context.Background(), dto.ValidateCouponRequest{CouponCode: code, TotalAmount: 500})
		require.NoError(t, err)
		assert.False(t, resp.Valid, code)
		assert.Equal(t, message, resp.Message)
		assert.Nil(t, resp.DiscountAmount)
	}
}

func TestCouponServiceErrors(t *testing.T) {
	svc := newCouponService(&mockCouponRepo{err: errors.New("db down")})

	_, err := svc.Validate(context.Background(), dto.ValidateCouponRequest{CouponCode: "X", TotalAmount: 10})
	require.Error(t, err)
	assert.Equal(t, 500, appErrors.FromError(err).Status)

	_, err = svc.Validate(context.Background(), dto.ValidateCouponRequest{CouponCode: "X", TotalAmount: 0})
	require.Error(t, err)
	assert.Equal(t, 400, appErrors.FromError(err).Status)

	_, err = svc.Available(context.Background())
	require.Error(t, err)
}

func TestCouponServiceAvailable(t *testing.T) {
	repo := &mockCouponRepo{coupons: map[string]*models.Coupon{
		"SAVE10": window(&models.Coupon{Code: "SAVE10", DiscountType: models.DiscountPercentage, DiscountValue: 10, Description: strPtr("10% off")}),
	}}

	coupons, err := newCouponService(repo).Available(context.Background())
	require.NoError(t, err)
	require.Len(t, coupons, 1)
	assert.Equal(t, dto.AvailableCoupon{Code: "SAVE10", DiscountType: "percentage", DiscountValue: 10, Description: "10% off"}, coupons[0])
}
