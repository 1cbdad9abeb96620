package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/myrush/myrush-api/internal/models"
)

const couponColumns = `code, discount_type, discount_value, min_order_value, max_discount, start_date, end_date, is_active, description`

// CouponRepository reads promotional codes.
type CouponRepository struct {
	db *sqlx.DB
}

// NewCouponRepository constructs a CouponRepository.
func NewCouponRepository(db *sqlx.DB) *CouponRepository {
	return &CouponRepository{db: db}
}

// FindActiveByCode returns an active coupon by its exact code.
func (r *CouponRepository) FindActiveByCode(ctx context.Context, code string) (*models.Coupon, error) {
	const query = `SELECT ` + couponColumns + ` FROM admin_coupons WHERE code = $1 AND is_active = TRUE LIMIT 1`
	var coupon models.Coupon
	if err := r.db.GetContext(ctx, &coupon, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find coupon: %w", err)
	}
	return &coupon, nil
}

// ListAvailable returns active coupons whose validity window contains now.
func (r *CouponRepository) ListAvailable(ctx context.Context, now time.Time) ([]models.Coupon, error) {
	const query = `SELECT ` + couponColumns + ` FROM admin_coupons WHERE is_active = TRUE AND start_date <= $1 AND end_date >= $1 ORDER BY code ASC`
	var coupons []models.Coupon
	if err := r.db.SelectContext(ctx, &coupons, query, now); err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	return coupons, nil
}
