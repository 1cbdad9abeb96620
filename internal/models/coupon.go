package models

import "time"

// DiscountType is how a coupon reduces an order.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Coupon is a promotional code from admin_coupons.
type Coupon struct {
	Code          string       `db:"code" json:"code"`
	DiscountType  DiscountType `db:"discount_type" json:"discount_type"`
	DiscountValue float64      `db:"discount_value" json:"discount_value"`
	MinOrderValue *float64     `db:"min_order_value" json:"min_order_value,omitempty"`
	MaxDiscount   *float64     `db:"max_discount" json:"max_discount,omitempty"`
	StartDate     time.Time    `db:"start_date" json:"start_date"`
	EndDate       time.Time    `db:"end_date" json:"end_date"`
	IsActive      bool         `db:"is_active" json:"is_active"`
	Description   *string      `db:"description" json:"description,omitempty"`
}
