package dto

// ValidateCouponRequest asks whether a code applies to an order total.
type ValidateCouponRequest struct {
	CouponCode  string  `json:"coupon_code" validate:"required,max=50"`
	TotalAmount float64 `json:"total_amount" validate:"gt=0"`
}

// CouponValidationResponse reports the computed discount.
type CouponValidationResponse struct {
	Valid              bool     `json:"valid"`
	DiscountPercentage *float64 `json:"discount_percentage,omitempty"`
	DiscountAmount     *float64 `json:"discount_amount,omitempty"`
	FinalAmount        *float64 `json:"final_amount,omitempty"`
	Message            string   `json:"message"`
}

// AvailableCoupon is a coupon advertised to clients.
type AvailableCoupon struct {
	Code          string   `json:"code"`
	DiscountType  string   `json:"discount_type"`
	DiscountValue float64  `json:"discount_value"`
	MinOrderValue *float64 `json:"min_order_value,omitempty"`
	Description   string   `json:"description"`
}
