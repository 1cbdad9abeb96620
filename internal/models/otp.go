package models

import "time"

// OTPVerification is a one-time code issued to a phone number.
type OTPVerification struct {
	ID          int64     `db:"id" json:"id"`
	PhoneNumber string    `db:"phone_number" json:"phone_number"`
	OTPCode     string    `db:"otp_code" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	ExpiresAt   time.Time `db:"expires_at" json:"expires_at"`
	IsVerified  bool      `db:"is_verified" json:"is_verified"`
}

// Expired reports whether the code can no longer be redeemed at now.
func (o *OTPVerification) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
