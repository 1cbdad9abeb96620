package dto

import "github.com/myrush/myrush-api/internal/models"

// SendOTPRequest starts phone verification.
type SendOTPRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,min=8,max=20"`
}

// SendOTPResponse acknowledges an issued code. OTPCode is only populated in dev mode.
type SendOTPResponse struct {
	Message        string  `json:"message"`
	Success        bool    `json:"success"`
	VerificationID string  `json:"verification_id,omitempty"`
	OTPCode        *string `json:"otp_code,omitempty"`
}

// VerifyOTPRequest redeems a code; profile fields are stored when present.
type VerifyOTPRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,min=8,max=20"`
	OTPCode     string `json:"otp_code" validate:"required,numeric,min=4,max=8"`
	ProfileFields
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// VerifyOTPResponse carries tokens, or NeedsProfile when the caller must collect a name first.
type VerifyOTPResponse struct {
	NeedsProfile bool             `json:"needs_profile"`
	PhoneNumber  string           `json:"phone_number,omitempty"`
	Message      string           `json:"message,omitempty"`
	IsNewUser    bool             `json:"is_new_user"`
	AccessToken  string           `json:"access_token,omitempty"`
	RefreshToken string           `json:"refresh_token,omitempty"`
	TokenType    string           `json:"token_type,omitempty"`
	ExpiresIn    int64            `json:"expires_in,omitempty"`
	User         *models.UserInfo `json:"user,omitempty"`
}
