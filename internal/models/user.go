package models

import (
	"strings"
	"time"
)

// PhoneEmailDomain is used to synthesise an email address for phone-only accounts.
const PhoneEmailDomain = "phone.myrush.app"

// PhoneAccountEmail is the placeholder email of an account created through OTP login.
func PhoneAccountEmail(phone string) string {
	return phone + "@" + PhoneEmailDomain
}

// User is a player account. Accounts created through OTP login carry a
// synthetic email and an unusable password hash.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PhoneNumber  *string    `db:"phone_number" json:"phone_number,omitempty"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FirstName    *string    `db:"first_name" json:"first_name,omitempty"`
	LastName     *string    `db:"last_name" json:"last_name,omitempty"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// PhoneOnly reports whether the account was created through OTP login.
func (u *User) PhoneOnly() bool {
	return strings.HasSuffix(u.Email, "@"+PhoneEmailDomain)
}

// Pagination describes one page of a list response.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
