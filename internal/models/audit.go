package models

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Audit actions recorded for account and booking activity.
const (
	AuditActionLogin         = "LOGIN"
	AuditActionLogout        = "LOGOUT"
	AuditActionTokenReuse    = "REFRESH_TOKEN_REUSE"
	AuditActionOTPVerify     = "OTP_VERIFY"
	AuditActionRegister      = "REGISTER"
	AuditActionProfileUpsert = "PROFILE_UPSERT"
	AuditActionBookingCreate = "BOOKING_CREATE"
	AuditActionBookingExport = "BOOKING_EXPORT"
)

// Audited resources.
const (
	AuditResourceAuth     = "auth"
	AuditResourceProfile  = "profile"
	AuditResourceBooking  = "booking"
	AuditResourceBookings = "bookings"
)

// AuditLog is one row of the audit trail. NewValues holds a JSON document
// describing what the action changed.
type AuditLog struct {
	ID         string         `db:"id" json:"id"`
	UserID     *string        `db:"user_id" json:"user_id,omitempty"`
	Action     string         `db:"action" json:"action"`
	Resource   string         `db:"resource" json:"resource"`
	ResourceID *string        `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  types.JSONText `db:"old_values" json:"old_values,omitempty" swaggertype:"object"`
	NewValues  types.JSONText `db:"new_values" json:"new_values,omitempty" swaggertype:"object"`
	IPAddress  string         `db:"ip_address" json:"ip_address"`
	UserAgent  string         `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// NewAuditLog records userID performing action on resource/resourceID.
// An empty resourceID is stored as NULL.
func NewAuditLog(userID, action, resource, resourceID string, changes map[string]interface{}) *AuditLog {
	entry := &AuditLog{UserID: &userID, Action: action, Resource: resource}
	if resourceID != "" {
		entry.ResourceID = &resourceID
	}
	if changes != nil {
		// map[string]interface{} of plain values always encodes
		entry.NewValues, _ = json.Marshal(changes)
	}
	return entry
}

// WithClient stamps the caller's address and user agent.
func (a *AuditLog) WithClient(ip, userAgent string) *AuditLog {
	a.IPAddress = ip
	a.UserAgent = userAgent
	return a
}
