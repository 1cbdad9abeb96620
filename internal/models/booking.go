package models

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// PaymentStatus tracks settlement for a booking.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// Booking is a reservation of a court for a contiguous time range on one date.
// StartTime and EndTime are "HH:MM:SS" wall-clock values.
type Booking struct {
	ID              string        `db:"id" json:"id"`
	UserID          string        `db:"user_id" json:"user_id"`
	CourtID         string        `db:"court_id" json:"court_id"`
	BookingDate     time.Time     `db:"booking_date" json:"booking_date"`
	StartTime       string        `db:"start_time" json:"start_time"`
	EndTime         string        `db:"end_time" json:"end_time"`
	DurationMinutes int           `db:"duration_minutes" json:"duration_minutes"`
	NumberOfPlayers int           `db:"number_of_players" json:"number_of_players"`
	TeamName        *string       `db:"team_name" json:"team_name,omitempty"`
	SpecialRequests *string       `db:"special_requests" json:"special_requests,omitempty"`
	PricePerHour    float64       `db:"price_per_hour" json:"price_per_hour"`
	TotalAmount     float64       `db:"total_amount" json:"total_amount"`
	Status          BookingStatus `db:"status" json:"status"`
	PaymentStatus   PaymentStatus `db:"payment_status" json:"payment_status"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       *time.Time    `db:"updated_at" json:"updated_at,omitempty"`
}
