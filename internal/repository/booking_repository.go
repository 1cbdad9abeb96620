package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/myrush/myrush-api/internal/models"
)

const bookingColumns = `id, user_id, court_id, booking_date, start_time, end_time, duration_minutes, number_of_players, team_name, special_requests, price_per_hour, total_amount, status, payment_status, created_at, updated_at`

// BookingRepository persists court bookings.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// BookedHours returns the distinct start hours of non-cancelled bookings for a court on date.
func (r *BookingRepository) BookedHours(ctx context.Context, courtID string, date time.Time) ([]int, error) {
	const query = `SELECT DISTINCT EXTRACT(HOUR FROM start_time)::int AS hour FROM booking WHERE court_id = $1 AND booking_date = $2 AND status <> $3 ORDER BY hour`
	var hours []int
	if err := r.db.SelectContext(ctx, &hours, query, courtID, date.Format("2006-01-02"), models.BookingStatusCancelled); err != nil {
		return nil, fmt.Errorf("list booked hours: %w", err)
	}
	return hours, nil
}

// Overlaps reports whether a non-cancelled booking on the court and date
// shares any time with [startTime, endTime). Times are "15:04:05" strings;
// "24:00:00" is a valid end.
func (r *BookingRepository) Overlaps(ctx context.Context, courtID string, date time.Time, startTime, endTime string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM booking WHERE court_id = $1 AND booking_date = $2 AND status <> $3 AND start_time < $5::time AND end_time > $4::time)`
	var overlap bool
	if err := r.db.GetContext(ctx, &overlap, query, courtID, date.Format("2006-01-02"), models.BookingStatusCancelled, startTime, endTime); err != nil {
		return false, fmt.Errorf("check booking overlap: %w", err)
	}
	return overlap, nil
}

// Create inserts a booking.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO booking (id, user_id, court_id, booking_date, start_time, end_time, duration_minutes, number_of_players, team_name, special_requests, price_per_hour, total_amount, status, payment_status, created_at)
VALUES (:id, :user_id, :court_id, :booking_date, :start_time, :end_time, :duration_minutes, :number_of_players, :team_name, :special_requests, :price_per_hour, :total_amount, :status, :payment_status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, booking); err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// ListByUser returns a user's bookings, most recent first.
func (r *BookingRepository) ListByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	const query = `SELECT ` + bookingColumns + ` FROM booking WHERE user_id = $1 ORDER BY booking_date DESC, start_time DESC`
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, userID); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}
