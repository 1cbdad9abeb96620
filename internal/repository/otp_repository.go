package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/myrush/myrush-api/internal/models"
)

// OTPRepository persists phone verification codes.
type OTPRepository struct {
	db *sqlx.DB
}

// NewOTPRepository constructs an OTPRepository.
func NewOTPRepository(db *sqlx.DB) *OTPRepository {
	return &OTPRepository{db: db}
}

// Create stores a new code and fills in its generated id.
func (r *OTPRepository) Create(ctx context.Context, otp *models.OTPVerification) error {
	if otp.CreatedAt.IsZero() {
		otp.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO otp_verifications (phone_number, otp_code, created_at, expires_at, is_verified) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, otp.PhoneNumber, otp.OTPCode, otp.CreatedAt, otp.ExpiresAt, otp.IsVerified).Scan(&otp.ID); err != nil {
		return fmt.Errorf("create otp: %w", err)
	}
	return nil
}

// FindRedeemable returns the newest unverified, unexpired code matching phone and code.
func (r *OTPRepository) FindRedeemable(ctx context.Context, phone, code string, now time.Time) (*models.OTPVerification, error) {
	const query = `SELECT id, phone_number, otp_code, created_at, expires_at, is_verified FROM otp_verifications WHERE phone_number = $1 AND otp_code = $2 AND is_verified = FALSE AND expires_at >= $3 ORDER BY created_at DESC LIMIT 1`
	var otp models.OTPVerification
	if err := r.db.GetContext(ctx, &otp, query, phone, code, now); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find otp: %w", err)
	}
	return &otp, nil
}

// FindLatest returns the newest code issued to phone regardless of state.
func (r *OTPRepository) FindLatest(ctx context.Context, phone string) (*models.OTPVerification, error) {
	const query = `SELECT id, phone_number, otp_code, created_at, expires_at, is_verified FROM otp_verifications WHERE phone_number = $1 ORDER BY created_at DESC LIMIT 1`
	var otp models.OTPVerification
	if err := r.db.GetContext(ctx, &otp, query, phone); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find latest otp: %w", err)
	}
	return &otp, nil
}

// MarkVerified flags a code as redeemed.
func (r *OTPRepository) MarkVerified(ctx context.Context, id int64) error {
	const query = `UPDATE otp_verifications SET is_verified = TRUE WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("mark otp verified: %w", err)
	}
	return nil
}
