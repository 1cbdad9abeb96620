package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myrush/myrush-api/internal/models"
)

func TestOTPRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOTPRepository(db)

	expires := time.Now().Add(5 * time.Minute)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO otp_verifications (phone_number, otp_code, created_at, expires_at, is_verified) VALUES ($1, $2, $3, $4, $5) RETURNING id")).
		WithArgs("9876543210", "123456", sqlmock.AnyArg(), expires, false).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	otp := &models.OTPVerification{PhoneNumber: "9876543210", OTPCode: "123456", ExpiresAt: expires}
	require.NoError(t, repo.Create(context.Background(), otp))
	assert.Equal(t, int64(42), otp.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOTPRepositoryFindRedeemable(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOTPRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "phone_number", "otp_code", "created_at", "expires_at", "is_verified"}).
		AddRow(7, "9876543210", "123456", now.Add(-time.Minute), now.Add(4*time.Minute), false)
	mock.ExpectQuery(regexp.QuoteMeta("FROM otp_verifications WHERE phone_number = $1 AND otp_code = $2 AND is_verified = FALSE AND expires_at >= $3")).
		WithArgs("9876543210", "123456", now).
		WillReturnRows(rows)

	otp, err := repo.FindRedeemable(context.Background(), "9876543210", "123456", now)
	require.NoError(t, err)
	assert.Equal(t, int64(7), otp.ID)
	assert.False(t, otp.Expired(now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOTPRepositoryFindRedeemableMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOTPRepository(db)

	mock.ExpectQuery("FROM otp_verifications").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindRedeemable(context.Background(), "9876543210", "000000", time.Now())
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestOTPRepositoryMarkVerified(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOTPRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE otp_verifications SET is_verified = TRUE WHERE id = $1")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkVerified(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}
