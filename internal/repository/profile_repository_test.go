package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myrush/myrush-api/internal/models"
)

func TestProfileRepositoryFindByUserID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "phone_number", "full_name", "age", "city", "gender", "handedness", "skill_level", "sports", "playing_style", "created_at", "updated_at"}).
		AddRow("u1", "9876543210", "Asha Rao", 27, "Hyderabad", nil, "right", "intermediate", []byte(`["badminton","tennis"]`), nil, now, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE id = $1")).
		WithArgs("u1").
		WillReturnRows(rows)

	profile, err := repo.FindByUserID(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, profile.FullName)
	assert.Equal(t, "Asha Rao", *profile.FullName)
	assert.Equal(t, 27, *profile.Age)
	assert.Nil(t, profile.Gender)
	assert.JSONEq(t, `["badminton","tennis"]`, string(profile.Sports))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (id) DO UPDATE SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	name := "Asha Rao"
	profile := &models.Profile{ID: "u1", FullName: &name, Sports: types.JSONText(`["badminton"]`)}
	require.NoError(t, repo.Upsert(context.Background(), profile))
	assert.False(t, profile.CreatedAt.IsZero())
	require.NotNil(t, profile.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
