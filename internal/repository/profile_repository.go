package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/myrush/myrush-api/internal/models"
)

// ProfileRepository manages player profiles keyed by user id.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs a ProfileRepository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// FindByUserID returns the profile of a user.
func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	const query = `SELECT id, phone_number, full_name, age, city, gender, handedness, skill_level, sports, playing_style, created_at, updated_at FROM profiles WHERE id = $1`
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return &profile, nil
}

// Upsert writes the full profile row, inserting it when absent.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = &now
	if len(profile.Sports) == 0 {
		profile.Sports = types.JSONText("[]")
	}

	const query = `INSERT INTO profiles (id, phone_number, full_name, age, city, gender, handedness, skill_level, sports, playing_style, created_at, updated_at)
VALUES (:id, :phone_number, :full_name, :age, :city, :gender, :handedness, :skill_level, :sports, :playing_style, :created_at, :updated_at)
ON CONFLICT (id) DO UPDATE SET
	phone_number = EXCLUDED.phone_number,
	full_name = EXCLUDED.full_name,
	age = EXCLUDED.age,
	city = EXCLUDED.city,
	gender = EXCLUDED.gender,
	handedness = EXCLUDED.handedness,
	skill_level = EXCLUDED.skill_level,
	sports = EXCLUDED.sports,
	playing_style = EXCLUDED.playing_style,
	updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
