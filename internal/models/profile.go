package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Profile holds the player details collected after phone verification.
type Profile struct {
	ID           string         `db:"id" json:"id"`
	PhoneNumber  *string        `db:"phone_number" json:"phone_number,omitempty"`
	FullName     *string        `db:"full_name" json:"full_name,omitempty"`
	Age          *int           `db:"age" json:"age,omitempty"`
	City         *string        `db:"city" json:"city,omitempty"`
	Gender       *string        `db:"gender" json:"gender,omitempty"`
	Handedness   *string        `db:"handedness" json:"handedness,omitempty"`
	SkillLevel   *string        `db:"skill_level" json:"skill_level,omitempty"`
	Sports       types.JSONText `db:"sports" json:"sports,omitempty" swaggertype:"array,string"`
	PlayingStyle *string        `db:"playing_style" json:"playing_style,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    *time.Time     `db:"updated_at" json:"updated_at,omitempty"`
}
