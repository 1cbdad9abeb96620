package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ScopeKind tags which calendar selector a rule uses.
type ScopeKind string

const (
	ScopeDates    ScopeKind = "dates"
	ScopeWeekdays ScopeKind = "weekdays"
)

// RuleScope selects the calendar days a rule applies to. Exactly one of Dates or
// Days is meaningful, according to Kind.
type RuleScope struct {
	Kind  ScopeKind
	Dates []string
	Days  []string
}

// DateScope builds a scope matching ISO dates (YYYY-MM-DD).
func DateScope(dates ...string) RuleScope {
	return RuleScope{Kind: ScopeDates, Dates: dates}
}

// WeekdayScope builds a scope matching weekday names.
func WeekdayScope(days ...string) RuleScope {
	return RuleScope{Kind: ScopeWeekdays, Days: days}
}

// PriceRule assigns an hourly price to the hours [SlotFrom, SlotTo).
type PriceRule struct {
	ID       string
	Scope    RuleScope
	SlotFrom int
	SlotTo   int
	Price    float64
}

// BlackoutRule disables the listed "HH:00" slots on the days its scope selects.
type BlackoutRule struct {
	Scope RuleScope
	Times []string
}

// Court mirrors a row of admin_courts. PriceConditions and UnavailabilitySlots are
// the raw JSONB rule lists as authored in the admin console.
type Court struct {
	ID                  string         `db:"id" json:"id"`
	BranchID            string         `db:"branch_id" json:"branch_id"`
	GameTypeID          string         `db:"game_type_id" json:"game_type_id"`
	Name                string         `db:"name" json:"name"`
	PricePerHour        float64        `db:"price_per_hour" json:"price_per_hour"`
	PriceConditions     types.JSONText `db:"price_conditions" json:"price_conditions" swaggertype:"array,object"`
	UnavailabilitySlots types.JSONText `db:"unavailability_slots" json:"unavailability_slots" swaggertype:"array,object"`
	OperatingHours      types.JSONText `db:"operating_hours" json:"operating_hours" swaggertype:"object"`
	Images              types.JSONText `db:"images" json:"images" swaggertype:"array,string"`
	Videos              types.JSONText `db:"videos" json:"videos" swaggertype:"array,string"`
	TermsAndConditions  *string        `db:"terms_and_conditions" json:"terms_and_conditions,omitempty"`
	IsActive            bool           `db:"is_active" json:"is_active"`
	CreatedAt           *time.Time     `db:"created_at" json:"created_at,omitempty"`
	UpdatedAt           *time.Time     `db:"updated_at" json:"updated_at,omitempty"`
}

// CourtListing is a court joined with its branch, city and game type.
type CourtListing struct {
	ID                 string         `db:"id" json:"id"`
	CourtName          string         `db:"court_name" json:"court_name"`
	Prices             float64        `db:"prices" json:"prices"`
	Photos             types.JSONText `db:"photos" json:"photos" swaggertype:"array,string"`
	Videos             types.JSONText `db:"videos" json:"videos" swaggertype:"array,string"`
	TermsAndConditions *string        `db:"terms_and_conditions" json:"terms_and_conditions,omitempty"`
	BranchName         string         `db:"branch_name" json:"branch_name"`
	Location           *string        `db:"location" json:"location,omitempty"`
	Description        *string        `db:"description" json:"description,omitempty"`
	CityName           string         `db:"city_name" json:"city_name"`
	GameType           string         `db:"game_type" json:"game_type"`
	Amenities          types.JSONText `db:"amenities" json:"amenities,omitempty" swaggertype:"array,object"`
	CreatedAt          *time.Time     `db:"created_at" json:"created_at,omitempty"`
	UpdatedAt          *time.Time     `db:"updated_at" json:"updated_at,omitempty"`
}

// VenueFilter narrows venue and court listings.
type VenueFilter struct {
	City     string
	GameType string
	// WithAmenities aggregates branch amenities into each listing.
	WithAmenities bool
}
