package dto

import (
	"encoding/json"
	"time"
)

// VenueQuery carries listing filters from the query string.
type VenueQuery struct {
	City     string `form:"city"`
	Location string `form:"location"`
	GameType string `form:"game_type"`
}

// VenueListing is a court as shown in venue and court lists.
type VenueListing struct {
	ID                 string          `json:"id"`
	CourtName          string          `json:"court_name"`
	Location           string          `json:"location"`
	GameType           string          `json:"game_type"`
	Prices             string          `json:"prices"`
	Description        string          `json:"description"`
	TermsAndConditions string          `json:"terms_and_conditions"`
	Amenities          json.RawMessage `json:"amenities,omitempty" swaggertype:"array,object"`
	Photos             json.RawMessage `json:"photos" swaggertype:"array,string"`
	Videos             json.RawMessage `json:"videos" swaggertype:"array,string"`
	CreatedAt          *time.Time      `json:"created_at"`
	UpdatedAt          *time.Time      `json:"updated_at"`
}
