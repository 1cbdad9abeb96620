package models

// City is an active location a venue can belong to.
type City struct {
	ID        string  `db:"id" json:"id"`
	Name      string  `db:"name" json:"name"`
	ShortCode *string `db:"short_code" json:"short_code,omitempty"`
	IsActive  bool    `db:"is_active" json:"is_active"`
}

// GameType is a sport offered on courts.
type GameType struct {
	ID       string  `db:"id" json:"id"`
	Name     string  `db:"name" json:"name"`
	IconURL  *string `db:"icon_url" json:"icon_url,omitempty"`
	IsActive bool    `db:"is_active" json:"is_active"`
}

// Amenity is a facility offered at a branch.
type Amenity struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Icon        *string `json:"icon,omitempty"`
	IconURL     *string `json:"icon_url,omitempty"`
}
