package dto

// Slot is one bookable hour on a court.
type Slot struct {
	Time        string  `json:"time"`
	EndTime     string  `json:"end_time"`
	DisplayTime string  `json:"display_time"`
	Price       float64 `json:"price"`
	Available   bool    `json:"available"`
}

// AvailableSlotsResponse lists the open slots of a court for one date.
type AvailableSlotsResponse struct {
	CourtID string `json:"court_id"`
	Date    string `json:"date"`
	Slots   []Slot `json:"slots"`
}
