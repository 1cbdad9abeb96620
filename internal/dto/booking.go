package dto

// CreateBookingRequest is sent by the mobile app when reserving a court.
// StartTime accepts "HH:MM" or "hh:mm AM/PM".
type CreateBookingRequest struct {
	CourtID         string   `json:"court_id" validate:"required"`
	BookingDate     string   `json:"booking_date" validate:"required,datetime=2006-01-02"`
	StartTime       string   `json:"start_time" validate:"required"`
	DurationMinutes int      `json:"duration_minutes" validate:"required,min=30,max=720"`
	NumberOfPlayers *int     `json:"number_of_players" validate:"omitempty,min=1,max=50"`
	PricePerHour    *float64 `json:"price_per_hour" validate:"omitempty,gt=0"`
	TeamName        *string  `json:"team_name" validate:"omitempty,max=100"`
	SpecialRequests *string  `json:"special_requests"`
}

// BookingListQuery pages the booking history. Zero values fall back to the
// first page of DefaultBookingPageSize.
type BookingListQuery struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

const (
	DefaultBookingPageSize = 20
	MaxBookingPageSize     = 100
)

// ExportFormat selects the booking history rendering.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatPDF  ExportFormat = "pdf"
	ExportFormatXLSX ExportFormat = "xlsx"
)

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
