package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/myrush/myrush-api/internal/dto"
	"github.com/myrush/myrush-api/internal/models"
	appErrors "github.com/myrush/myrush-api/pkg/errors"
	"github.com/myrush/myrush-api/pkg/export"
	"github.com/myrush/myrush-api/pkg/logger"
)

const clockLayout = "15:04:05"

var startTimeLayouts = []string{"15:04", "15:04:05", "3:04 PM", "03:04 PM", "3:04PM", "03:04PM"}

type bookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	Overlaps(ctx context.Context, courtID string, date time.Time, startTime, endTime string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]models.Booking, error)
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type listingInvalidator interface {
	InvalidateListings(ctx context.Context)
}

// BookingConfig carries defaults applied when a request omits them.
type BookingConfig struct {
	DefaultPricePerHour float64
	DefaultPlayers      int
}

// BookingService creates and lists court bookings.
type BookingService struct {
	bookings  bookingRepository
	courts    activeCourtFinder
	resolver  slotResolver
	audit     auditRecorder
	listings  listingInvalidator
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	xlsx      *export.XLSXExporter
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    BookingConfig
}

// NewBookingService constructs a BookingService.
func NewBookingService(
	bookings bookingRepository,
	courts activeCourtFinder,
	resolver slotResolver,
	audit auditRecorder,
	listings listingInvalidator,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	config BookingConfig,
) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.DefaultPricePerHour <= 0 {
		config.DefaultPricePerHour = 200
	}
	if config.DefaultPlayers <= 0 {
		config.DefaultPlayers = 2
	}
	return &BookingService{
		bookings:  bookings,
		courts:    courts,
		resolver:  resolver,
		audit:     audit,
		listings:  listings,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		xlsx:      export.NewXLSXExporter(),
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    config,
	}
}

// Create books a court for userID. Every hour the booking touches must be an
// open slot and no live booking may overlap it. Each hour is charged at its
// own slot price for the minutes spent in it.
func (s *BookingService) Create(ctx context.Context, userID string, req dto.CreateBookingRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		s.metrics.RecordBooking("invalid")
		return nil, appErrors.Invalid(err, "invalid booking payload")
	}

	date, err := time.Parse(DateLayout, req.BookingDate)
	if err != nil {
		s.metrics.RecordBooking("invalid")
		return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid date format. Use YYYY-MM-DD")
	}

	start, err := parseStartTime(req.StartTime)
	if err != nil {
		s.metrics.RecordBooking("invalid")
		return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid start time. Use HH:MM or hh:mm AM/PM")
	}
	end := start.Add(time.Duration(req.DurationMinutes) * time.Minute)
	if end.Day() != start.Day() && (end.Hour() != 0 || end.Minute() != 0) {
		s.metrics.RecordBooking("invalid")
		return nil, appErrors.Clone(appErrors.ErrValidation, "booking must end by midnight")
	}

	log := logger.ForRequest(ctx, s.logger).With(
		zap.String("court_id", req.CourtID),
		zap.String("date", req.BookingDate),
		zap.String("user_id", userID),
	)

	court, err := loadActiveCourt(ctx, s.courts, req.CourtID)
	if err != nil {
		s.metrics.RecordBooking("rejected")
		return nil, err
	}

	slots, err := s.resolver.Resolve(ctx, court, date)
	if err != nil {
		s.metrics.RecordBooking("error")
		return nil, err
	}

	perPlayer, err := s.priceHours(slots, start, req.DurationMinutes, req.PricePerHour)
	if err != nil {
		s.metrics.RecordBooking("unavailable")
		log.Info("booking rejected, slot unavailable", zap.String("start_time", req.StartTime), zap.Error(err))
		return nil, err
	}

	players := s.config.DefaultPlayers
	if req.NumberOfPlayers != nil && *req.NumberOfPlayers > 0 {
		players = *req.NumberOfPlayers
	}

	endLabel := end.Format(clockLayout)
	if end.Day() != start.Day() {
		endLabel = "24:00:00"
	}

	overlap, err := s.bookings.Overlaps(ctx, court.ID, date, start.Format(clockLayout), endLabel)
	if err != nil {
		s.metrics.RecordBooking("error")
		return nil, appErrors.Internal(err, "Booking creation failed")
	}
	if overlap {
		s.metrics.RecordBooking("unavailable")
		log.Info("booking rejected, overlaps an existing booking", zap.String("start_time", req.StartTime))
		return nil, appErrors.Clone(appErrors.ErrSlotUnavailable, "the requested time overlaps an existing booking")
	}

	booking := &models.Booking{
		UserID:          userID,
		CourtID:         court.ID,
		BookingDate:     date,
		StartTime:       start.Format(clockLayout),
		EndTime:         endLabel,
		DurationMinutes: req.DurationMinutes,
		NumberOfPlayers: players,
		TeamName:        req.TeamName,
		SpecialRequests: req.SpecialRequests,
		PricePerHour:    roundCents(perPlayer * 60 / float64(req.DurationMinutes)),
		TotalAmount:     roundCents(perPlayer * float64(players)),
		Status:          models.BookingStatusConfirmed,
		PaymentStatus:   models.PaymentStatusPending,
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		if isUniqueViolation(err) {
			s.metrics.RecordBooking("conflict")
			return nil, appErrors.Clone(appErrors.ErrConflict, "a booking already exists for this slot")
		}
		s.metrics.RecordBooking("error")
		return nil, appErrors.Internal(err, "Booking creation failed")
	}

	s.metrics.RecordBooking("created")
	if s.listings != nil {
		s.listings.InvalidateListings(ctx)
	}
	s.recordAudit(ctx, log, booking)

	log.Info("booking created",
		zap.String("booking_id", booking.ID),
		zap.Float64("total_amount", booking.TotalAmount),
	)
	return booking, nil
}

// List returns the bookings of userID, most recent first.
func (s *BookingService) List(ctx context.Context, userID string) ([]models.Booking, error) {
	bookings, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list bookings")
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}

// ListPage returns one page of the booking history of userID.
func (s *BookingService) ListPage(ctx context.Context, userID string, query dto.BookingListQuery) ([]models.Booking, *models.Pagination, error) {
	if query.Page < 0 || query.PageSize < 0 {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "page and page_size must be positive")
	}
	page := query.Page
	if page == 0 {
		page = 1
	}
	size := query.PageSize
	switch {
	case size == 0:
		size = dto.DefaultBookingPageSize
	case size > dto.MaxBookingPageSize:
		size = dto.MaxBookingPageSize
	}

	bookings, err := s.List(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: len(bookings)}

	start := (page - 1) * size
	if start >= len(bookings) {
		return []models.Booking{}, pagination, nil
	}
	end := start + size
	if end > len(bookings) {
		end = len(bookings)
	}
	return bookings[start:end], pagination, nil
}

// Export renders the booking history of userID as CSV, PDF or XLSX.
func (s *BookingService) Export(ctx context.Context, userID string, format dto.ExportFormat) (*dto.ExportFile, error) {
	format = dto.ExportFormat(strings.ToLower(string(format)))
	if format == "" {
		format = dto.ExportFormatCSV
	}
	switch format {
	case dto.ExportFormatCSV, dto.ExportFormatPDF, dto.ExportFormatXLSX:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv, pdf or xlsx")
	}

	bookings, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	dataset := bookingDataset(bookings)
	stamp := time.Now().UTC().Format("20060102")

	switch format {
	case dto.ExportFormatPDF:
		data, err := s.pdf.Render(dataset, "Booking history")
		if err != nil {
			return nil, appErrors.Internal(err, "failed to render pdf")
		}
		return &dto.ExportFile{Filename: "bookings-" + stamp + ".pdf", ContentType: "application/pdf", Data: data}, nil
	case dto.ExportFormatXLSX:
		data, err := s.xlsx.Render(dataset, "Bookings")
		if err != nil {
			return nil, appErrors.Internal(err, "failed to render xlsx")
		}
		return &dto.ExportFile{Filename: "bookings-" + stamp + ".xlsx", ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", Data: data}, nil
	default:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to render csv")
		}
		return &dto.ExportFile{Filename: "bookings-" + stamp + ".csv", ContentType: "text/csv", Data: data}, nil
	}
}

func (s *BookingService) recordAudit(ctx context.Context, log *zap.Logger, booking *models.Booking) {
	if s.audit == nil {
		return
	}
	entry := models.NewAuditLog(booking.UserID, models.AuditActionBookingCreate, models.AuditResourceBooking, booking.ID,
		map[string]interface{}{
			"court_id":     booking.CourtID,
			"booking_date": booking.BookingDate.Format(DateLayout),
			"start_time":   booking.StartTime,
			"total_amount": booking.TotalAmount,
		})
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		log.Warn("failed to record audit log", zap.String("action", models.AuditActionBookingCreate), zap.Error(err))
	}
}

// parseStartTime accepts 24-hour "HH:MM" or 12-hour "hh:mm AM/PM" clock values.
func parseStartTime(raw string) (time.Time, error) {
	value := strings.ToUpper(strings.Join(strings.Fields(raw), " "))
	for _, layout := range startTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised start time %q", raw)
}

// priceHours walks every hour in [start, start+minutes) and charges the
// minutes spent in it at that hour's price: the slot price, else the client
// price, else the configured default. The result is per player. Any closed
// hour rejects the booking.
func (s *BookingService) priceHours(slots []dto.Slot, start time.Time, minutes int, clientPrice *float64) (float64, error) {
	from := start.Hour()*60 + start.Minute()
	to := from + minutes

	var amount float64
	for hour := from / 60; hour*60 < to; hour++ {
		slot, ok := findSlot(slots, hour)
		if !ok {
			return 0, appErrors.Clone(appErrors.ErrSlotUnavailable, fmt.Sprintf("slot %s is not available", slot.Time))
		}
		price := s.config.DefaultPricePerHour
		switch {
		case slot.Price > 0:
			price = slot.Price
		case clientPrice != nil && *clientPrice > 0:
			price = *clientPrice
		}
		used := min(to, (hour+1)*60) - max(from, hour*60)
		amount += price * float64(used) / 60
	}
	return amount, nil
}

func findSlot(slots []dto.Slot, hour int) (dto.Slot, bool) {
	label := hourLabel(hour)
	for _, slot := range slots {
		if slot.Time == label {
			return slot, slot.Available
		}
	}
	return dto.Slot{Time: label}, false
}

func bookingDataset(bookings []models.Booking) export.Dataset {
	headers := []string{"Date", "Start", "End", "Court", "Team", "Players", "Price/Hour", "Total", "Status", "Payment"}
	rows := make([]map[string]string, 0, len(bookings))
	var spent float64
	for _, b := range bookings {
		team := ""
		if b.TeamName != nil {
			team = *b.TeamName
		}
		rows = append(rows, map[string]string{
			"Date":       b.BookingDate.Format(DateLayout),
			"Start":      b.StartTime,
			"End":        b.EndTime,
			"Court":      b.CourtID,
			"Team":       team,
			"Players":    strconv.Itoa(b.NumberOfPlayers),
			"Price/Hour": strconv.FormatFloat(b.PricePerHour, 'f', 2, 64),
			"Total":      strconv.FormatFloat(b.TotalAmount, 'f', 2, 64),
			"Status":     string(b.Status),
			"Payment":    string(b.PaymentStatus),
		})
		if b.Status != models.BookingStatusCancelled {
			spent += b.TotalAmount
		}
	}
	return export.Dataset{
		Headers: headers,
		Rows:    rows,
		Summary: [][2]string{
			{"Bookings", strconv.Itoa(len(bookings))},
			{"Total spent", strconv.FormatFloat(roundCents(spent), 'f', 2, 64)},
		},
		RightAlign: map[string]bool{"Players": true, "Price/Hour": true, "Total": true},
	}
}
