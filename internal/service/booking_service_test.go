package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/myrush/myrush-api/internal/dto"
	"github.com/myrush/myrush-api/internal/models"
	appErrors "github.com/myrush/myrush-api/pkg/errors"
)

type mockBookingRepo struct {
	created   []*models.Booking
	createErr error
	list      []models.Booking
	listErr   error

	overlap    bool
	overlapErr error
	overlapArg [2]string
}

func (m *mockBookingRepo) Overlaps(ctx context.Context, courtID string, date time.Time, startTime, endTime string) (bool, error) {
	m.overlapArg = [2]string{startTime, endTime}
	return m.overlap, m.overlapErr
}

func (m *mockBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	if m.createErr != nil {
		return m.createErr
	}
	booking.ID = "booking-1"
	m.created = append(m.created, booking)
	return nil
}

func (m *mockBookingRepo) ListByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	return m.list, m.listErr
}

type mockAuditRecorder struct {
	logs []*models.AuditLog
}

func (m *mockAuditRecorder) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) InvalidateListings(ctx context.Context) { c.calls++ }

type bookingFixture struct {
	bookings    *mockBookingRepo
	courts      *mockCourtRepo
	booked      *stubBookedHours
	audit       *mockAuditRecorder
	invalidator *countingInvalidator
	metrics     *MetricsService
	svc         *BookingService
}

func newBookingFixture(court *models.Court) *bookingFixture {
	f := &bookingFixture{
		bookings:    &mockBookingRepo{},
		courts:      &mockCourtRepo{courts: map[string]*models.Court{court.ID: court}},
		booked:      &stubBookedHours{},
		audit:       &mockAuditRecorder{},
		invalidator: &countingInvalidator{},
		metrics:     NewMetricsService(),
	}
	resolver := NewSlotResolver(f.booked, f.metrics, zap.NewNop())
	f.svc = NewBookingService(f.bookings, f.courts, resolver, f.audit, f.invalidator, f.metrics, nil, zap.NewNop(), BookingConfig{})
	return f
}

func intPtr(v int) *int { return &v }

func TestBookingServiceCreateUsesSlotPrice(t *testing.T) {
	rules := `[{"days":["mon"],"slotFrom":"18:00","slotTo":"21:00","price":600}]`
	f := newBookingFixture(testCourt(300, rules, "[]"))
	clientPrice := 50.0

	booking, err := f.svc.Create(context.Background(), "u1", dto.CreateBookingRequest{
		CourtID:         "court-1",
		BookingDate:     monday,
		StartTime:       "06:00 pm",
		DurationMinutes: 90,
		NumberOfPlayers: intPtr(4),
		PricePerHour:    &clientPrice,
	})
	require.NoError(t, err)

	assert.Equal(t, "booking-1", booking.ID)
	assert.Equal(t, "18:00:00", booking.StartTime)
	assert.Equal(t, "19:30:00", booking.EndTime)
	assert.Equal(t, 600.0, booking.PricePerHour)
	assert.Equal(t, 3600.0, booking.TotalAmount)
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, models.PaymentStatusPending, booking.PaymentStatus)

	assert.Equal(t, 1, f.invalidator.calls)
	require.Len(t, f.audit.logs, 1)
	assert.Equal(t, models.AuditActionBookingCreate, f.audit.logs[0].Action)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.bookingsCreated.WithLabelValues("created")))
}

func TestBookingServiceCreateDefaults(t *testing.T) {
	f := newBookingFixture(testCourt(250, "", ""))

	booking, err := f.svc.Create(context.Background(), "u1", dto.CreateBookingRequest{
		CourtID:         "court-1",
		BookingDate:     monday,
		StartTime:       "21:00",
		DurationMinutes: 60,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, booking.NumberOfPlayers)
	assert.Equal(t, 250.0, booking.PricePerHour)
	assert.Equal(t, 500.0, booking.TotalAmount)
	assert.Equal(t, "22:00:00", booking.EndTime)
}

func TestBookingServiceCreateEndsAtMidnight(t *testing.T) {
	rules := `[{"days":["mon"],"slotFrom":"23:00","slotTo":"24:00","price":100}]`
	f := newBookingFixture(testCourt(250, rules, ""))

	booking, err := f.svc.Create(context.Background(), "u1", dto.CreateBookingRequest{
		CourtID: "court-1", BookingDate: monday, StartTime: "11:00 PM", DurationMinutes: 60,
	})
	require.NoError(t, err)
	assert.Equal(t, "24:00:00", booking.EndTime)

	_, err = f.svc.Create(context.Background(), "u1", dto.CreateBookingRequest{
		CourtID: "court-1", BookingDate: monday, StartTime: "23:00", DurationMinutes: 90,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBookingServiceCreateRejectsUnavailableSlot(t *testing.T) {
	blackouts := `[{"days":["Monday"],"times":["10:00"]}]`
	f := newBookingFixture(testCourt(300, "", blackouts))
	f.booked.hours = []int{12}

	for _, start := range []string{"10:00", "12:30", "06:00", "22:00"} {
		_, err := f.svc.Create(context.Background(), "u1", dto.CreateBookingRequest{
			CourtID: "court-1", BookingDate: monday, StartTime: start, DurationMinutes: 60,
		})
		require.Error(t, err, start)
		assert.Equal(t, appErrors.ErrSlotUnavailable.Code, appErrors.FromError(err).Code, start)
	}
	assert.Empty(t, f.bookings.created)
	assert.Zero(t, f.invalidator.calls)
}

func TestBookingServiceCreateRequiresEveryCoveredHour(t *testing.T) {
	rules := `[{"days":["mon"],"slotFrom":"18:00","slotTo":"21:00","price":600}]`
	blackouts := `[{"days":["Monday"],"times":["20:00"]}]`
	f := newBookingFixture(testCourt(300, rules, blackouts))
	f.booked.hours = []int{19}

	_, err := f.svc.Create(context.Background(), "u1", dto.CreateBookingRequest{
		CourtID: "court-1", BookingDate: monday, StartTime: "18:00", DurationMinutes: 180,
	})
	require.Error(t, err)
	assert.Equal(t, 409, appErrors.FromError(err).Status)

	_, err = f.svc.Create(context.Background(), "u1", dto.CreateBookingRequest{
		CourtID: "court-1", BookingDate: monday, StartTime: "18:30", DurationMinutes: 60,
	})
	require.Error(t, err)
	assert.Equal(t, 409, appErrors.FromError(err).Status)

	assert.Empty(t, f.bookings.created)
	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.bookingsCreated.WithLabelValues("unavailable")))
}

func TestBookingServiceCreateChargesEachHourAtItsPrice(t *testing.T) {
	rules := `[{"days":["mon"],"slotFrom":"17:00","slotTo":"18:00","price":400},{"days":["mon"],"slotFrom":"18:00","slotTo":"20:00","price":600}]`
	f := newBookingFixture(testCourt(300, rules, ""))

	booking, err := f.svc.Create(context.Background(), "u1", dto.CreateBookingRequest{
		CourtID:         "court-1",
		BookingDate:     monday,
		StartTime:       "17:30",
		DurationMinutes: 120,
		NumberOfPlayers: intPtr(2),
	})
	require.NoError(t, err)

	// 30 min at 400, 60 min at 600, 30 min at 600
	assert.Equal(t, 2200.0, booking.TotalAmount)
	assert.Equal(t, 550.0, booking.PricePerHour)
	assert.Equal(t, "19:30:00", booking.EndTime)
	assert.Equal(t, [2]string{"17:30:00", "19:30:00"}, f.bookings.overlapArg)
}

func TestBookingServiceCreateRejectsOverlap(t *testing.T) {
	f := newBookingFixture(testCourt(300, "", ""))
	f.bookings.overlap = true

	_, err := f.svc.Create(context.Background(), "u1", dto.CreateBookingRequest{
		CourtID: "court-1", BookingDate: monday, StartTime: "19:00", DurationMinutes: 60,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSlotUnavailable.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.bookings.created)

	f.bookings.overlap = false
	f.bookings.overlapErr = errors.New("connection refused")
	_, err = f.svc.Create(context.Background(), "u1", dto.CreateBookingRequest{
		CourtID: "court-1", BookingDate: monday, StartTime: "19:00", DurationMinutes: 60,
	})
	require.Error(t, err)
	assert.Equal(t, 500, appErrors.FromError(err).Status)
}

func TestBookingServiceCreateInvalidInput(t *testing.T) {
	f := newBookingFixture(testCourt(300, "", ""))

	cases := []dto.CreateBookingRequest{
		{CourtID: "court-1", BookingDate: "03/06/2024", StartTime: "10:00", DurationMinutes: 60},
		{CourtID: "court-1", BookingDate: monday, StartTime: "ten", DurationMinutes: 60},
		{CourtID: "court-1", BookingDate: monday, StartTime: "25:00", DurationMinutes: 60},
		{CourtID: "court-1", BookingDate: monday, StartTime: "10:00", DurationMinutes: 10},
		{BookingDate: monday, StartTime: "10:00", DurationMinutes: 60},
	}
	for _, req := range cases {
		_, err := f.svc.Create(context.Background(), "u1", req)
		require.Error(t, err)
		assert.Equal(t, 400, appErrors.FromError(err).Status)
	}
}

func TestBookingServiceCreateUnknownCourt(t *testing.T) {
	f := newBookingFixture(testCourt(300, "", ""))

	_, err := f.svc.Create(context.Background(), "u1", dto.CreateBookingRequest{
		CourtID: "other", BookingDate: monday, StartTime: "10:00", DurationMinutes: 60,
	})
	require.Error(t, err)
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}

func TestBookingServiceCreateConflict(t *testing.T) {
	f := newBookingFixture(testCourt(300, "", ""))
	f.bookings.createErr = errors.Join(errors.New("create booking"), &pq.Error{Code: "23505"})

	_, err := f.svc.Create(context.Background(), "u1", dto.CreateBookingRequest{
		CourtID: "court-1", BookingDate: monday, StartTime: "10:00", DurationMinutes: 60,
	})
	require.Error(t, err)
	assert.Equal(t, 409, appErrors.FromError(err).Status)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.bookingsCreated.WithLabelValues("conflict")))
}

func TestBookingServiceListAndExport(t *testing.T) {
	f := newBookingFixture(testCourt(300, "", ""))
	date := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	f.bookings.list = []models.Booking{
		{ID: "b1", CourtID: "court-1", BookingDate: date, StartTime: "10:00:00", EndTime: "11:00:00", NumberOfPlayers: 2, PricePerHour: 300, TotalAmount: 600, Status: models.BookingStatusConfirmed, PaymentStatus: models.PaymentStatusPending},
		{ID: "b2", CourtID: "court-1", BookingDate: date, StartTime: "12:00:00", EndTime: "13:00:00", NumberOfPlayers: 1, PricePerHour: 300, TotalAmount: 300, Status: models.BookingStatusCancelled, PaymentStatus: models.PaymentStatusPending},
	}

	list, err := f.svc.List(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	csvFile, err := f.svc.Export(context.Background(), "u1", "CSV")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", csvFile.ContentType)
	assert.Contains(t, csvFile.Filename, ".csv")
	assert.Contains(t, string(csvFile.Data), "Date,Start,End,Court,Team,Players,Price/Hour,Total,Status,Payment")
	assert.Contains(t, string(csvFile.Data), "Total spent,600.00")

	pdfFile, err := f.svc.Export(context.Background(), "u1", dto.ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdfFile.ContentType)
	assert.True(t, bytes.HasPrefix(pdfFile.Data, []byte("%PDF")))

	xlsxFile, err := f.svc.Export(context.Background(), "u1", dto.ExportFormatXLSX)
	require.NoError(t, err)
	assert.Contains(t, xlsxFile.Filename, ".xlsx")
	assert.True(t, bytes.HasPrefix(xlsxFile.Data, []byte("PK")))

	_, err = f.svc.Export(context.Background(), "u1", "docx")
	require.Error(t, err)
	assert.Equal(t, 400, appErrors.FromError(err).Status)
}

func TestBookingServiceListEmpty(t *testing.T) {
	f := newBookingFixture(testCourt(300, "", ""))

	list, err := f.svc.List(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	f.bookings.listErr = errors.New("db down")
	_, err = f.svc.List(context.Background(), "u1")
	require.Error(t, err)
	assert.Equal(t, 500, appErrors.FromError(err).Status)
}

func TestBookingServiceListPage(t *testing.T) {
	f := newBookingFixture(testCourt(250, "", ""))
	for _, id := range []string{"b1", "b2", "b3"} {
		f.bookings.list = append(f.bookings.list, models.Booking{ID: id})
	}
	ctx := context.Background()

	page, pagination, err := f.svc.ListPage(ctx, "u1", dto.BookingListQuery{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "b3", page[0].ID)
	assert.Equal(t, models.Pagination{Page: 2, PageSize: 2, TotalCount: 3}, *pagination)

	page, pagination, err = f.svc.ListPage(ctx, "u1", dto.BookingListQuery{PageSize: 500})
	require.NoError(t, err)
	assert.Len(t, page, 3)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, dto.MaxBookingPageSize, pagination.PageSize)

	page, _, err = f.svc.ListPage(ctx, "u1", dto.BookingListQuery{Page: 9})
	require.NoError(t, err)
	assert.Empty(t, page)

	_, _, err = f.svc.ListPage(ctx, "u1", dto.BookingListQuery{Page: -1})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestParseStartTime(t *testing.T) {
	cases := map[string]string{
		"09:00":    "09:00:00",
		"9:30 am":  "09:30:00",
		"12:00 PM": "12:00:00",
		"12:15 AM": "00:15:00",
		"07:45PM":  "19:45:00",
		" 18:00 ":  "18:00:00",
		"06:00:00": "06:00:00",
	}
	for raw, want := range cases {
		got, err := parseStartTime(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got.Format(clockLayout), raw)
	}

	_, err := parseStartTime("noon")
	assert.Error(t, err)
}
