package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/myrush/myrush-api/internal/dto"
	"github.com/myrush/myrush-api/internal/models"
	appErrors "github.com/myrush/myrush-api/pkg/errors"
)

type stubBookedHours struct {
	hours []int
	err   error

	gotCourt string
	gotDate  time.Time
}

func (s *stubBookedHours) BookedHours(_ context.Context, courtID string, date time.Time) ([]int, error) {
	s.gotCourt = courtID
	s.gotDate = date
	return s.hours, s.err
}

func testCourt(base float64, priceRules, blackouts string) *models.Court {
	return &models.Court{
		ID:                  "court-1",
		Name:                "Center Court",
		PricePerHour:        base,
		PriceConditions:     types.JSONText(priceRules),
		UnavailabilitySlots: types.JSONText(blackouts),
		IsActive:            true,
	}
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(DateLayout, s)
	require.NoError(t, err)
	return d
}

func slotTimes(slots []dto.Slot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Time)
	}
	return out
}

// 2024-06-03 is a Monday, 2024-06-06 a Thursday, 2024-06-07 a Friday.
const (
	monday   = "2024-06-03"
	thursday = "2024-06-06"
	friday   = "2024-06-07"
)

func TestSlotResolverDefaultsWithoutRules(t *testing.T) {
	bookings := &stubBookedHours{}
	resolver := NewSlotResolver(bookings, nil, zap.NewNop())

	for _, raw := range []string{"", "null", "[]"} {
		slots, err := resolver.Resolve(context.Background(), testCourt(300, raw, raw), mustDate(t, monday))
		require.NoError(t, err)
		require.Len(t, slots, 14)

		for i, slot := range slots {
			assert.Equal(t, hourLabel(8+i), slot.Time)
			assert.Equal(t, 300.0, slot.Price)
			assert.True(t, slot.Available)
		}
		assert.Equal(t, "08:00", slots[0].Time)
		assert.Equal(t, "09:00", slots[0].EndTime)
		assert.Equal(t, "08:00 AM - 09:00 AM", slots[0].DisplayTime)
		assert.Equal(t, "21:00", slots[13].Time)
		assert.Equal(t, "09:00 PM - 10:00 PM", slots[13].DisplayTime)
	}

	assert.Equal(t, "court-1", bookings.gotCourt)
	assert.Equal(t, monday, bookings.gotDate.Format(DateLayout))
}

func TestSlotResolverAdjacentWeekdayRules(t *testing.T) {
	rules := `[
		{"id":"early","days":["mon","tue","wed","thu","fri","sat","sun"],"slotFrom":"05:00","slotTo":"06:00","price":200},
		{"id":"dawn","days":["mon","tue","wed","thu","fri","sat","sun"],"slotFrom":"06:00","slotTo":"07:00","price":400}
	]`
	resolver := NewSlotResolver(&stubBookedHours{}, nil, nil)

	slots, err := resolver.Resolve(context.Background(), testCourt(999, rules, "[]"), mustDate(t, monday))
	require.NoError(t, err)
	require.Len(t, slots, 2)

	assert.Equal(t, dto.Slot{Time: "05:00", EndTime: "06:00", DisplayTime: "05:00 AM - 06:00 AM", Price: 200, Available: true}, slots[0])
	assert.Equal(t, dto.Slot{Time: "06:00", EndTime: "07:00", DisplayTime: "06:00 AM - 07:00 AM", Price: 400, Available: true}, slots[1])
}

func TestSlotResolverDateRulesReplaceWeekdayRules(t *testing.T) {
	rules := `[
		{"id":"weekly","days":["Monday"],"slotFrom":"08:00","slotTo":"22:00","price":"250"},
		{"id":"holiday","dates":["2024-06-03"],"slotFrom":"10:00","slotTo":"12:00","price":"500"}
	]`
	resolver := NewSlotResolver(&stubBookedHours{}, nil, nil)

	slots, err := resolver.Resolve(context.Background(), testCourt(100, rules, ""), mustDate(t, monday))
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00", "11:00"}, slotTimes(slots))
	for _, s := range slots {
		assert.Equal(t, 500.0, s.Price)
	}

	// Next Monday the date rule no longer matches and the weekly rule applies.
	slots, err = resolver.Resolve(context.Background(), testCourt(100, rules, ""), mustDate(t, "2024-06-10"))
	require.NoError(t, err)
	require.Len(t, slots, 14)
	assert.Equal(t, 250.0, slots[0].Price)
}

func TestSlotResolverWeekdayNamesNormalized(t *testing.T) {
	resolver := NewSlotResolver(&stubBookedHours{}, nil, nil)
	for _, day := range []string{"mon", "Mon", "MONDAY", "monday", " Monday "} {
		rules := `[{"days":["` + day + `"],"slotFrom":"18:00","slotTo":"19:00","price":600}]`
		slots, err := resolver.Resolve(context.Background(), testCourt(100, rules, ""), mustDate(t, monday))
		require.NoError(t, err)
		require.Len(t, slots, 1, day)
		assert.Equal(t, 600.0, slots[0].Price)
	}
}

func TestSlotResolverUnmatchedWeekdayFallsBackToDefault(t *testing.T) {
	rules := `[{"days":["sat","sun"],"slotFrom":"06:00","slotTo":"23:00","price":900}]`
	resolver := NewSlotResolver(&stubBookedHours{}, nil, nil)

	slots, err := resolver.Resolve(context.Background(), testCourt(150, rules, ""), mustDate(t, monday))
	require.NoError(t, err)
	require.Len(t, slots, 14)
	assert.Equal(t, 150.0, slots[0].Price)
}

func TestSlotResolverOverlapLastRuleWins(t *testing.T) {
	rules := `[
		{"id":"all-day","days":["mon"],"slotFrom":"08:00","slotTo":"12:00","price":200},
		{"id":"peak","days":["mon"],"slotFrom":"10:00","slotTo":"11:00","price":450}
	]`
	resolver := NewSlotResolver(&stubBookedHours{}, nil, nil)

	slots, err := resolver.Resolve(context.Background(), testCourt(100, rules, ""), mustDate(t, monday))
	require.NoError(t, err)
	require.Equal(t, []string{"08:00", "09:00", "10:00", "11:00"}, slotTimes(slots))
	assert.Equal(t, 200.0, slots[1].Price)
	assert.Equal(t, 450.0, slots[2].Price)
	assert.Equal(t, 200.0, slots[3].Price)
}

func TestSlotResolverOrdersByTime(t *testing.T) {
	rules := `[
		{"days":["mon"],"slotFrom":"20:00","slotTo":"22:00","price":500},
		{"days":["mon"],"slotFrom":"06:00","slotTo":"07:00","price":300},
		{"days":["mon"],"slotFrom":"12:00","slotTo":"13:00","price":400}
	]`
	resolver := NewSlotResolver(&stubBookedHours{}, nil, nil)

	slots, err := resolver.Resolve(context.Background(), testCourt(100, rules, ""), mustDate(t, monday))
	require.NoError(t, err)
	assert.Equal(t, []string{"06:00", "12:00", "20:00", "21:00"}, slotTimes(slots))
	assert.Equal(t, "12:00 PM - 01:00 PM", slots[1].DisplayTime)
}

func TestSlotResolverMidnightBoundaries(t *testing.T) {
	rules := `[
		{"days":["mon"],"slotFrom":"00:00","slotTo":"01:00","price":100},
		{"days":["mon"],"slotFrom":"23:00","slotTo":"24:00","price":100}
	]`
	resolver := NewSlotResolver(&stubBookedHours{}, nil, nil)

	slots, err := resolver.Resolve(context.Background(), testCourt(100, rules, ""), mustDate(t, monday))
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "12:00 AM - 01:00 AM", slots[0].DisplayTime)
	assert.Equal(t, "23:00", slots[1].Time)
	assert.Equal(t, "00:00", slots[1].EndTime)
	assert.Equal(t, "11:00 PM - 12:00 AM", slots[1].DisplayTime)
}

func TestSlotResolverRuleDefaults(t *testing.T) {
	rules := `[{"id":"bare","days":["mon"]}]`
	resolver := NewSlotResolver(&stubBookedHours{}, nil, nil)

	slots, err := resolver.Resolve(context.Background(), testCourt(275, rules, ""), mustDate(t, monday))
	require.NoError(t, err)
	require.Len(t, slots, 14)
	assert.Equal(t, "08:00", slots[0].Time)
	assert.Equal(t, "21:00", slots[13].Time)
	assert.Equal(t, 275.0, slots[5].Price)
}

func TestSlotResolverSkipsMalformedRules(t *testing.T) {
	rules := `[
		{"id":"bad-hour","days":["mon"],"slotFrom":"ab:00","slotTo":"10:00","price":100},
		{"id":"bad-price","days":["mon"],"slotFrom":"08:00","slotTo":"10:00","price":"abc"},
		{"id":"inverted","days":["mon"],"slotFrom":"12:00","slotTo":"10:00","price":100},
		{"id":"empty","days":["mon"],"slotFrom":"10:00","slotTo":"10:00","price":100},
		{"id":"too-late","days":["mon"],"slotFrom":"20:00","slotTo":"25:00","price":100},
		{"id":"free","days":["mon"],"slotFrom":"08:00","slotTo":"09:00","price":0},
		{"id":"no-scope","slotFrom":"08:00","slotTo":"09:00","price":100},
		{"id":"bad-days","days":"monday","slotFrom":"08:00","slotTo":"09:00","price":100},
		"not-an-object",
		{"id":"good","days":["mon"],"slotFrom":"15:00","slotTo":"16:00","price":"325.50"}
	]`
	metrics := NewMetricsService()
	resolver := NewSlotResolver(&stubBookedHours{}, metrics, nil)

	slots, err := resolver.Resolve(context.Background(), testCourt(100, rules, ""), mustDate(t, monday))
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "15:00", slots[0].Time)
	assert.Equal(t, 325.5, slots[0].Price)
	assert.Equal(t, 8.0, testutil.ToFloat64(metrics.skippedRules.WithLabelValues("price")))
}

func TestSlotResolverMalformedDatesFallBackToDaysWithWarning(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	rules := `[{"id":"r1","dates":"2024-06-03","days":["mon"],"slotFrom":"18:00","slotTo":"19:00","price":500}]`
	blackouts := `[{"dates":{"on":"2024-06-03"},"days":["Monday"],"times":["18:00"]}]`
	resolver := NewSlotResolver(&stubBookedHours{}, nil, zap.New(core))

	slots, err := resolver.Resolve(context.Background(), testCourt(100, rules, ""), mustDate(t, monday))
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, 500.0, slots[0].Price)

	warned := logs.FilterMessage("ignoring malformed rule dates, falling back to days").All()
	require.Len(t, warned, 1)
	assert.Equal(t, "r1", warned[0].ContextMap()["rule_id"])

	slots, err = resolver.Resolve(context.Background(), testCourt(100, rules, blackouts), mustDate(t, monday))
	require.NoError(t, err)
	assert.Empty(t, slots)
	assert.Equal(t, 3, logs.FilterMessage("ignoring malformed rule dates, falling back to days").Len())
}

func TestSlotResolverAllRulesMalformedUsesDefault(t *testing.T) {
	rules := `[{"days":["mon"],"slotFrom":"x","price":100}]`
	resolver := NewSlotResolver(&stubBookedHours{}, nil, nil)

	slots, err := resolver.Resolve(context.Background(), testCourt(180, rules, ""), mustDate(t, monday))
	require.NoError(t, err)
	assert.Len(t, slots, 14)
}

func TestSlotResolverNonListColumnIgnored(t *testing.T) {
	resolver := NewSlotResolver(&stubBookedHours{}, nil, nil)

	slots, err := resolver.Resolve(context.Background(), testCourt(180, `{"days":["mon"]}`, `"oops"`), mustDate(t, monday))
	require.NoError(t, err)
	assert.Len(t, slots, 14)
}

func TestSlotResolverWeekdayBlackout(t *testing.T) {
	rules := `[{"days":["thu","fri"],"slotFrom":"17:00","slotTo":"20:00","price":500}]`
	blackouts := `[{"days":["Friday"],"times":["18:00"]}]`
	resolver := NewSlotResolver(&stubBookedHours{}, nil, nil)

	slots, err := resolver.Resolve(context.Background(), testCourt(100, rules, blackouts), mustDate(t, friday))
	require.NoError(t, err)
	assert.Equal(t, []string{"17:00", "19:00"}, slotTimes(slots))

	slots, err = resolver.Resolve(context.Background(), testCourt(100, rules, blackouts), mustDate(t, thursday))
	require.NoError(t, err)
	assert.Equal(t, []string{"17:00", "18:00", "19:00"}, slotTimes(slots))
}

func TestSlotResolverBlackoutMatchesFullDayNameOnly(t *testing.T) {
	blackouts := `[
		{"days":["fri"],"times":["08:00"]},
		{"days":["FRIDAY"],"times":["09:00"]}
	]`
	resolver := NewSlotResolver(&stubBookedHours{}, nil, nil)

	slots, err := resolver.Resolve(context.Background(), testCourt(100, "", blackouts), mustDate(t, friday))
	require.NoError(t, err)
	times := slotTimes(slots)
	assert.Contains(t, times, "08:00")
	assert.NotContains(t, times, "09:00")
	assert.Len(t, times, 13)
}

func TestSlotResolverDateBlackout(t *testing.T) {
	blackouts := `[{"dates":["2024-06-03","2024-06-04"],"times":["08:00","21:00","23:00"]}]`
	resolver := NewSlotResolver(&stubBookedHours{}, nil, nil)

	slots, err := resolver.Resolve(context.Background(), testCourt(100, "", blackouts), mustDate(t, monday))
	require.NoError(t, err)
	require.Len(t, slots, 12)
	assert.Equal(t, "09:00", slots[0].Time)
	assert.Equal(t, "20:00", slots[11].Time)

	slots, err = resolver.Resolve(context.Background(), testCourt(100, "", blackouts), mustDate(t, thursday))
	require.NoError(t, err)
	assert.Len(t, slots, 14)
}

func TestSlotResolverBlackoutPrefersDatesWhenBothPresent(t *testing.T) {
	blackouts := `[{"dates":["2024-12-25"],"days":["Monday"],"times":["10:00"]}]`
	resolver := NewSlotResolver(&stubBookedHours{}, nil, nil)

	slots, err := resolver.Resolve(context.Background(), testCourt(100, "", blackouts), mustDate(t, monday))
	require.NoError(t, err)
	assert.Contains(t, slotTimes(slots), "10:00")
}

func TestSlotResolverExcludesBookedHours(t *testing.T) {
	bookings := &stubBookedHours{hours: []int{9, 9, 14, 3, 30}}
	resolver := NewSlotResolver(bookings, nil, nil)

	slots, err := resolver.Resolve(context.Background(), testCourt(100, "", ""), mustDate(t, monday))
	require.NoError(t, err)
	times := slotTimes(slots)
	assert.Len(t, times, 12)
	assert.NotContains(t, times, "09:00")
	assert.NotContains(t, times, "14:00")
	assert.Contains(t, times, "10:00")
}

func TestSlotResolverBookingFetchFailure(t *testing.T) {
	metrics := NewMetricsService()
	resolver := NewSlotResolver(&stubBookedHours{err: errors.New("connection reset")}, metrics, nil)

	slots, err := resolver.Resolve(context.Background(), testCourt(100, "", ""), mustDate(t, monday))
	require.Error(t, err)
	assert.Nil(t, slots)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
	assert.Equal(t, 500, appErr.Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.slotResolutions.WithLabelValues("default", "error")))
}

func TestSlotResolverIsDeterministic(t *testing.T) {
	rules := `[
		{"days":["mon"],"slotFrom":"06:00","slotTo":"12:00","price":300},
		{"days":["mon"],"slotFrom":"09:00","slotTo":"15:00","price":350}
	]`
	blackouts := `[{"days":["Monday"],"times":["11:00"]}]`
	resolver := NewSlotResolver(&stubBookedHours{hours: []int{7}}, nil, nil)
	court := testCourt(100, rules, blackouts)

	first, err := resolver.Resolve(context.Background(), court, mustDate(t, monday))
	require.NoError(t, err)
	second, err := resolver.Resolve(context.Background(), court, mustDate(t, monday))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	for _, s := range first {
		assert.True(t, s.Available)
	}
}

func TestClockLabel(t *testing.T) {
	cases := map[int]string{
		0:  "12:00 AM",
		1:  "01:00 AM",
		11: "11:00 AM",
		12: "12:00 PM",
		13: "01:00 PM",
		23: "11:00 PM",
	}
	for hour, want := range cases {
		assert.Equal(t, want, clockLabel(hour))
	}
}
