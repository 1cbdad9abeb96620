package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/myrush/myrush-api/internal/dto"
	"github.com/myrush/myrush-api/internal/models"
	appErrors "github.com/myrush/myrush-api/pkg/errors"
	"github.com/myrush/myrush-api/pkg/logger"
)

const (
	// DateLayout is the ISO calendar date format used on the wire and in rules.
	DateLayout = "2006-01-02"

	defaultOpenHour  = 8
	defaultCloseHour = 22
)

// Rule sources reported in logs and metrics.
const (
	ruleSourceDate    = "date"
	ruleSourceWeekday = "weekday"
	ruleSourceDefault = "default"
)

// BookedHoursReader returns the start hours of non-cancelled bookings for a court on a date.
type BookedHoursReader interface {
	BookedHours(ctx context.Context, courtID string, date time.Time) ([]int, error)
}

// SlotResolver computes the bookable hourly slots of a court for one date.
type SlotResolver struct {
	bookings BookedHoursReader
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewSlotResolver constructs a SlotResolver.
func NewSlotResolver(bookings BookedHoursReader, metrics *MetricsService, logger *zap.Logger) *SlotResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlotResolver{bookings: bookings, metrics: metrics, logger: logger}
}

// Resolve returns the available slots of court on date, ascending by start time.
// The court must already be known to exist and be active.
//
// Date-scoped price rules matching the date replace weekday rules entirely; with
// neither, the court opens 08:00-22:00 at its base price. Rules covering the same
// hour overwrite each other in list order. Blackouts and existing bookings only
// mark slots unavailable, and unavailable slots are left out of the result.
func (r *SlotResolver) Resolve(ctx context.Context, court *models.Court, date time.Time) ([]dto.Slot, error) {
	start := time.Now()
	isoDate := date.Format(DateLayout)
	log := logger.ForRequest(ctx, r.logger).With(
		zap.String("court_id", court.ID),
		zap.String("date", isoDate),
	)

	priceRules := decodePriceRules(court.PriceConditions, court.PricePerHour, log, r.metrics)
	blackouts := decodeBlackoutRules(court.UnavailabilitySlots, log, r.metrics)

	active, source := selectPriceRules(priceRules, date, court.PricePerHour)
	grid := materializeSlots(active)
	applyBlackouts(&grid, blackouts, date)

	booked, err := r.bookings.BookedHours(ctx, court.ID, date)
	if err != nil {
		log.Error("failed to load bookings for slot resolution", zap.Error(err))
		r.metrics.ObserveSlotResolution(source, "error", 0, time.Since(start))
		return nil, appErrors.Internal(err, "failed to load bookings")
	}
	for _, hour := range booked {
		if hour >= 0 && hour < len(grid) && grid[hour] != nil {
			grid[hour].Available = false
		}
	}

	slots := make([]dto.Slot, 0, len(grid))
	for _, slot := range grid {
		if slot != nil && slot.Available {
			slots = append(slots, *slot)
		}
	}

	log.Debug("slots resolved",
		zap.String("rule_source", source),
		zap.Int("active_rules", len(active)),
		zap.Int("booked_hours", len(booked)),
		zap.Int("available", len(slots)),
	)
	r.metrics.ObserveSlotResolution(source, "ok", len(slots), time.Since(start))
	return slots, nil
}

// selectPriceRules picks the rule set in force on date and reports where it came from.
func selectPriceRules(rules []models.PriceRule, date time.Time, basePrice float64) ([]models.PriceRule, string) {
	isoDate := date.Format(DateLayout)
	dayKey := weekdayKey(date.Weekday().String())

	var byDate, byWeekday []models.PriceRule
	for _, rule := range rules {
		switch rule.Scope.Kind {
		case models.ScopeDates:
			if slices.Contains(rule.Scope.Dates, isoDate) {
				byDate = append(byDate, rule)
			}
		case models.ScopeWeekdays:
			for _, day := range rule.Scope.Days {
				if weekdayKey(day) == dayKey {
					byWeekday = append(byWeekday, rule)
					break
				}
			}
		}
	}

	switch {
	case len(byDate) > 0:
		return byDate, ruleSourceDate
	case len(byWeekday) > 0:
		return byWeekday, ruleSourceWeekday
	default:
		return defaultPriceRules(basePrice), ruleSourceDefault
	}
}

func defaultPriceRules(basePrice float64) []models.PriceRule {
	rules := make([]models.PriceRule, 0, defaultCloseHour-defaultOpenHour)
	for h := defaultOpenHour; h < defaultCloseHour; h++ {
		rules = append(rules, models.PriceRule{
			ID:       fmt.Sprintf("default-%d", h),
			SlotFrom: h,
			SlotTo:   h + 1,
			Price:    basePrice,
		})
	}
	return rules
}

// slotGrid indexes slots by start hour.
type slotGrid [24]*dto.Slot

func materializeSlots(rules []models.PriceRule) slotGrid {
	var grid slotGrid
	for _, rule := range rules {
		for h := rule.SlotFrom; h < rule.SlotTo; h++ {
			grid[h] = &dto.Slot{
				Time:        hourLabel(h),
				EndTime:     hourLabel((h + 1) % 24),
				DisplayTime: displayRange(h),
				Price:       rule.Price,
				Available:   true,
			}
		}
	}
	return grid
}

func applyBlackouts(grid *slotGrid, rules []models.BlackoutRule, date time.Time) {
	isoDate := date.Format(DateLayout)
	weekday := date.Weekday().String()
	for _, rule := range rules {
		if !blackoutApplies(rule.Scope, isoDate, weekday) {
			continue
		}
		for _, slot := range grid {
			if slot != nil && slices.Contains(rule.Times, slot.Time) {
				slot.Available = false
			}
		}
	}
}

// blackoutApplies matches weekday blackouts on the full day name only ("Friday", not "fri").
func blackoutApplies(scope models.RuleScope, isoDate, weekday string) bool {
	switch scope.Kind {
	case models.ScopeDates:
		return slices.Contains(scope.Dates, isoDate)
	case models.ScopeWeekdays:
		for _, day := range scope.Days {
			if strings.EqualFold(strings.TrimSpace(day), weekday) {
				return true
			}
		}
	}
	return false
}

// weekdayKey normalizes "Monday", "MON" and "mon" to "mon".
func weekdayKey(day string) string {
	day = strings.ToLower(strings.TrimSpace(day))
	if len(day) > 3 {
		return day[:3]
	}
	return day
}

func hourLabel(h int) string {
	return fmt.Sprintf("%02d:00", h)
}

func displayRange(h int) string {
	return clockLabel(h) + " - " + clockLabel((h+1)%24)
}

// clockLabel renders an hour on the 12-hour clock, e.g. 0 -> "12:00 AM", 13 -> "01:00 PM".
func clockLabel(h int) string {
	period := "AM"
	if h >= 12 {
		period = "PM"
	}
	display := h
	if display > 12 {
		display -= 12
	}
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%02d:00 %s", display, period)
}
