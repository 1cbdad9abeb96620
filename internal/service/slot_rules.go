package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/myrush/myrush-api/internal/models"
)

const (
	defaultSlotFrom = "08:00"
	defaultSlotTo   = "22:00"
)

var errMissingScope = errors.New("rule has neither dates nor days")

// decodePriceRules turns the admin-authored price_conditions JSON into typed rules.
// Entries that cannot be interpreted are skipped with a warning.
func decodePriceRules(raw []byte, basePrice float64, log *zap.Logger, metrics *MetricsService) []models.PriceRule {
	entries := decodeRuleEntries(raw, "price_conditions", log)
	rules := make([]models.PriceRule, 0, len(entries))
	for i, entry := range entries {
		rule, err := decodePriceRule(entry, basePrice, log.With(zap.Int("rule_index", i)))
		if err != nil {
			log.Warn("skipping malformed price rule",
				zap.String("rule_id", rule.ID),
				zap.Int("rule_index", i),
				zap.Error(err),
			)
			metrics.RecordSkippedRule("price")
			continue
		}
		rules = append(rules, rule)
	}
	return rules
}

// decodeBlackoutRules turns the unavailability_slots JSON into typed rules.
func decodeBlackoutRules(raw []byte, log *zap.Logger, metrics *MetricsService) []models.BlackoutRule {
	entries := decodeRuleEntries(raw, "unavailability_slots", log)
	rules := make([]models.BlackoutRule, 0, len(entries))
	for i, entry := range entries {
		rule, err := decodeBlackoutRule(entry, log.With(zap.Int("rule_index", i)))
		if err != nil {
			log.Warn("skipping malformed blackout rule", zap.Int("rule_index", i), zap.Error(err))
			metrics.RecordSkippedRule("blackout")
			continue
		}
		rules = append(rules, rule)
	}
	return rules
}

func decodeRuleEntries(raw []byte, column string, log *zap.Logger) []map[string]json.RawMessage {
	trimmed := strings.TrimSpace(string(raw))
	// sqlx JSONText scans SQL NULL as "{}".
	if trimmed == "" || trimmed == "null" || trimmed == "{}" {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		log.Warn("ignoring non-list rule column", zap.String("column", column), zap.Error(err))
		return nil
	}
	entries := make([]map[string]json.RawMessage, 0, len(items))
	for i, item := range items {
		var entry map[string]json.RawMessage
		if err := json.Unmarshal(item, &entry); err != nil || entry == nil {
			log.Warn("ignoring non-object rule entry", zap.String("column", column), zap.Int("rule_index", i))
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func decodePriceRule(entry map[string]json.RawMessage, basePrice float64, log *zap.Logger) (models.PriceRule, error) {
	rule := models.PriceRule{ID: decodeRuleID(entry["id"])}

	scope, err := decodeScope(entry, log.With(zap.String("rule_id", rule.ID)))
	if err != nil {
		return rule, err
	}
	rule.Scope = scope

	if rule.SlotFrom, err = decodeHour(entry["slotFrom"], defaultSlotFrom); err != nil {
		return rule, fmt.Errorf("slotFrom: %w", err)
	}
	if rule.SlotTo, err = decodeHour(entry["slotTo"], defaultSlotTo); err != nil {
		return rule, fmt.Errorf("slotTo: %w", err)
	}
	if rule.Price, err = decodePrice(entry["price"], basePrice); err != nil {
		return rule, fmt.Errorf("price: %w", err)
	}

	if rule.SlotFrom < 0 || rule.SlotTo > 24 {
		return rule, fmt.Errorf("hours %d-%d outside 0-24", rule.SlotFrom, rule.SlotTo)
	}
	if rule.SlotFrom >= rule.SlotTo {
		return rule, fmt.Errorf("slotFrom %d not before slotTo %d", rule.SlotFrom, rule.SlotTo)
	}
	if rule.Price <= 0 || math.IsNaN(rule.Price) || math.IsInf(rule.Price, 0) {
		return rule, fmt.Errorf("invalid price %v", rule.Price)
	}
	return rule, nil
}

func decodeBlackoutRule(entry map[string]json.RawMessage, log *zap.Logger) (models.BlackoutRule, error) {
	scope, err := decodeScope(entry, log)
	if err != nil {
		return models.BlackoutRule{}, err
	}
	var times []string
	if raw, ok := entry["times"]; ok && !isJSONNull(raw) {
		if err := json.Unmarshal(raw, &times); err != nil {
			return models.BlackoutRule{}, fmt.Errorf("times: %w", err)
		}
	}
	return models.BlackoutRule{Scope: scope, Times: times}, nil
}

// decodeScope prefers a dates list over a days list when an entry carries both.
// A dates value that is not a string list is reported and the days list used.
func decodeScope(entry map[string]json.RawMessage, log *zap.Logger) (models.RuleScope, error) {
	if raw, ok := entry["dates"]; ok && !isJSONNull(raw) {
		var dates []string
		err := json.Unmarshal(raw, &dates)
		if err == nil {
			return models.DateScope(dates...), nil
		}
		log.Warn("ignoring malformed rule dates, falling back to days", zap.Error(err))
	}
	if raw, ok := entry["days"]; ok && !isJSONNull(raw) {
		var days []string
		if err := json.Unmarshal(raw, &days); err != nil {
			return models.RuleScope{}, fmt.Errorf("days: %w", err)
		}
		return models.WeekdayScope(days...), nil
	}
	return models.RuleScope{}, errMissingScope
}

func decodeRuleID(raw json.RawMessage) string {
	if len(raw) == 0 || isJSONNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// decodeHour reads the hour component of an "HH:MM" value.
func decodeHour(raw json.RawMessage, fallback string) (int, error) {
	value := fallback
	if len(raw) > 0 && !isJSONNull(raw) {
		if err := json.Unmarshal(raw, &value); err != nil {
			return 0, fmt.Errorf("expected HH:MM string: %w", err)
		}
	}
	hourPart, _, _ := strings.Cut(strings.TrimSpace(value), ":")
	hour, err := strconv.Atoi(hourPart)
	if err != nil {
		return 0, fmt.Errorf("invalid hour %q", value)
	}
	return hour, nil
}

// decodePrice accepts a JSON number or a numeric string.
func decodePrice(raw json.RawMessage, fallback float64) (float64, error) {
	if len(raw) == 0 || isJSONNull(raw) {
		return fallback, nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("expected number or numeric string")
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	return n, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
