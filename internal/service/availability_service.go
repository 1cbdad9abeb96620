package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/myrush/myrush-api/internal/dto"
	"github.com/myrush/myrush-api/internal/models"
	appErrors "github.com/myrush/myrush-api/pkg/errors"
)

type activeCourtFinder interface {
	FindActiveByID(ctx context.Context, id string) (*models.Court, error)
}

type slotResolver interface {
	Resolve(ctx context.Context, court *models.Court, date time.Time) ([]dto.Slot, error)
}

// AvailabilityService answers available-slot queries for a court.
type AvailabilityService struct {
	courts   activeCourtFinder
	resolver slotResolver
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(courts activeCourtFinder, resolver slotResolver) *AvailabilityService {
	return &AvailabilityService{courts: courts, resolver: resolver}
}

// AvailableSlots resolves the open slots of courtID on rawDate (YYYY-MM-DD).
func (s *AvailabilityService) AvailableSlots(ctx context.Context, courtID, rawDate string) (*dto.AvailableSlotsResponse, error) {
	date, err := time.Parse(DateLayout, strings.TrimSpace(rawDate))
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid date format. Use YYYY-MM-DD")
	}

	court, err := loadActiveCourt(ctx, s.courts, courtID)
	if err != nil {
		return nil, err
	}

	slots, err := s.resolver.Resolve(ctx, court, date)
	if err != nil {
		return nil, err
	}

	return &dto.AvailableSlotsResponse{
		CourtID: court.ID,
		Date:    date.Format(DateLayout),
		Slots:   slots,
	}, nil
}

func loadActiveCourt(ctx context.Context, courts activeCourtFinder, id string) (*models.Court, error) {
	court, err := courts.FindActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Court not found or inactive")
		}
		return nil, appErrors.Internal(err, "failed to load court")
	}
	return court, nil
}
