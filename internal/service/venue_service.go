package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/myrush/myrush-api/internal/dto"
	"github.com/myrush/myrush-api/internal/models"
	appErrors "github.com/myrush/myrush-api/pkg/errors"
)

const venueCachePrefix = "venues:"

type courtRepository interface {
	FindByID(ctx context.Context, id string) (*models.Court, error)
	FindActiveByID(ctx context.Context, id string) (*models.Court, error)
	ListListings(ctx context.Context, filter models.VenueFilter) ([]models.CourtListing, error)
	FindListing(ctx context.Context, id string) (*models.CourtListing, error)
}

// VenueService serves venue and court listings.
type VenueService struct {
	courts courtRepository
	cache  *CacheService
	logger *zap.Logger
}

// NewVenueService constructs a VenueService.
func NewVenueService(courts courtRepository, cache *CacheService, logger *zap.Logger) *VenueService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VenueService{courts: courts, cache: cache, logger: logger}
}

// ListVenues returns active courts matching the query. City and location are synonyms.
func (s *VenueService) ListVenues(ctx context.Context, query dto.VenueQuery) ([]dto.VenueListing, error) {
	return s.list(ctx, query, false)
}

// ListCourts is ListVenues with branch amenities attached.
func (s *VenueService) ListCourts(ctx context.Context, query dto.VenueQuery) ([]dto.VenueListing, error) {
	return s.list(ctx, query, true)
}

// GetVenue returns the raw court row.
func (s *VenueService) GetVenue(ctx context.Context, id string) (*models.Court, error) {
	court, err := s.courts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Venue not found")
		}
		return nil, appErrors.Internal(err, "failed to load venue")
	}
	return court, nil
}

// GetCourt returns one court listing.
func (s *VenueService) GetCourt(ctx context.Context, id string) (*dto.VenueListing, error) {
	listing, err := s.courts.FindListing(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Court not found")
		}
		return nil, appErrors.Internal(err, "failed to load court")
	}
	out := toVenueListing(*listing, false)
	return &out, nil
}

// InvalidateListings drops every cached listing.
func (s *VenueService) InvalidateListings(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, venueCachePrefix+"*"); err != nil {
		s.logger.Warn("failed to invalidate venue listings", zap.Error(err))
	}
}

func (s *VenueService) list(ctx context.Context, query dto.VenueQuery, withAmenities bool) ([]dto.VenueListing, error) {
	city := strings.TrimSpace(query.City)
	if city == "" {
		city = strings.TrimSpace(query.Location)
	}
	filter := models.VenueFilter{City: city, GameType: strings.TrimSpace(query.GameType), WithAmenities: withAmenities}
	key := listingCacheKey(filter)

	return remember(ctx, s.cache, key, "list_listings", func(ctx context.Context) ([]dto.VenueListing, error) {
		rows, err := s.courts.ListListings(ctx, filter)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to list venues")
		}
		listings := make([]dto.VenueListing, 0, len(rows))
		for _, row := range rows {
			listings = append(listings, toVenueListing(row, withAmenities))
		}
		return listings, nil
	})
}

func listingCacheKey(f models.VenueFilter) string {
	kind := "venues"
	if f.WithAmenities {
		kind = "courts"
	}
	return fmt.Sprintf("%s%s:city=%s:game=%s", venueCachePrefix, kind, strings.ToLower(f.City), strings.ToLower(f.GameType))
}

func toVenueListing(row models.CourtListing, withAmenities bool) dto.VenueListing {
	location := ""
	if row.Location != nil {
		location = *row.Location
	}
	description := ""
	if row.Description != nil {
		description = *row.Description
	}
	if description == "" {
		description = fmt.Sprintf("%s - %s Court", row.BranchName, row.GameType)
	}
	terms := ""
	if row.TermsAndConditions != nil {
		terms = *row.TermsAndConditions
	}

	listing := dto.VenueListing{
		ID:                 row.ID,
		CourtName:          row.CourtName,
		Location:           fmt.Sprintf("%s, %s", location, row.CityName),
		GameType:           row.GameType,
		Prices:             strconv.FormatFloat(row.Prices, 'f', -1, 64),
		Description:        description,
		TermsAndConditions: terms,
		Photos:             jsonArrayOrEmpty(row.Photos),
		Videos:             jsonArrayOrEmpty(row.Videos),
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}
	if withAmenities {
		listing.Amenities = jsonArrayOrEmpty(row.Amenities)
	}
	return listing
}

// jsonArrayOrEmpty turns NULL or non-array JSON into [].
func jsonArrayOrEmpty(raw []byte) json.RawMessage {
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "[") {
		return json.RawMessage("[]")
	}
	return json.RawMessage(trimmed)
}
