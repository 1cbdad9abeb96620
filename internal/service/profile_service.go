package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/myrush/myrush-api/internal/dto"
	"github.com/myrush/myrush-api/internal/models"
	appErrors "github.com/myrush/myrush-api/pkg/errors"
)

const (
	cacheKeyCities    = "catalog:cities"
	cacheKeyGameTypes = "catalog:game_types"
)

type profileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Profile, error)
	Upsert(ctx context.Context, profile *models.Profile) error
}

type profileUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateNames(ctx context.Context, user *models.User) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type catalogRepository interface {
	ListCities(ctx context.Context) ([]models.City, error)
	ListGameTypes(ctx context.Context) ([]models.GameType, error)
}

// ProfileService manages player profiles and the lookup lists the profile form needs.
type ProfileService struct {
	profiles  profileRepository
	users     profileUserRepository
	catalog   catalogRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProfileService constructs a ProfileService.
func NewProfileService(profiles profileRepository, users profileUserRepository, catalog catalogRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{profiles: profiles, users: users, catalog: catalog, cache: cache, validator: validate, logger: logger}
}

// Get returns the profile of userID.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Internal(err, "failed to load profile")
	}
	return profile, nil
}

// Upsert creates the profile of userID or merges the supplied fields into it.
func (s *ProfileService) Upsert(ctx context.Context, userID string, req dto.UpsertProfileRequest) (*models.Profile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid profile payload")
	}

	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Internal(err, "failed to load profile")
		}
		profile = &models.Profile{ID: userID}
	}

	phone := strings.TrimSpace(req.PhoneNumber)
	profile.PhoneNumber = &phone
	if err := applyProfileFields(profile, req.ProfileFields); err != nil {
		return nil, appErrors.Invalid(err, "invalid sports list")
	}

	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, appErrors.Internal(err, "failed to save profile")
	}

	if req.FullName != nil {
		s.syncDisplayName(ctx, userID, *req.FullName)
	}

	entry := models.NewAuditLog(userID, models.AuditActionProfileUpsert, models.AuditResourceProfile, userID, nil)
	if err := s.users.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", models.AuditActionProfileUpsert), zap.Error(err))
	}

	return profile, nil
}

// Cities lists active cities.
func (s *ProfileService) Cities(ctx context.Context) ([]models.City, error) {
	return remember(ctx, s.cache, cacheKeyCities, "list_cities", func(ctx context.Context) ([]models.City, error) {
		cities, err := s.catalog.ListCities(ctx)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to load cities")
		}
		return cities, nil
	})
}

// GameTypes lists active game types.
func (s *ProfileService) GameTypes(ctx context.Context) ([]models.GameType, error) {
	return remember(ctx, s.cache, cacheKeyGameTypes, "list_game_types", func(ctx context.Context) ([]models.GameType, error) {
		gameTypes, err := s.catalog.ListGameTypes(ctx)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to load game types")
		}
		return gameTypes, nil
	})
}

func (s *ProfileService) syncDisplayName(ctx context.Context, userID, fullName string) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to load user for name sync", zap.String("user_id", userID), zap.Error(err))
		return
	}
	name := strings.TrimSpace(fullName)
	user.FirstName = &name
	if err := s.users.UpdateNames(ctx, user); err != nil {
		s.logger.Warn("failed to sync user name", zap.String("user_id", userID), zap.Error(err))
	}
}

// applyProfileFields copies every supplied field onto profile, leaving the rest untouched.
func applyProfileFields(profile *models.Profile, fields dto.ProfileFields) error {
	if fields.FullName != nil {
		profile.FullName = fields.FullName
	}
	if fields.Age != nil {
		profile.Age = fields.Age
	}
	if fields.City != nil {
		profile.City = fields.City
	}
	if fields.Gender != nil {
		profile.Gender = fields.Gender
	}
	if fields.Handedness != nil {
		profile.Handedness = fields.Handedness
	}
	if fields.SkillLevel != nil {
		profile.SkillLevel = fields.SkillLevel
	}
	if fields.PlayingStyle != nil {
		profile.PlayingStyle = fields.PlayingStyle
	}
	if fields.Sports != nil {
		raw, err := json.Marshal(fields.Sports)
		if err != nil {
			return err
		}
		profile.Sports = types.JSONText(raw)
	}
	return nil
}
