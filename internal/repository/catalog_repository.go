package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/myrush/myrush-api/internal/models"
)

// CatalogRepository reads the admin-managed lookup tables.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs a CatalogRepository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListCities returns active cities ordered by name.
func (r *CatalogRepository) ListCities(ctx context.Context) ([]models.City, error) {
	const query = `SELECT id, name, short_code, is_active FROM admin_cities WHERE is_active = TRUE ORDER BY name`
	var cities []models.City
	if err := r.db.SelectContext(ctx, &cities, query); err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	return cities, nil
}

// ListGameTypes returns active game types ordered by name.
func (r *CatalogRepository) ListGameTypes(ctx context.Context) ([]models.GameType, error) {
	const query = `SELECT id, name, icon_url, is_active FROM admin_game_types WHERE is_active = TRUE ORDER BY name`
	var gameTypes []models.GameType
	if err := r.db.SelectContext(ctx, &gameTypes, query); err != nil {
		return nil, fmt.Errorf("list game types: %w", err)
	}
	return gameTypes, nil
}
