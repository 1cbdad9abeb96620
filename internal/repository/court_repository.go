package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/myrush/myrush-api/internal/models"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

const courtColumns = `id, branch_id, game_type_id, name, price_per_hour, price_conditions, unavailability_slots, operating_hours, images, videos, terms_and_conditions, is_active, created_at, updated_at`

const amenitiesAggregate = `COALESCE((SELECT json_agg(json_build_object('id', aa.id, 'name', aa.name, 'description', aa.description, 'icon', aa.icon, 'icon_url', aa.icon_url)) FROM admin_branch_amenities aba JOIN admin_amenities aa ON aa.id = aba.amenity_id AND aa.is_active = TRUE WHERE aba.branch_id = ab.id), '[]'::json) AS amenities`

var listingColumns = []string{
	"ac.id",
	"ac.name AS court_name",
	"ac.price_per_hour AS prices",
	"ac.images AS photos",
	"ac.videos",
	"ac.terms_and_conditions",
	"ac.created_at",
	"ac.updated_at",
	"ab.name AS branch_name",
	"ab.address_line1 AS location",
	"ab.search_location AS description",
	"acity.name AS city_name",
	"agt.name AS game_type",
}

// CourtRepository reads courts and their venue listings.
type CourtRepository struct {
	db *sqlx.DB
}

// NewCourtRepository constructs a CourtRepository.
func NewCourtRepository(db *sqlx.DB) *CourtRepository {
	return &CourtRepository{db: db}
}

// FindByID returns the raw court row regardless of its active flag.
func (r *CourtRepository) FindByID(ctx context.Context, id string) (*models.Court, error) {
	const query = `SELECT ` + courtColumns + ` FROM admin_courts WHERE id = $1`
	var court models.Court
	if err := r.db.GetContext(ctx, &court, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find court: %w", err)
	}
	return &court, nil
}

// FindActiveByID returns the court only when it is active.
func (r *CourtRepository) FindActiveByID(ctx context.Context, id string) (*models.Court, error) {
	const query = `SELECT ` + courtColumns + ` FROM admin_courts WHERE id = $1 AND is_active = TRUE`
	var court models.Court
	if err := r.db.GetContext(ctx, &court, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find active court: %w", err)
	}
	return &court, nil
}

// ListListings returns active courts joined with branch, city and game type.
// City matching is case-insensitive equality; game type is a substring match.
func (r *CourtRepository) ListListings(ctx context.Context, filter models.VenueFilter) ([]models.CourtListing, error) {
	builder := listingSelect(filter.WithAmenities).
		Where(squirrel.Eq{"ac.is_active": true}).
		OrderBy("ac.name")

	if city := strings.TrimSpace(filter.City); city != "" {
		builder = builder.Where("LOWER(acity.name) = LOWER(?)", city)
	}
	if gameType := strings.TrimSpace(filter.GameType); gameType != "" && gameType != "undefined" {
		builder = builder.Where(squirrel.ILike{"agt.name": "%" + gameType + "%"})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build listing query: %w", err)
	}

	var listings []models.CourtListing
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, fmt.Errorf("list courts: %w", err)
	}
	return listings, nil
}

// FindListing returns a single court listing, active or not.
func (r *CourtRepository) FindListing(ctx context.Context, id string) (*models.CourtListing, error) {
	query, args, err := listingSelect(false).Where(squirrel.Eq{"ac.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build listing query: %w", err)
	}

	var listing models.CourtListing
	if err := r.db.GetContext(ctx, &listing, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find court listing: %w", err)
	}
	return &listing, nil
}

func listingSelect(withAmenities bool) squirrel.SelectBuilder {
	amenities := "NULL::json AS amenities"
	if withAmenities {
		amenities = amenitiesAggregate
	}
	return psql.Select(listingColumns...).
		Column(amenities).
		From("admin_courts ac").
		Join("admin_branches ab ON ac.branch_id = ab.id").
		Join("admin_cities acity ON ab.city_id = acity.id").
		Join("admin_game_types agt ON ac.game_type_id = agt.id")
}
