package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/mbodj/retam/internal/database"
	"github.com/mbodj/retam/internal/models"
)

// BoundingBox is the degree rectangle used to prefilter proximity-search
// candidates before the exact haversine pass.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// LocationFilter narrows location listings for the map endpoints.
type LocationFilter struct {
	ZoneID       *int64
	Precision    *models.LocationPrecision
	VerifiedOnly bool
}

// LocationRepository defines data access for taxpayer locations.
type LocationRepository interface {
	// GetByTaxpayer returns nil, nil when the taxpayer has no location.
	GetByTaxpayer(ctx context.Context, taxpayerID int64) (*models.TaxpayerLocation, error)

	// Save upserts the 1:1 location row for a taxpayer, including its
	// resolved zone reference, as a single atomic statement.
	Save(ctx context.Context, loc *models.TaxpayerLocation) error

	// Delete removes a taxpayer's location.
	Delete(ctx context.Context, taxpayerID int64) (bool, error)

	// CandidatesInBBox returns located taxpayers inside the box. Rows
	// without a point are excluded by construction.
	CandidatesInBBox(ctx context.Context, box BoundingBox) ([]models.TaxpayerLocation, error)

	// List returns located taxpayers matching the filter, for map display.
	List(ctx context.Context, filter LocationFilter) ([]models.TaxpayerLocation, error)
}

type locationRepository struct {
	db *database.Database
}

// NewLocationRepository creates a new LocationRepository.
func NewLocationRepository(db *database.Database) LocationRepository {
	return &locationRepository{db: db}
}

const locationColumns = `
	l.id,
	l.taxpayer_id,
	l.zone_id,
	z.name,
	l.address,
	l.precision,
	l.source,
	l.verified,
	ST_AsGeoJSON(l.geom) as geometry,
	l.created_at,
	l.updated_at
`

func scanLocation(row pgx.Row) (*models.TaxpayerLocation, error) {
	var loc models.TaxpayerLocation
	var geomJSON []byte

	err := row.Scan(
		&loc.ID,
		&loc.TaxpayerID,
		&loc.ZoneID,
		&loc.ZoneName,
		&loc.Address,
		&loc.Precision,
		&loc.Source,
		&loc.Verified,
		&geomJSON,
		&loc.CreatedAt,
		&loc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if geomJSON != nil {
		var pt models.Point
		if err := pt.Scan(geomJSON); err != nil {
			return nil, fmt.Errorf("failed to parse geometry for location %d: %w", loc.ID, err)
		}
		loc.Geom = &pt
	}

	return &loc, nil
}

func (r *locationRepository) GetByTaxpayer(ctx context.Context, taxpayerID int64) (*models.TaxpayerLocation, error) {
	query := `SELECT ` + locationColumns + `
		FROM taxpayer_locations l
		LEFT JOIN zones z ON z.id = l.zone_id
		WHERE l.taxpayer_id = $1
	`

	loc, err := scanLocation(r.db.Pool.QueryRow(ctx, query, taxpayerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query location for taxpayer %d: %w", taxpayerID, err)
	}
	return loc, nil
}

// Save writes the location and its resolved zone in one statement, so the
// zone reference can never be persisted separately from the point it was
// resolved for.
func (r *locationRepository) Save(ctx context.Context, loc *models.TaxpayerLocation) error {
	query := `
		INSERT INTO taxpayer_locations
			(taxpayer_id, zone_id, geom, address, precision, source, verified)
		VALUES
			($1, $2, ST_SetSRID(ST_GeomFromGeoJSON($3), 4326), $4, $5, $6, $7)
		ON CONFLICT (taxpayer_id) DO UPDATE SET
			zone_id    = EXCLUDED.zone_id,
			geom       = EXCLUDED.geom,
			address    = EXCLUDED.address,
			precision  = EXCLUDED.precision,
			source     = EXCLUDED.source,
			verified   = EXCLUDED.verified,
			updated_at = now()
		RETURNING id, created_at, updated_at
	`

	var geomJSON interface{}
	if loc.Geom != nil {
		v, err := loc.Geom.Value()
		if err != nil {
			return fmt.Errorf("failed to encode location geometry: %w", err)
		}
		geomJSON = v
	}

	err := r.db.Pool.QueryRow(ctx, query,
		loc.TaxpayerID,
		loc.ZoneID,
		geomJSON,
		loc.Address,
		loc.Precision,
		loc.Source,
		loc.Verified,
	).Scan(&loc.ID, &loc.CreatedAt, &loc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save location for taxpayer %d: %w", loc.TaxpayerID, err)
	}

	return nil
}

func (r *locationRepository) Delete(ctx context.Context, taxpayerID int64) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM taxpayer_locations WHERE taxpayer_id = $1`, taxpayerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete location for taxpayer %d: %w", taxpayerID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// CandidatesInBBox is the cheap necessary-but-not-sufficient prefilter for
// proximity search; the service layer applies the exact haversine cut.
func (r *locationRepository) CandidatesInBBox(ctx context.Context, box BoundingBox) ([]models.TaxpayerLocation, error) {
	query := `SELECT ` + locationColumns + `
		FROM taxpayer_locations l
		LEFT JOIN zones z ON z.id = l.zone_id
		WHERE l.geom IS NOT NULL
		  AND l.geom && ST_MakeEnvelope($1, $2, $3, $4, 4326)
		ORDER BY l.id
	`

	rows, err := r.db.Pool.Query(ctx, query, box.MinLon, box.MinLat, box.MaxLon, box.MaxLat)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations in bounding box: %w", err)
	}
	defer rows.Close()

	return collectLocations(rows)
}

func (r *locationRepository) List(ctx context.Context, filter LocationFilter) ([]models.TaxpayerLocation, error) {
	query := `SELECT ` + locationColumns + `
		FROM taxpayer_locations l
		LEFT JOIN zones z ON z.id = l.zone_id
		WHERE l.geom IS NOT NULL
	`
	args := []interface{}{}

	if filter.ZoneID != nil {
		args = append(args, *filter.ZoneID)
		query += fmt.Sprintf(" AND l.zone_id = $%d", len(args))
	}
	if filter.Precision != nil {
		args = append(args, *filter.Precision)
		query += fmt.Sprintf(" AND l.precision = $%d", len(args))
	}
	if filter.VerifiedOnly {
		query += " AND l.verified"
	}
	query += " ORDER BY l.id"

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	return collectLocations(rows)
}

func collectLocations(rows pgx.Rows) ([]models.TaxpayerLocation, error) {
	locations := []models.TaxpayerLocation{}
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan location row: %w", err)
		}
		locations = append(locations, *loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating location rows: %w", err)
	}
	return locations, nil
}
