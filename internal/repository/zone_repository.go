package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/mbodj/retam/internal/database"
	"github.com/mbodj/retam/internal/models"
)

// ZoneCount is a zone-distribution bucket: taxpayer count per zone name.
// Name is "unspecified" for taxpayers without a zone.
type ZoneCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// ZoneRepository defines data access for administrative zones.
type ZoneRepository interface {
	// List returns zones ordered by name, optionally active ones only.
	List(ctx context.Context, activeOnly bool) ([]models.Zone, error)

	// GetByID returns nil, nil when the zone does not exist.
	GetByID(ctx context.Context, id int64) (*models.Zone, error)

	// Create inserts a zone and fills in its generated ID and timestamps.
	Create(ctx context.Context, zone *models.Zone) error

	// Update rewrites a zone's mutable fields. Returns nil, nil semantics
	// via a found flag.
	Update(ctx context.Context, zone *models.Zone) (bool, error)

	// SetActive toggles the active flag, the normal way to retire a zone.
	SetActive(ctx context.Context, id int64, active bool) (bool, error)

	// Delete removes a zone. Dependent taxpayer locations are detached
	// (zone_id set NULL by the schema), not deleted.
	Delete(ctx context.Context, id int64) (bool, error)

	// FindContaining returns every active zone whose polygon contains the
	// point, ordered by ID. Empty result is not an error.
	FindContaining(ctx context.Context, pt models.Point) ([]models.Zone, error)

	// Distribution counts taxpayers per zone name, descending, with an
	// "unspecified" bucket for zone-less taxpayers.
	Distribution(ctx context.Context) ([]ZoneCount, error)
}

type zoneRepository struct {
	db *database.Database
}

// NewZoneRepository creates a new ZoneRepository.
func NewZoneRepository(db *database.Database) ZoneRepository {
	return &zoneRepository{db: db}
}

const zoneColumns = `
	id,
	name,
	description,
	responsible,
	color,
	active,
	ST_AsGeoJSON(geom) as geometry,
	created_at,
	updated_at
`

func scanZone(row pgx.Row) (*models.Zone, error) {
	var zone models.Zone
	var geomJSON []byte

	err := row.Scan(
		&zone.ID,
		&zone.Name,
		&zone.Description,
		&zone.Responsible,
		&zone.Color,
		&zone.Active,
		&geomJSON,
		&zone.CreatedAt,
		&zone.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := zone.Geom.Scan(geomJSON); err != nil {
		return nil, fmt.Errorf("failed to parse geometry for zone %d: %w", zone.ID, err)
	}

	return &zone, nil
}

func (r *zoneRepository) List(ctx context.Context, activeOnly bool) ([]models.Zone, error) {
	query := `SELECT ` + zoneColumns + ` FROM zones`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY name`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query zones: %w", err)
	}
	defer rows.Close()

	zones := []models.Zone{}
	for rows.Next() {
		zone, err := scanZone(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan zone row: %w", err)
		}
		zones = append(zones, *zone)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating zone rows: %w", err)
	}

	return zones, nil
}

func (r *zoneRepository) GetByID(ctx context.Context, id int64) (*models.Zone, error) {
	query := `SELECT ` + zoneColumns + ` FROM zones WHERE id = $1`

	zone, err := scanZone(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query zone %d: %w", id, err)
	}
	return zone, nil
}

func (r *zoneRepository) Create(ctx context.Context, zone *models.Zone) error {
	query := `
		INSERT INTO zones (name, description, responsible, color, active, geom)
		VALUES ($1, $2, $3, $4, $5, ST_SetSRID(ST_GeomFromGeoJSON($6), 4326))
		RETURNING id, created_at, updated_at
	`

	geomJSON, err := zone.Geom.Value()
	if err != nil {
		return fmt.Errorf("failed to encode zone geometry: %w", err)
	}

	err = r.db.Pool.QueryRow(ctx, query,
		zone.Name,
		zone.Description,
		zone.Responsible,
		zone.Color,
		zone.Active,
		geomJSON,
	).Scan(&zone.ID, &zone.CreatedAt, &zone.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert zone %q: %w", zone.Name, err)
	}

	return nil
}

func (r *zoneRepository) Update(ctx context.Context, zone *models.Zone) (bool, error) {
	query := `
		UPDATE zones
		SET name = $1,
		    description = $2,
		    responsible = $3,
		    color = $4,
		    active = $5,
		    geom = ST_SetSRID(ST_GeomFromGeoJSON($6), 4326),
		    updated_at = now()
		WHERE id = $7
	`

	geomJSON, err := zone.Geom.Value()
	if err != nil {
		return false, fmt.Errorf("failed to encode zone geometry: %w", err)
	}

	tag, err := r.db.Pool.Exec(ctx, query,
		zone.Name,
		zone.Description,
		zone.Responsible,
		zone.Color,
		zone.Active,
		geomJSON,
		zone.ID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update zone %d: %w", zone.ID, err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *zoneRepository) SetActive(ctx context.Context, id int64, active bool) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE zones SET active = $1, updated_at = now() WHERE id = $2`,
		active, id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to set zone %d active=%t: %w", id, active, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *zoneRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM zones WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete zone %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// FindContaining runs the point-in-polygon containment query against
// active zones. ST_Contains excludes points exactly on the boundary; the
// spatial index on geom drives the search.
//
// Note: PostGIS expects (longitude, latitude) order, not (lat, lng).
func (r *zoneRepository) FindContaining(ctx context.Context, pt models.Point) ([]models.Zone, error) {
	query := `SELECT ` + zoneColumns + `
		FROM zones
		WHERE active
		  AND ST_Contains(geom, ST_SetSRID(ST_MakePoint($1, $2), 4326))
		ORDER BY id
	`

	rows, err := r.db.Pool.Query(ctx, query, pt.Lon(), pt.Lat())
	if err != nil {
		return nil, fmt.Errorf("failed to query zones containing point (lat=%f, lng=%f): %w",
			pt.Lat(), pt.Lon(), err)
	}
	defer rows.Close()

	zones := []models.Zone{}
	for rows.Next() {
		zone, err := scanZone(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan zone row: %w", err)
		}
		zones = append(zones, *zone)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating zone rows: %w", err)
	}

	return zones, nil
}

func (r *zoneRepository) Distribution(ctx context.Context) ([]ZoneCount, error) {
	query := `
		SELECT COALESCE(z.name, 'unspecified') as zone_name, COUNT(t.id) as taxpayer_count
		FROM taxpayers t
		LEFT JOIN taxpayer_locations l ON l.taxpayer_id = t.id
		LEFT JOIN zones z ON z.id = l.zone_id
		GROUP BY zone_name
		ORDER BY taxpayer_count DESC, zone_name
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query zone distribution: %w", err)
	}
	defer rows.Close()

	counts := []ZoneCount{}
	for rows.Next() {
		var zc ZoneCount
		if err := rows.Scan(&zc.Name, &zc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan zone distribution row: %w", err)
		}
		counts = append(counts, zc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating zone distribution rows: %w", err)
	}

	return counts, nil
}
