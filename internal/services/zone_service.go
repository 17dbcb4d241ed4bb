package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/mbodj/retam/internal/geometry"
	"github.com/mbodj/retam/internal/logger"
	"github.com/mbodj/retam/internal/models"
	"github.com/mbodj/retam/internal/repository"
)

// Service-level errors
var (
	ErrZoneNotFound     = errors.New("zone not found")
	ErrInvalidZone      = errors.New("invalid zone")
	ErrTaxpayerNotFound = errors.New("taxpayer not found")
	ErrPaymentNotFound  = errors.New("payment not found")
)

// ZoneResolutionStatus tags the outcome of resolving a point to a zone.
type ZoneResolutionStatus string

const (
	// ZoneResolved means exactly one active zone contains the point.
	ZoneResolved ZoneResolutionStatus = "resolved"
	// ZoneAmbiguous means several active zones contain the point; Zone
	// holds the one that was picked.
	ZoneAmbiguous ZoneResolutionStatus = "ambiguous"
	// ZoneNoMatch means no active zone contains the point.
	ZoneNoMatch ZoneResolutionStatus = "no_match"
)

// ZoneResolution is the tagged result of a point-to-zone lookup. Callers
// always learn whether the match was unique, ambiguous or absent instead
// of receiving a bare zone pointer.
type ZoneResolution struct {
	Zone       *models.Zone
	Candidates []models.Zone
	Status     ZoneResolutionStatus
}

// ZoneService defines the interface for zone business logic operations.
type ZoneService interface {
	// ListZones returns all zones, or only active ones when activeOnly is set.
	ListZones(ctx context.Context, activeOnly bool) ([]models.Zone, error)

	// GetZone retrieves a zone by ID. Returns ErrZoneNotFound if it does
	// not exist.
	GetZone(ctx context.Context, id int64) (*models.Zone, error)

	// CreateZone validates the zone's polygon and persists it.
	CreateZone(ctx context.Context, zone *models.Zone, rawGeometry string) error

	// UpdateZone rewrites a zone; rawGeometry may be empty to keep the
	// existing polygon. Returns ErrZoneNotFound if the zone is missing.
	UpdateZone(ctx context.Context, zone *models.Zone, rawGeometry string) error

	// SetZoneActive toggles a zone's active flag.
	SetZoneActive(ctx context.Context, id int64, active bool) error

	// DeleteZone removes a zone. Returns ErrZoneNotFound if it is missing.
	DeleteZone(ctx context.Context, id int64) error

	// ResolveZone finds the active zone(s) containing the point and
	// reports the outcome as a tagged resolution. When several zones
	// overlap, the lowest-ID zone wins and the ambiguity is logged.
	ResolveZone(ctx context.Context, pt *models.Point) (*ZoneResolution, error)

	// Distribution returns taxpayer counts per zone name.
	Distribution(ctx context.Context) ([]repository.ZoneCount, error)
}

type zoneService struct {
	repo repository.ZoneRepository
	log  *logger.Logger
}

// NewZoneService creates a new instance of ZoneService.
func NewZoneService(repo repository.ZoneRepository, log *logger.Logger) ZoneService {
	return &zoneService{
		repo: repo,
		log:  log,
	}
}

func (s *zoneService) ListZones(ctx context.Context, activeOnly bool) ([]models.Zone, error) {
	zones, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		s.log.Error("Failed to list zones", err, nil)
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}
	return zones, nil
}

func (s *zoneService) GetZone(ctx context.Context, id int64) (*models.Zone, error) {
	zone, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to get zone", err, map[string]interface{}{"zone_id": id})
		return nil, fmt.Errorf("failed to get zone %d: %w", id, err)
	}
	if zone == nil {
		return nil, ErrZoneNotFound
	}
	return zone, nil
}

func (s *zoneService) CreateZone(ctx context.Context, zone *models.Zone, rawGeometry string) error {
	poly, err := geometry.NormalizePolygon(rawGeometry)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidZone, err.Error())
	}
	if poly == nil {
		return fmt.Errorf("%w: geometry is required", ErrInvalidZone)
	}
	zone.Geom = *poly

	if zone.Color == "" {
		zone.Color = models.DefaultZoneColor
	}

	if err := s.repo.Create(ctx, zone); err != nil {
		s.log.Error("Failed to create zone", err, map[string]interface{}{"name": zone.Name})
		return fmt.Errorf("failed to create zone: %w", err)
	}

	s.log.Info("Zone created", map[string]interface{}{
		"zone_id": zone.ID,
		"name":    zone.Name,
	})
	return nil
}

func (s *zoneService) UpdateZone(ctx context.Context, zone *models.Zone, rawGeometry string) error {
	if rawGeometry != "" {
		poly, err := geometry.NormalizePolygon(rawGeometry)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidZone, err.Error())
		}
		zone.Geom = *poly
	} else {
		existing, err := s.repo.GetByID(ctx, zone.ID)
		if err != nil {
			return fmt.Errorf("failed to load zone %d: %w", zone.ID, err)
		}
		if existing == nil {
			return ErrZoneNotFound
		}
		zone.Geom = existing.Geom
	}

	found, err := s.repo.Update(ctx, zone)
	if err != nil {
		s.log.Error("Failed to update zone", err, map[string]interface{}{"zone_id": zone.ID})
		return fmt.Errorf("failed to update zone %d: %w", zone.ID, err)
	}
	if !found {
		return ErrZoneNotFound
	}
	return nil
}

func (s *zoneService) SetZoneActive(ctx context.Context, id int64, active bool) error {
	found, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return fmt.Errorf("failed to set zone %d active=%t: %w", id, active, err)
	}
	if !found {
		return ErrZoneNotFound
	}
	return nil
}

func (s *zoneService) DeleteZone(ctx context.Context, id int64) error {
	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.log.Error("Failed to delete zone", err, map[string]interface{}{"zone_id": id})
		return fmt.Errorf("failed to delete zone %d: %w", id, err)
	}
	if !found {
		return ErrZoneNotFound
	}
	return nil
}

func (s *zoneService) ResolveZone(ctx context.Context, pt *models.Point) (*ZoneResolution, error) {
	if pt == nil {
		return &ZoneResolution{Status: ZoneNoMatch}, nil
	}
	if err := geometry.ValidateCoordinates(pt.Lat(), pt.Lon()); err != nil {
		return nil, err
	}

	candidates, err := s.repo.FindContaining(ctx, *pt)
	if err != nil {
		s.log.Error("Failed to resolve zone", err, map[string]interface{}{
			"lat": pt.Lat(),
			"lng": pt.Lon(),
		})
		return nil, fmt.Errorf("failed to resolve zone: %w", err)
	}

	switch len(candidates) {
	case 0:
		return &ZoneResolution{Status: ZoneNoMatch}, nil
	case 1:
		return &ZoneResolution{Status: ZoneResolved, Zone: &candidates[0]}, nil
	default:
		// FindContaining orders by ID, so the first candidate is the
		// deterministic winner.
		names := make([]string, 0, len(candidates))
		for _, z := range candidates {
			names = append(names, z.Name)
		}
		s.log.Warn("Point contained by multiple active zones", map[string]interface{}{
			"lat":      pt.Lat(),
			"lng":      pt.Lon(),
			"zones":    names,
			"resolved": candidates[0].Name,
		})
		return &ZoneResolution{
			Status:     ZoneAmbiguous,
			Zone:       &candidates[0],
			Candidates: candidates,
		}, nil
	}
}

func (s *zoneService) Distribution(ctx context.Context) ([]repository.ZoneCount, error) {
	counts, err := s.repo.Distribution(ctx)
	if err != nil {
		s.log.Error("Failed to compute zone distribution", err, nil)
		return nil, fmt.Errorf("failed to compute zone distribution: %w", err)
	}
	return counts, nil
}
