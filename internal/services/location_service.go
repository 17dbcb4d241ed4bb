package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/mbodj/retam/internal/geometry"
	"github.com/mbodj/retam/internal/logger"
	"github.com/mbodj/retam/internal/models"
	"github.com/mbodj/retam/internal/repository"
)

// Radius validation constants
const (
	MinRadiusMeters     = 1
	MaxRadiusMeters     = 50000
	DefaultNearbyLimit  = 100
	earthRadiusKm       = 6371.0
	kmPerDegreeLatitude = 111.32
)

var (
	ErrLocationNotFound = errors.New("location not found")
	ErrInvalidRadius    = errors.New("radius must be between 1 and 50000 meters")
)

// LocationWithDistance pairs a location with its distance from a query point.
type LocationWithDistance struct {
	Location models.TaxpayerLocation `json:"location"`
	DistKm   float64                 `json:"distance_km"`
}

// LocationService defines the interface for taxpayer location operations.
type LocationService interface {
	// GetLocation returns the taxpayer's location. Returns
	// ErrLocationNotFound when none is recorded.
	GetLocation(ctx context.Context, taxpayerID int64) (*models.TaxpayerLocation, error)

	// SaveLocation normalizes the raw geometry and upserts the location.
	// A supplied zone is kept and, when a point is also present, checked
	// for containment (geometry.ErrZoneMismatch on failure). Without a
	// supplied zone the containing zone is resolved from the point; a
	// stale auto-assigned zone never survives a move.
	SaveLocation(ctx context.Context, loc *models.TaxpayerLocation, rawGeometry string) (*ZoneResolution, error)

	// DeleteLocation removes the taxpayer's location.
	DeleteLocation(ctx context.Context, taxpayerID int64) error

	// ListLocations returns locations matching the filter.
	ListLocations(ctx context.Context, filter repository.LocationFilter) ([]models.TaxpayerLocation, error)

	// Nearby returns locations within radiusMeters of the point, closest
	// first, capped at limit (DefaultNearbyLimit when limit <= 0).
	Nearby(ctx context.Context, lat, lng float64, radiusMeters int, limit int) ([]LocationWithDistance, error)
}

type locationService struct {
	repo  repository.LocationRepository
	zones ZoneService
	log   *logger.Logger
}

// NewLocationService creates a new instance of LocationService.
func NewLocationService(repo repository.LocationRepository, zones ZoneService, log *logger.Logger) LocationService {
	return &locationService{
		repo:  repo,
		zones: zones,
		log:   log,
	}
}

func (s *locationService) GetLocation(ctx context.Context, taxpayerID int64) (*models.TaxpayerLocation, error) {
	loc, err := s.repo.GetByTaxpayer(ctx, taxpayerID)
	if err != nil {
		s.log.Error("Failed to get location", err, map[string]interface{}{"taxpayer_id": taxpayerID})
		return nil, fmt.Errorf("failed to get location for taxpayer %d: %w", taxpayerID, err)
	}
	if loc == nil {
		return nil, ErrLocationNotFound
	}
	return loc, nil
}

func (s *locationService) SaveLocation(ctx context.Context, loc *models.TaxpayerLocation, rawGeometry string) (*ZoneResolution, error) {
	if rawGeometry != "" {
		pt, err := geometry.NormalizePoint(rawGeometry)
		if err != nil {
			return nil, err
		}
		loc.Geom = pt
	}

	if !loc.Precision.Valid() {
		return nil, fmt.Errorf("invalid location precision %q", loc.Precision)
	}
	if !loc.Source.Valid() {
		return nil, fmt.Errorf("invalid location source %q", loc.Source)
	}

	resolution := &ZoneResolution{Status: ZoneNoMatch}
	switch {
	case loc.ZoneID != nil:
		// Zone picked by the caller: keep it, but a point outside the
		// zone's polygon is a data-entry error, not something to repair.
		zone, err := s.zones.GetZone(ctx, *loc.ZoneID)
		if err != nil {
			return nil, err
		}
		if err := geometry.CheckZoneConsistency(&zone.Geom, loc.Geom); err != nil {
			return nil, err
		}
		resolution = &ZoneResolution{Status: ZoneResolved, Zone: zone}
	case loc.Geom != nil:
		var err error
		resolution, err = s.zones.ResolveZone(ctx, loc.Geom)
		if err != nil {
			return nil, err
		}
		if resolution.Zone != nil {
			loc.ZoneID = &resolution.Zone.ID
		} else {
			loc.ZoneID = nil
		}
	}

	if err := s.repo.Save(ctx, loc); err != nil {
		s.log.Error("Failed to save location", err, map[string]interface{}{"taxpayer_id": loc.TaxpayerID})
		return nil, fmt.Errorf("failed to save location for taxpayer %d: %w", loc.TaxpayerID, err)
	}

	fields := map[string]interface{}{
		"taxpayer_id": loc.TaxpayerID,
		"resolution":  string(resolution.Status),
	}
	if resolution.Zone != nil {
		fields["zone"] = resolution.Zone.Name
	}
	s.log.Info("Location saved", fields)

	return resolution, nil
}

func (s *locationService) DeleteLocation(ctx context.Context, taxpayerID int64) error {
	found, err := s.repo.Delete(ctx, taxpayerID)
	if err != nil {
		return fmt.Errorf("failed to delete location for taxpayer %d: %w", taxpayerID, err)
	}
	if !found {
		return ErrLocationNotFound
	}
	return nil
}

func (s *locationService) ListLocations(ctx context.Context, filter repository.LocationFilter) ([]models.TaxpayerLocation, error) {
	locations, err := s.repo.List(ctx, filter)
	if err != nil {
		s.log.Error("Failed to list locations", err, nil)
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return locations, nil
}

func (s *locationService) Nearby(ctx context.Context, lat, lng float64, radiusMeters int, limit int) ([]LocationWithDistance, error) {
	if err := geometry.ValidateCoordinates(lat, lng); err != nil {
		return nil, err
	}
	if radiusMeters < MinRadiusMeters || radiusMeters > MaxRadiusMeters {
		return nil, ErrInvalidRadius
	}
	if limit <= 0 {
		limit = DefaultNearbyLimit
	}

	radiusKm := float64(radiusMeters) / 1000.0
	box := bboxAround(lat, lng, radiusKm)

	candidates, err := s.repo.CandidatesInBBox(ctx, box)
	if err != nil {
		s.log.Error("Failed to query nearby candidates", err, map[string]interface{}{
			"lat": lat, "lng": lng, "radius_m": radiusMeters,
		})
		return nil, fmt.Errorf("failed to query nearby locations: %w", err)
	}

	results := []LocationWithDistance{}
	for _, loc := range candidates {
		if loc.Geom == nil {
			continue
		}
		d := haversineKm(lat, lng, loc.Geom.Lat(), loc.Geom.Lon())
		if d <= radiusKm {
			results = append(results, LocationWithDistance{Location: loc, DistKm: d})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].DistKm < results[j].DistKm
	})
	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// bboxAround returns a degree bounding box covering radiusKm around the
// point. The longitude span widens toward the poles; the cosine is floored
// to keep the box finite at extreme latitudes.
func bboxAround(lat, lng, radiusKm float64) repository.BoundingBox {
	latDelta := radiusKm / kmPerDegreeLatitude
	cosLat := math.Cos(lat * math.Pi / 180.0)
	if cosLat < 1e-5 {
		cosLat = 1e-5
	}
	lngDelta := radiusKm / (kmPerDegreeLatitude * cosLat)

	return repository.BoundingBox{
		MinLat: lat - latDelta,
		MaxLat: lat + latDelta,
		MinLon: lng - lngDelta,
		MaxLon: lng + lngDelta,
	}
}

// haversineKm computes the great-circle distance between two points.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := math.Pi / 180.0
	dLat := (lat2 - lat1) * toRad
	dLng := (lng2 - lng1) * toRad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*toRad)*math.Cos(lat2*toRad)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}
