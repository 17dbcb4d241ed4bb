// Package geometry normalizes and validates geometry input for zones and
// taxpayer locations. Input may be WKT, a GeoJSON geometry, or a GeoJSON
// Feature; output always carries the default spatial reference (EPSG:4326).
package geometry

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/mbodj/retam/internal/models"
)

var (
	// ErrInvalidGeometry signals input that is neither well-formed WKT nor
	// well-formed GeoJSON, or a geometry of the wrong shape.
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrInvalidCoordinate signals a point outside valid geographic ranges.
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrZoneMismatch signals a point that does not lie within the zone it
	// was submitted with.
	ErrZoneMismatch = errors.New("point does not lie within the selected zone")
)

// Coordinate validation constants
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// Normalize parses raw geometry input into an orb.Geometry. Blank input
// normalizes to nil geometry without error. Normalization is idempotent:
// feeding the WKT or GeoJSON rendering of a normalized geometry back in
// yields an equal geometry.
func Normalize(raw string) (orb.Geometry, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	// GeoJSON input starts with an object; anything else is tried as WKT.
	if strings.HasPrefix(raw, "{") {
		geom, err := parseGeoJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		}
		return geom, nil
	}

	geom, err := wkt.Unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: not well-formed WKT or GeoJSON", ErrInvalidGeometry)
	}
	return geom, nil
}

// parseGeoJSON accepts either a bare geometry object or a Feature wrapping one.
func parseGeoJSON(raw string) (orb.Geometry, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return nil, err
	}

	if probe.Type == "Feature" {
		feature, err := geojson.UnmarshalFeature([]byte(raw))
		if err != nil {
			return nil, err
		}
		return feature.Geometry, nil
	}

	geom, err := geojson.UnmarshalGeometry([]byte(raw))
	if err != nil {
		return nil, err
	}
	return geom.Geometry(), nil
}

// NormalizePolygon parses raw input into a validated zone polygon.
// Blank input yields nil, nil.
func NormalizePolygon(raw string) (*models.Polygon, error) {
	geom, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	if geom == nil {
		return nil, nil
	}

	poly, ok := geom.(orb.Polygon)
	if !ok {
		return nil, fmt.Errorf("%w: expected Polygon, got %s", ErrInvalidGeometry, geom.GeoJSONType())
	}

	if err := ValidatePolygon(poly); err != nil {
		return nil, err
	}

	m := models.PolygonFromOrb(poly)
	return &m, nil
}

// NormalizePoint parses raw input into a validated location point.
// Blank input yields nil, nil.
func NormalizePoint(raw string) (*models.Point, error) {
	geom, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	if geom == nil {
		return nil, nil
	}

	pt, ok := geom.(orb.Point)
	if !ok {
		return nil, fmt.Errorf("%w: expected Point, got %s", ErrInvalidGeometry, geom.GeoJSONType())
	}

	if err := ValidateCoordinates(pt[1], pt[0]); err != nil {
		return nil, err
	}

	m := models.PointFromOrb(pt)
	return &m, nil
}

// ValidateCoordinates checks that latitude and longitude are within
// geographic bounds.
func ValidateCoordinates(lat, lon float64) error {
	if lat < MinLatitude || lat > MaxLatitude {
		return fmt.Errorf("%w: latitude must be between %.0f and %.0f, got %f",
			ErrInvalidCoordinate, MinLatitude, MaxLatitude, lat)
	}
	if lon < MinLongitude || lon > MaxLongitude {
		return fmt.Errorf("%w: longitude must be between %.0f and %.0f, got %f",
			ErrInvalidCoordinate, MinLongitude, MaxLongitude, lon)
	}
	return nil
}

// ValidatePolygon checks that every ring is closed, has at least four
// points, stays within coordinate bounds, and does not self-intersect.
func ValidatePolygon(poly orb.Polygon) error {
	if len(poly) == 0 {
		return fmt.Errorf("%w: polygon has no rings", ErrInvalidGeometry)
	}

	for i, ring := range poly {
		if len(ring) < 4 {
			return fmt.Errorf("%w: ring %d has fewer than 4 points", ErrInvalidGeometry, i)
		}
		if !ring.Closed() {
			return fmt.Errorf("%w: ring %d is not closed", ErrInvalidGeometry, i)
		}
		for _, pt := range ring {
			if err := ValidateCoordinates(pt[1], pt[0]); err != nil {
				return err
			}
		}
		if ringSelfIntersects(ring) {
			return fmt.Errorf("%w: ring %d self-intersects", ErrInvalidGeometry, i)
		}
	}
	return nil
}

// PolygonContains reports whether the point lies within the polygon.
// Boundary points count as inside (ray casting via orb/planar), which is
// stricter than the PostGIS ST_Contains used by zone resolution; the
// difference only shows for points exactly on a zone edge.
func PolygonContains(poly models.Polygon, pt models.Point) bool {
	return planar.PolygonContains(poly.Orb(), pt.Orb())
}

// CheckZoneConsistency verifies that a location point lies within the
// polygon of its assigned zone. Either side being absent is consistent.
func CheckZoneConsistency(zone *models.Polygon, pt *models.Point) error {
	if zone == nil || pt == nil {
		return nil
	}
	if !PolygonContains(*zone, *pt) {
		return ErrZoneMismatch
	}
	return nil
}

// ringSelfIntersects does a pairwise segment check. Rings here are small
// hand-drawn zone boundaries, so the quadratic scan is fine.
func ringSelfIntersects(ring orb.Ring) bool {
	n := len(ring) - 1 // last point repeats the first
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			// Adjacent segments share an endpoint; skip them, including
			// the wrap-around pair (first, last).
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			if segmentsIntersect(ring[i], ring[i+1], ring[j], ring[j+1]) {
				return true
			}
		}
	}
	return false
}

func segmentsIntersect(p1, p2, q1, q2 orb.Point) bool {
	d1 := cross(q1, q2, p1)
	d2 := cross(q1, q2, p2)
	d3 := cross(p1, p2, q1)
	d4 := cross(p1, p2, q2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	return (d1 == 0 && onSegment(q1, q2, p1)) ||
		(d2 == 0 && onSegment(q1, q2, p2)) ||
		(d3 == 0 && onSegment(p1, p2, q1)) ||
		(d4 == 0 && onSegment(p1, p2, q2))
}

func cross(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

func onSegment(a, b, p orb.Point) bool {
	return min(a[0], b[0]) <= p[0] && p[0] <= max(a[0], b[0]) &&
		min(a[1], b[1]) <= p[1] && p[1] <= max(a[1], b[1])
}
