package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
)

// DefaultSRID is the spatial reference every stored geometry carries
// (EPSG:4326, longitude/latitude degrees).
const DefaultSRID = 4326

// Point represents a PostGIS Point geometry in GeoJSON coordinate order
// [lon, lat], SRID 4326.
type Point struct {
	Coordinates [2]float64
	SRID        int
}

// Lon returns the longitude (x) component.
func (p Point) Lon() float64 { return p.Coordinates[0] }

// Lat returns the latitude (y) component.
func (p Point) Lat() float64 { return p.Coordinates[1] }

// Orb converts the point to its orb representation.
func (p Point) Orb() orb.Point {
	return orb.Point{p.Coordinates[0], p.Coordinates[1]}
}

// Scan implements sql.Scanner for reading point geometry from the database.
// The repository layer always selects geometry via ST_AsGeoJSON, so the
// driver hands us GeoJSON bytes.
func (p *Point) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan Point: expected []byte, got %T", value)
	}

	var geom struct {
		Type        string     `json:"type"`
		Coordinates [2]float64 `json:"coordinates"`
	}

	if err := json.Unmarshal(bytes, &geom); err != nil {
		return fmt.Errorf("failed to unmarshal point geometry: %w", err)
	}

	if geom.Type != "Point" {
		return fmt.Errorf("expected Point type, got %s", geom.Type)
	}

	p.Coordinates = geom.Coordinates
	p.SRID = DefaultSRID

	return nil
}

// Value implements driver.Valuer for writing point geometry to the database.
// Returns a GeoJSON string for use with ST_GeomFromGeoJSON in raw SQL.
func (p Point) Value() (driver.Value, error) {
	geom := map[string]interface{}{
		"type":        "Point",
		"coordinates": p.Coordinates,
	}

	geoJSON, err := json.Marshal(geom)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal point to GeoJSON: %w", err)
	}

	return string(geoJSON), nil
}

// MarshalJSON implements json.Marshaler for API responses.
func (p Point) MarshalJSON() ([]byte, error) {
	geom := struct {
		Type        string     `json:"type"`
		Coordinates [2]float64 `json:"coordinates"`
	}{
		Type:        "Point",
		Coordinates: p.Coordinates,
	}
	return json.Marshal(geom)
}

// UnmarshalJSON implements json.Unmarshaler for parsing GeoJSON input.
func (p *Point) UnmarshalJSON(data []byte) error {
	var geom struct {
		Type        string     `json:"type"`
		Coordinates [2]float64 `json:"coordinates"`
	}

	if err := json.Unmarshal(data, &geom); err != nil {
		return fmt.Errorf("failed to unmarshal point: %w", err)
	}

	if geom.Type != "" && geom.Type != "Point" {
		return fmt.Errorf("expected Point type, got %s", geom.Type)
	}

	p.Coordinates = geom.Coordinates
	p.SRID = DefaultSRID

	return nil
}

// Polygon represents a PostGIS Polygon geometry. Coordinates follow the
// GeoJSON structure [rings][points][lon,lat], SRID 4326.
type Polygon struct {
	Coordinates [][][2]float64
	SRID        int
}

// Orb converts the polygon to its orb representation.
func (p Polygon) Orb() orb.Polygon {
	poly := make(orb.Polygon, 0, len(p.Coordinates))
	for _, ring := range p.Coordinates {
		r := make(orb.Ring, 0, len(ring))
		for _, pt := range ring {
			r = append(r, orb.Point{pt[0], pt[1]})
		}
		poly = append(poly, r)
	}
	return poly
}

// PolygonFromOrb builds a Polygon from an orb.Polygon.
func PolygonFromOrb(poly orb.Polygon) Polygon {
	coords := make([][][2]float64, 0, len(poly))
	for _, ring := range poly {
		r := make([][2]float64, 0, len(ring))
		for _, pt := range ring {
			r = append(r, [2]float64{pt[0], pt[1]})
		}
		coords = append(coords, r)
	}
	return Polygon{Coordinates: coords, SRID: DefaultSRID}
}

// PointFromOrb builds a Point from an orb.Point.
func PointFromOrb(pt orb.Point) Point {
	return Point{Coordinates: [2]float64{pt[0], pt[1]}, SRID: DefaultSRID}
}

// Scan implements sql.Scanner for reading polygon geometry from the database.
func (p *Polygon) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan Polygon: expected []byte, got %T", value)
	}

	var geom struct {
		Type        string         `json:"type"`
		Coordinates [][][2]float64 `json:"coordinates"`
	}

	if err := json.Unmarshal(bytes, &geom); err != nil {
		return fmt.Errorf("failed to unmarshal polygon geometry: %w", err)
	}

	if geom.Type != "Polygon" {
		return fmt.Errorf("expected Polygon type, got %s", geom.Type)
	}

	p.Coordinates = geom.Coordinates
	p.SRID = DefaultSRID

	return nil
}

// Value implements driver.Valuer for writing polygon geometry to the database.
func (p Polygon) Value() (driver.Value, error) {
	if len(p.Coordinates) == 0 {
		return nil, nil
	}

	geom := map[string]interface{}{
		"type":        "Polygon",
		"coordinates": p.Coordinates,
	}

	geoJSON, err := json.Marshal(geom)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal polygon to GeoJSON: %w", err)
	}

	return string(geoJSON), nil
}

// MarshalJSON implements json.Marshaler for API responses.
func (p Polygon) MarshalJSON() ([]byte, error) {
	geom := struct {
		Type        string         `json:"type"`
		Coordinates [][][2]float64 `json:"coordinates"`
	}{
		Type:        "Polygon",
		Coordinates: p.Coordinates,
	}
	return json.Marshal(geom)
}

// UnmarshalJSON implements json.Unmarshaler for parsing GeoJSON input.
func (p *Polygon) UnmarshalJSON(data []byte) error {
	var geom struct {
		Type        string         `json:"type"`
		Coordinates [][][2]float64 `json:"coordinates"`
	}

	if err := json.Unmarshal(data, &geom); err != nil {
		return fmt.Errorf("failed to unmarshal polygon: %w", err)
	}

	if geom.Type != "" && geom.Type != "Polygon" {
		return fmt.Errorf("expected Polygon type, got %s", geom.Type)
	}

	p.Coordinates = geom.Coordinates
	p.SRID = DefaultSRID

	return nil
}

// Centroid returns the polygon's centroid as lat/lon. Uses the ring
// average, which is adequate for the small administrative zones handled
// here.
func (p Polygon) Centroid() (lat, lon float64) {
	if len(p.Coordinates) == 0 || len(p.Coordinates[0]) == 0 {
		return 0, 0
	}
	ring := p.Coordinates[0]
	// Last point repeats the first in a closed ring; skip it.
	n := len(ring)
	if n > 1 && ring[0] == ring[n-1] {
		n--
	}
	var sumLon, sumLat float64
	for i := 0; i < n; i++ {
		sumLon += ring[i][0]
		sumLat += ring[i][1]
	}
	return sumLat / float64(n), sumLon / float64(n)
}
