package models

import (
	"time"
)

// LocationPrecision describes how precise a taxpayer location is.
type LocationPrecision string

const (
	PrecisionExact       LocationPrecision = "exact"
	PrecisionApproximate LocationPrecision = "approximate"
	PrecisionZone        LocationPrecision = "zone"
)

// Valid reports whether the precision is a known value.
func (p LocationPrecision) Valid() bool {
	switch p {
	case PrecisionExact, PrecisionApproximate, PrecisionZone:
		return true
	}
	return false
}

// LocationSource describes how a taxpayer location was obtained.
type LocationSource string

const (
	SourceGPS      LocationSource = "gps"
	SourceManual   LocationSource = "manual"
	SourceGeocoded LocationSource = "geocoded"
	SourceImported LocationSource = "imported"
)

// Valid reports whether the source is a known value.
func (s LocationSource) Valid() bool {
	switch s {
	case SourceGPS, SourceManual, SourceGeocoded, SourceImported:
		return true
	}
	return false
}

// TaxpayerLocation is the single geographic location of a taxpayer,
// optionally resolved to a containing zone. Invariant: when both the point
// and the zone are set, the point lies within the zone's polygon.
type TaxpayerLocation struct {
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
	Address    *string           `json:"address,omitempty"`
	Geom       *Point            `json:"geometry,omitempty"`
	ZoneID     *int64            `json:"zoneId,omitempty"`
	ZoneName   *string           `json:"zoneName,omitempty"`
	Precision  LocationPrecision `json:"precision"`
	Source     LocationSource    `json:"source"`
	TaxpayerID int64             `json:"taxpayerId"`
	ID         int64             `json:"id"`
	Verified   bool              `json:"verified"`
}
