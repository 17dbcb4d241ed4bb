package models

import (
	"time"
)

// Zone is an administrative polygon region used to group taxpayers
// geographically. Zones are retired by deactivation rather than deletion;
// deleting one detaches its taxpayer locations.
type Zone struct {
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Responsible *string   `json:"responsible,omitempty"`
	Color       string    `json:"color"`
	Geom        Polygon   `json:"geometry"`
	ID          int64     `json:"id"`
	Active      bool      `json:"active"`
}

// DefaultZoneColor is the display color assigned when none is supplied.
const DefaultZoneColor = "#0a384f"
