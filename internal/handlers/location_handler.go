package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/mbodj/retam/internal/errors"
	"github.com/mbodj/retam/internal/middleware"
	"github.com/mbodj/retam/internal/models"
	"github.com/mbodj/retam/internal/repository"
	"github.com/mbodj/retam/internal/services"
	"github.com/paulmach/orb/geojson"
)

// LocationHandler handles taxpayer location HTTP requests.
type LocationHandler struct {
	service services.LocationService
}

// NewLocationHandler creates a new LocationHandler instance.
func NewLocationHandler(service services.LocationService) *LocationHandler {
	return &LocationHandler{service: service}
}

// LocationRequest is the payload for saving a taxpayer location. Geometry
// accepts WKT or GeoJSON points. ZoneID pins the zone explicitly; when
// omitted the zone is resolved from the point.
type LocationRequest struct {
	Address   *string `json:"address"`
	ZoneID    *int64  `json:"zoneId"`
	Geometry  string  `json:"geometry"`
	Precision string  `json:"precision" binding:"required"`
	Source    string  `json:"source" binding:"required"`
	Verified  bool    `json:"verified"`
}

// LocationResponse pairs a saved location with its zone resolution outcome.
type LocationResponse struct {
	Location       *models.TaxpayerLocation `json:"location"`
	ZoneResolution string                   `json:"zoneResolution"`
	ZoneCandidates []string                 `json:"zoneCandidates,omitempty"`
}

// NearbyRequest represents the query parameters for the nearby endpoint.
type NearbyRequest struct {
	Lat    float64 `form:"lat" binding:"min=-90,max=90"`
	Lng    float64 `form:"lng" binding:"min=-180,max=180"`
	Radius int     `form:"radius"`
	Limit  int     `form:"limit"`
}

// NearbyResponse represents the response for the nearby endpoint.
type NearbyResponse struct {
	Locations []services.LocationWithDistance `json:"locations"`
	Count     int                             `json:"count"`
}

// Get handles GET /api/v1/taxpayers/:id/location.
func (h *LocationHandler) Get(c *gin.Context) {
	taxpayerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	loc, err := h.service.GetLocation(c.Request.Context(), taxpayerID)
	if err != nil {
		if errors.Is(err, services.ErrLocationNotFound) {
			apierrors.NotFound(c, "No location recorded for this taxpayer")
			return
		}
		apierrors.InternalServerError(c, "Failed to get location", err)
		return
	}

	c.JSON(http.StatusOK, loc)
}

// Put handles PUT /api/v1/taxpayers/:id/location.
// Creates or replaces the taxpayer's location and re-resolves its zone.
func (h *LocationHandler) Put(c *gin.Context) {
	log := middleware.GetLogger(c)

	taxpayerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req LocationRequest
	if !bindJSON(c, &req) {
		return
	}

	loc := &models.TaxpayerLocation{
		TaxpayerID: taxpayerID,
		Address:    req.Address,
		ZoneID:     req.ZoneID,
		Precision:  models.LocationPrecision(req.Precision),
		Source:     models.LocationSource(req.Source),
		Verified:   req.Verified,
	}

	resolution, err := h.service.SaveLocation(c.Request.Context(), loc, req.Geometry)
	if err != nil {
		apierrors.BadRequest(c, err.Error(), nil)
		return
	}

	if log != nil {
		log.Info("Location saved via API", map[string]interface{}{
			"taxpayer_id": taxpayerID,
			"resolution":  string(resolution.Status),
		})
	}

	resp := LocationResponse{
		Location:       loc,
		ZoneResolution: string(resolution.Status),
	}
	for _, z := range resolution.Candidates {
		resp.ZoneCandidates = append(resp.ZoneCandidates, z.Name)
	}

	c.JSON(http.StatusOK, resp)
}

// Delete handles DELETE /api/v1/taxpayers/:id/location.
func (h *LocationHandler) Delete(c *gin.Context) {
	taxpayerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteLocation(c.Request.Context(), taxpayerID); err != nil {
		if errors.Is(err, services.ErrLocationNotFound) {
			apierrors.NotFound(c, "No location recorded for this taxpayer")
			return
		}
		apierrors.InternalServerError(c, "Failed to delete location", err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Nearby handles GET /api/v1/locations/nearby.
// Returns taxpayer locations within the given radius, closest first.
func (h *LocationHandler) Nearby(c *gin.Context) {
	var req NearbyRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}

	const defaultRadiusMeters = 1000
	if req.Radius == 0 {
		req.Radius = defaultRadiusMeters
	}

	locations, err := h.service.Nearby(c.Request.Context(), req.Lat, req.Lng, req.Radius, req.Limit)
	if err != nil {
		if errors.Is(err, services.ErrInvalidRadius) {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		apierrors.InternalServerError(c, "Failed to query nearby locations", err)
		return
	}

	c.JSON(http.StatusOK, NearbyResponse{
		Locations: locations,
		Count:     len(locations),
	})
}

// GeoJSON handles GET /api/v1/locations/geojson.
// Returns located taxpayers as a FeatureCollection, optionally filtered by
// zone, precision or verification status.
func (h *LocationHandler) GeoJSON(c *gin.Context) {
	filter := repository.LocationFilter{
		VerifiedOnly: c.Query("verified") == "true",
	}
	if zoneStr := c.Query("zone"); zoneStr != "" {
		zoneID, err := strconv.ParseInt(zoneStr, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid zone parameter", nil)
			return
		}
		filter.ZoneID = &zoneID
	}
	if precision := c.Query("precision"); precision != "" {
		p := models.LocationPrecision(precision)
		if !p.Valid() {
			apierrors.BadRequest(c, "Invalid precision parameter", nil)
			return
		}
		filter.Precision = &p
	}

	locations, err := h.service.ListLocations(c.Request.Context(), filter)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to list locations", err)
		return
	}

	fc := geojson.NewFeatureCollection()
	for _, loc := range locations {
		if loc.Geom == nil {
			continue
		}
		f := geojson.NewFeature(loc.Geom.Orb())
		f.ID = loc.ID
		f.Properties = geojson.Properties{
			"taxpayerId": loc.TaxpayerID,
			"precision":  string(loc.Precision),
			"source":     string(loc.Source),
			"verified":   loc.Verified,
		}
		if loc.ZoneName != nil {
			f.Properties["zone"] = *loc.ZoneName
		}
		if loc.Address != nil {
			f.Properties["address"] = *loc.Address
		}
		fc.Append(f)
	}

	c.JSON(http.StatusOK, fc)
}
