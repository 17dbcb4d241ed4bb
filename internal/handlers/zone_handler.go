package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/mbodj/retam/internal/errors"
	"github.com/mbodj/retam/internal/middleware"
	"github.com/mbodj/retam/internal/models"
	"github.com/mbodj/retam/internal/services"
	"github.com/paulmach/orb/geojson"
)

// ZoneHandler handles zone-related HTTP requests.
type ZoneHandler struct {
	service services.ZoneService
}

// NewZoneHandler creates a new ZoneHandler instance.
func NewZoneHandler(service services.ZoneService) *ZoneHandler {
	return &ZoneHandler{service: service}
}

// ZoneRequest is the payload for creating or updating a zone. Geometry
// accepts WKT or GeoJSON.
type ZoneRequest struct {
	Name        string  `json:"name" binding:"required,max=120"`
	Description *string `json:"description"`
	Responsible *string `json:"responsible"`
	Color       string  `json:"color" binding:"omitempty,hexcolor"`
	Geometry    string  `json:"geometry"`
	Active      *bool   `json:"active"`
}

// ZoneListResponse wraps a zone collection.
type ZoneListResponse struct {
	Zones []models.Zone `json:"zones"`
	Count int           `json:"count"`
}

// parseIDParam reads a positive integer path parameter.
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		apierrors.BadRequest(c, "Invalid "+name+" parameter", nil)
		return 0, false
	}
	return id, true
}

// bindJSON binds a JSON body and emits the standard error payloads.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return false
		}
		apierrors.BadRequest(c, "Invalid request body", nil)
		return false
	}
	return true
}

// List handles GET /api/v1/zones.
func (h *ZoneHandler) List(c *gin.Context) {
	activeOnly := c.Query("active") == "true"

	zones, err := h.service.ListZones(c.Request.Context(), activeOnly)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to list zones", err)
		return
	}

	c.JSON(http.StatusOK, ZoneListResponse{Zones: zones, Count: len(zones)})
}

// Get handles GET /api/v1/zones/:id.
func (h *ZoneHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	zone, err := h.service.GetZone(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrZoneNotFound) {
			apierrors.NotFound(c, "Zone not found")
			return
		}
		apierrors.InternalServerError(c, "Failed to get zone", err)
		return
	}

	c.JSON(http.StatusOK, zone)
}

// Create handles POST /api/v1/zones.
func (h *ZoneHandler) Create(c *gin.Context) {
	log := middleware.GetLogger(c)

	var req ZoneRequest
	if !bindJSON(c, &req) {
		return
	}

	zone := &models.Zone{
		Name:        req.Name,
		Description: req.Description,
		Responsible: req.Responsible,
		Color:       req.Color,
		Active:      true,
	}
	if req.Active != nil {
		zone.Active = *req.Active
	}

	if err := h.service.CreateZone(c.Request.Context(), zone, req.Geometry); err != nil {
		if errors.Is(err, services.ErrInvalidZone) {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		apierrors.InternalServerError(c, "Failed to create zone", err)
		return
	}

	if log != nil {
		log.Info("Zone created via API", map[string]interface{}{
			"zone_id": zone.ID,
			"name":    zone.Name,
		})
	}

	c.JSON(http.StatusCreated, zone)
}

// Update handles PUT /api/v1/zones/:id.
func (h *ZoneHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ZoneRequest
	if !bindJSON(c, &req) {
		return
	}

	zone := &models.Zone{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Responsible: req.Responsible,
		Color:       req.Color,
		Active:      true,
	}
	if req.Active != nil {
		zone.Active = *req.Active
	}
	if zone.Color == "" {
		zone.Color = models.DefaultZoneColor
	}

	if err := h.service.UpdateZone(c.Request.Context(), zone, req.Geometry); err != nil {
		switch {
		case errors.Is(err, services.ErrZoneNotFound):
			apierrors.NotFound(c, "Zone not found")
		case errors.Is(err, services.ErrInvalidZone):
			apierrors.BadRequest(c, err.Error(), nil)
		default:
			apierrors.InternalServerError(c, "Failed to update zone", err)
		}
		return
	}

	c.JSON(http.StatusOK, zone)
}

// ActiveRequest toggles a zone's active flag.
type ActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetActive handles PATCH /api/v1/zones/:id/active.
func (h *ZoneHandler) SetActive(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ActiveRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.service.SetZoneActive(c.Request.Context(), id, *req.Active); err != nil {
		if errors.Is(err, services.ErrZoneNotFound) {
			apierrors.NotFound(c, "Zone not found")
			return
		}
		apierrors.InternalServerError(c, "Failed to update zone status", err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Delete handles DELETE /api/v1/zones/:id.
func (h *ZoneHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteZone(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrZoneNotFound) {
			apierrors.NotFound(c, "Zone not found")
			return
		}
		apierrors.InternalServerError(c, "Failed to delete zone", err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GeoJSON handles GET /api/v1/zones/geojson.
// Returns active zones as a FeatureCollection for map rendering.
func (h *ZoneHandler) GeoJSON(c *gin.Context) {
	zones, err := h.service.ListZones(c.Request.Context(), true)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to list zones", err)
		return
	}

	fc := geojson.NewFeatureCollection()
	for _, z := range zones {
		f := geojson.NewFeature(z.Geom.Orb())
		f.ID = z.ID
		f.Properties = geojson.Properties{
			"id":    z.ID,
			"name":  z.Name,
			"color": z.Color,
		}
		if z.Responsible != nil {
			f.Properties["responsible"] = *z.Responsible
		}
		fc.Append(f)
	}

	c.JSON(http.StatusOK, fc)
}

// Distribution handles GET /api/v1/zones/distribution.
// Returns taxpayer counts per zone for the dashboard chart.
func (h *ZoneHandler) Distribution(c *gin.Context) {
	counts, err := h.service.Distribution(c.Request.Context())
	if err != nil {
		apierrors.InternalServerError(c, "Failed to compute zone distribution", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"distribution": counts,
		"count":        len(counts),
	})
}
