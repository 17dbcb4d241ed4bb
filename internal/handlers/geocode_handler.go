package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/mbodj/retam/internal/errors"
	"github.com/mbodj/retam/internal/geocode"
)

// GeocodeHandler proxies address searches to the geocoding service.
type GeocodeHandler struct {
	client *geocode.Client
}

// NewGeocodeHandler creates a new GeocodeHandler instance.
func NewGeocodeHandler(client *geocode.Client) *GeocodeHandler {
	return &GeocodeHandler{client: client}
}

// Search handles GET /api/v1/geocode?address=.
// Upstream failures surface as 502 so callers can distinguish them from
// our own errors.
func (h *GeocodeHandler) Search(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		apierrors.BadRequest(c, "Missing address parameter", nil)
		return
	}

	limit := 5
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 20 {
			apierrors.BadRequest(c, "limit must be an integer between 1 and 20", nil)
			return
		}
		limit = parsed
	}

	results, err := h.client.Search(c.Request.Context(), address, limit)
	if err != nil {
		if errors.Is(err, geocode.ErrServiceUnavailable) {
			apierrors.BadGateway(c, "Geocoding service unavailable", err)
			return
		}
		apierrors.InternalServerError(c, "Failed to geocode address", err)
		return
	}

	if len(results) == 0 {
		apierrors.NotFound(c, "No results found for this address")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"count":   len(results),
	})
}
