package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/mbodj/retam/internal/errors"
	"github.com/mbodj/retam/internal/services"
)

// StatsHandler handles dashboard statistics HTTP requests.
type StatsHandler struct {
	service services.StatsService
}

// NewStatsHandler creates a new StatsHandler instance.
func NewStatsHandler(service services.StatsService) *StatsHandler {
	return &StatsHandler{service: service}
}

// Monthly handles GET /api/v1/stats/monthly.
// Returns one labeled bucket per month, chronological, zero-filled.
func (h *StatsHandler) Monthly(c *gin.Context) {
	months := 0
	if raw := c.Query("months"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 60 {
			apierrors.BadRequest(c, "months must be an integer between 1 and 60", nil)
			return
		}
		months = parsed
	}

	buckets, err := h.service.MonthlyTotals(c.Request.Context(), months)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to compute monthly totals", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"months": buckets,
		"count":  len(buckets),
	})
}

// Overview handles GET /api/v1/stats/overview.
func (h *StatsHandler) Overview(c *gin.Context) {
	stats, err := h.service.Overview(c.Request.Context())
	if err != nil {
		apierrors.InternalServerError(c, "Failed to compute overview", err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
