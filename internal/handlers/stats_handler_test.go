package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mbodj/retam/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupStatsRouter(service services.StatsService) *gin.Engine {
	handler := NewStatsHandler(service)

	router := gin.New()
	stats := router.Group("/api/v1/stats")
	{
		stats.GET("/monthly", handler.Monthly)
		stats.GET("/overview", handler.Overview)
	}
	return router
}

func TestStatsMonthly(t *testing.T) {
	mockService := new(MockStatsService)
	router := setupStatsRouter(mockService)

	mockService.On("MonthlyTotals", mock.Anything, 0).Return([]services.MonthBucket{
		{Label: "2026-08", Total: decimal.Zero},
		{Label: "2026-09", Total: decimal.NewFromInt(75000)},
	}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats/monthly", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Months []services.MonthBucket `json:"months"`
		Count  int                    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "2026-09", resp.Months[1].Label)
}

func TestStatsMonthly_CustomWindow(t *testing.T) {
	mockService := new(MockStatsService)
	router := setupStatsRouter(mockService)

	mockService.On("MonthlyTotals", mock.Anything, 6).Return([]services.MonthBucket{}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats/monthly?months=6", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestStatsMonthly_InvalidWindow(t *testing.T) {
	mockService := new(MockStatsService)
	router := setupStatsRouter(mockService)

	for _, months := range []string{"0", "-3", "61", "abc"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats/monthly?months="+months, nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, "months=%s", months)
	}
	mockService.AssertNotCalled(t, "MonthlyTotals")
}

func TestStatsOverview(t *testing.T) {
	mockService := new(MockStatsService)
	router := setupStatsRouter(mockService)

	mockService.On("Overview", mock.Anything).Return(&services.OverviewStats{
		TaxpayerCount:   40,
		ActiveCount:     35,
		PaymentCount:    8,
		AmountCollected: decimal.NewFromInt(250000),
		AmountDue:       decimal.NewFromInt(1000000),
		RecoveryRate:    25.0,
	}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats/overview", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp services.OverviewStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(40), resp.TaxpayerCount)
	assert.InDelta(t, 25.0, resp.RecoveryRate, 1e-9)
}

func TestStatsOverview_ServiceError(t *testing.T) {
	mockService := new(MockStatsService)
	router := setupStatsRouter(mockService)

	mockService.On("Overview", mock.Anything).Return(nil, assertedError{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats/overview", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_SERVER_ERROR")
	assert.NotContains(t, w.Body.String(), "pool exhausted", "raw error detail must not leak")
}

// assertedError is a sentinel error type for handler error-path tests.
type assertedError struct{}

func (assertedError) Error() string { return "pool exhausted" }
