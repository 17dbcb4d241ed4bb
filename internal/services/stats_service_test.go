package services

import (
	"context"
	"testing"
	"time"

	"github.com/mbodj/retam/internal/logger"
	"github.com/mbodj/retam/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newStatsServiceAt(repo repository.StatsRepository, now time.Time) *statsService {
	return &statsService{
		repo:  repo,
		floor: DefaultStatsFloor,
		now:   func() time.Time { return now },
		log:   logger.New("test"),
	}
}

func TestMonthlyTotals_ZeroFillsMissingMonths(t *testing.T) {
	// Arrange
	mockRepo := new(MockStatsRepository)
	now := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)
	service := newStatsServiceAt(mockRepo, now)

	ctx := context.Background()
	mockRepo.On("MonthlySums", ctx, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
		Return([]repository.MonthlyTotal{
			{Year: 2026, Month: 3, Total: decimal.NewFromInt(50000)},
			{Year: 2026, Month: 9, Total: decimal.NewFromInt(75000)},
		}, nil)

	// Act
	buckets, err := service.MonthlyTotals(ctx, 12)

	// Assert
	require.NoError(t, err)
	require.Len(t, buckets, 12)
	assert.Equal(t, "2025-10", buckets[0].Label)
	assert.Equal(t, "2026-09", buckets[11].Label)
	for _, b := range buckets {
		switch b.Label {
		case "2026-03":
			assert.True(t, b.Total.Equal(decimal.NewFromInt(50000)))
		case "2026-09":
			assert.True(t, b.Total.Equal(decimal.NewFromInt(75000)))
		default:
			assert.True(t, b.Total.IsZero(), "month %s should be zero", b.Label)
		}
	}
	mockRepo.AssertExpectations(t)
}

func TestMonthlyTotals_FloorShiftsWindowForward(t *testing.T) {
	mockRepo := new(MockStatsRepository)
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	service := newStatsServiceAt(mockRepo, now)

	ctx := context.Background()
	mockRepo.On("MonthlySums", ctx, DefaultStatsFloor, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)).
		Return([]repository.MonthlyTotal{
			{Year: 2025, Month: 2, Total: decimal.NewFromInt(20000)},
		}, nil)

	buckets, err := service.MonthlyTotals(ctx, 12)

	require.NoError(t, err)
	// The rolling start (2024-04) predates the floor, so the whole window
	// anchors at the floor. Labels and query range stay aligned; the
	// months past "now" read zero.
	require.Len(t, buckets, 12)
	assert.Equal(t, "2025-01", buckets[0].Label)
	assert.Equal(t, "2025-12", buckets[11].Label)
	assert.True(t, buckets[1].Total.Equal(decimal.NewFromInt(20000)))
	assert.True(t, buckets[11].Total.IsZero())
	mockRepo.AssertExpectations(t)
}

func TestMonthlyTotals_DefaultWindow(t *testing.T) {
	mockRepo := new(MockStatsRepository)
	service := newStatsServiceAt(mockRepo, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))

	ctx := context.Background()
	mockRepo.On("MonthlySums", ctx, mock.Anything, mock.Anything).
		Return([]repository.MonthlyTotal{}, nil)

	buckets, err := service.MonthlyTotals(ctx, 0)

	require.NoError(t, err)
	assert.Len(t, buckets, DefaultWindowMonths)
}

func TestOverview_DerivedRates(t *testing.T) {
	mockRepo := new(MockStatsRepository)
	service := newStatsServiceAt(mockRepo, time.Now())

	ctx := context.Background()
	mockRepo.On("Overview", ctx).Return(&repository.OverviewRow{
		TaxpayerCount:   40,
		ActiveCount:     35,
		AmountDue:       decimal.NewFromInt(1000000),
		PaymentCount:    8,
		AmountCollected: decimal.NewFromInt(250000),
		OnTimeCount:     6,
		LateCount:       2,
	}, nil)

	stats, err := service.Overview(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(40), stats.TaxpayerCount)
	assert.True(t, stats.AverageAmount.Equal(decimal.NewFromInt(31250)))
	assert.InDelta(t, 25.0, stats.RecoveryRate, 1e-9)
	mockRepo.AssertExpectations(t)
}

func TestOverview_NoPayments(t *testing.T) {
	mockRepo := new(MockStatsRepository)
	service := newStatsServiceAt(mockRepo, time.Now())

	ctx := context.Background()
	mockRepo.On("Overview", ctx).Return(&repository.OverviewRow{
		TaxpayerCount:   5,
		AmountDue:       decimal.Zero,
		AmountCollected: decimal.Zero,
	}, nil)

	stats, err := service.Overview(ctx)

	require.NoError(t, err)
	assert.True(t, stats.AverageAmount.IsZero())
	assert.Zero(t, stats.RecoveryRate)
}
