package services

import (
	"context"
	"fmt"
	"time"

	"github.com/mbodj/retam/internal/logger"
	"github.com/mbodj/retam/internal/repository"
	"github.com/shopspring/decimal"
)

// DefaultWindowMonths is the dashboard's default monthly window.
const DefaultWindowMonths = 12

// DefaultStatsFloor is the earliest month the monthly series reads from.
var DefaultStatsFloor = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// MonthBucket is one labeled month in the dashboard series. Months with no
// payments carry a zero total.
type MonthBucket struct {
	Label string          `json:"month"`
	Total decimal.Decimal `json:"total"`
}

// OverviewStats is the dashboard summary payload.
type OverviewStats struct {
	AmountCollected decimal.Decimal `json:"amountCollected"`
	AmountDue       decimal.Decimal `json:"amountDue"`
	AverageAmount   decimal.Decimal `json:"averageAmount"`
	RecoveryRate    float64         `json:"recoveryRate"`
	TaxpayerCount   int64           `json:"taxpayerCount"`
	ActiveCount     int64           `json:"activeCount"`
	PaymentCount    int64           `json:"paymentCount"`
	OnTimeCount     int64           `json:"onTimeCount"`
	LateCount       int64           `json:"lateCount"`
}

// StatsService defines the interface for dashboard aggregation.
type StatsService interface {
	// MonthlyTotals returns exactly windowMonths chronological buckets
	// starting at the later of the rolling window start and the floor
	// date. When the floor is active the window shifts forward, so the
	// tail buckets can label future months with zero totals.
	MonthlyTotals(ctx context.Context, windowMonths int) ([]MonthBucket, error)

	// Overview returns the global dashboard counters and derived rates.
	Overview(ctx context.Context) (*OverviewStats, error)
}

type statsService struct {
	repo  repository.StatsRepository
	floor time.Time
	now   func() time.Time
	log   *logger.Logger
}

// NewStatsService creates a new instance of StatsService.
func NewStatsService(repo repository.StatsRepository, log *logger.Logger) StatsService {
	return &statsService{
		repo:  repo,
		floor: DefaultStatsFloor,
		now:   time.Now,
		log:   log,
	}
}

func (s *statsService) MonthlyTotals(ctx context.Context, windowMonths int) ([]MonthBucket, error) {
	if windowMonths <= 0 {
		windowMonths = DefaultWindowMonths
	}

	now := s.now()
	currentMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	start := currentMonth.AddDate(0, -(windowMonths - 1), 0)
	if start.Before(s.floor) {
		start = s.floor
	}
	until := start.AddDate(0, windowMonths, 0)

	sums, err := s.repo.MonthlySums(ctx, start, until)
	if err != nil {
		s.log.Error("Failed to load monthly sums", err, nil)
		return nil, fmt.Errorf("failed to load monthly totals: %w", err)
	}

	byMonth := make(map[string]decimal.Decimal, len(sums))
	for _, t := range sums {
		byMonth[fmt.Sprintf("%04d-%02d", t.Year, t.Month)] = t.Total
	}

	buckets := make([]MonthBucket, 0, windowMonths)
	for m := start; m.Before(until); m = m.AddDate(0, 1, 0) {
		label := m.Format("2006-01")
		total, ok := byMonth[label]
		if !ok {
			total = decimal.Zero
		}
		buckets = append(buckets, MonthBucket{Label: label, Total: total})
	}

	return buckets, nil
}

func (s *statsService) Overview(ctx context.Context) (*OverviewStats, error) {
	row, err := s.repo.Overview(ctx)
	if err != nil {
		s.log.Error("Failed to load overview counters", err, nil)
		return nil, fmt.Errorf("failed to load overview: %w", err)
	}

	stats := &OverviewStats{
		AmountCollected: row.AmountCollected,
		AmountDue:       row.AmountDue,
		AverageAmount:   decimal.Zero,
		TaxpayerCount:   row.TaxpayerCount,
		ActiveCount:     row.ActiveCount,
		PaymentCount:    row.PaymentCount,
		OnTimeCount:     row.OnTimeCount,
		LateCount:       row.LateCount,
	}

	if row.PaymentCount > 0 {
		stats.AverageAmount = row.AmountCollected.Div(decimal.NewFromInt(row.PaymentCount)).Round(2)
	}
	if row.AmountDue.IsPositive() {
		rate, _ := row.AmountCollected.Div(row.AmountDue).Mul(decimal.NewFromInt(100)).Round(2).Float64()
		stats.RecoveryRate = rate
	}

	return stats, nil
}
