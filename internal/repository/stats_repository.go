package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mbodj/retam/internal/database"
	"github.com/shopspring/decimal"
)

// MonthlyTotal is one month's collected payment sum.
type MonthlyTotal struct {
	Total decimal.Decimal
	Year  int
	Month int
}

// OverviewRow carries the raw dashboard aggregates in one round trip.
type OverviewRow struct {
	AmountCollected decimal.Decimal
	AmountDue       decimal.Decimal
	TaxpayerCount   int64
	ActiveCount     int64
	PaymentCount    int64
	OnTimeCount     int64
	LateCount       int64
}

// StatsRepository runs the dashboard aggregation queries.
type StatsRepository interface {
	// MonthlySums returns per-month payment sums between from (inclusive)
	// and until (exclusive). Months with no payments are absent.
	MonthlySums(ctx context.Context, from, until time.Time) ([]MonthlyTotal, error)

	// Overview returns the global dashboard counters.
	Overview(ctx context.Context) (*OverviewRow, error)
}

type statsRepository struct {
	db *database.Database
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(db *database.Database) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) MonthlySums(ctx context.Context, from, until time.Time) ([]MonthlyTotal, error) {
	query := `
		SELECT
			EXTRACT(YEAR FROM payment_date)::int AS year,
			EXTRACT(MONTH FROM payment_date)::int AS month,
			COALESCE(SUM(amount), 0) AS total
		FROM payments
		WHERE payment_date >= $1 AND payment_date < $2
		GROUP BY year, month
		ORDER BY year, month
	`

	rows, err := r.db.Pool.Query(ctx, query, from, until)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly payment sums: %w", err)
	}
	defer rows.Close()

	totals := []MonthlyTotal{}
	for rows.Next() {
		var t MonthlyTotal
		if err := rows.Scan(&t.Year, &t.Month, &t.Total); err != nil {
			return nil, fmt.Errorf("failed to scan monthly sum row: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly sum rows: %w", err)
	}

	return totals, nil
}

func (r *statsRepository) Overview(ctx context.Context) (*OverviewRow, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM taxpayers),
			(SELECT COUNT(*) FROM taxpayers WHERE active),
			(SELECT COALESCE(SUM(amount_due), 0) FROM taxpayers),
			(SELECT COUNT(*) FROM payments),
			(SELECT COALESCE(SUM(amount), 0) FROM payments),
			(SELECT COUNT(*) FROM payments WHERE payment_date <= due_date),
			(SELECT COUNT(*) FROM payments WHERE payment_date > due_date)
	`

	var row OverviewRow
	err := r.db.Pool.QueryRow(ctx, query).Scan(
		&row.TaxpayerCount,
		&row.ActiveCount,
		&row.AmountDue,
		&row.PaymentCount,
		&row.AmountCollected,
		&row.OnTimeCount,
		&row.LateCount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query overview counters: %w", err)
	}

	return &row, nil
}
