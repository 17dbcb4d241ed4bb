package repository

import (
	"context"
	"fmt"

	"github.com/mbodj/retam/internal/database"
	"github.com/mbodj/retam/internal/models"
)

// HistoryRepository records and reads taxpayer modification history.
type HistoryRepository interface {
	// Append stores a history entry and fills in its ID and timestamp.
	Append(ctx context.Context, entry *models.ModificationHistory) error

	// ListByTaxpayer returns the taxpayer's history, newest first.
	ListByTaxpayer(ctx context.Context, taxpayerID int64) ([]models.ModificationHistory, error)
}

type historyRepository struct {
	db *database.Database
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(db *database.Database) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) Append(ctx context.Context, entry *models.ModificationHistory) error {
	query := `
		INSERT INTO modification_history (taxpayer_id, action, changed_fields, username)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		entry.TaxpayerID,
		entry.Action,
		entry.Changed,
		entry.User,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert history entry for taxpayer %d: %w", entry.TaxpayerID, err)
	}

	return nil
}

func (r *historyRepository) ListByTaxpayer(ctx context.Context, taxpayerID int64) ([]models.ModificationHistory, error) {
	query := `
		SELECT id, taxpayer_id, action, changed_fields, username, created_at
		FROM modification_history
		WHERE taxpayer_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, taxpayerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history for taxpayer %d: %w", taxpayerID, err)
	}
	defer rows.Close()

	entries := []models.ModificationHistory{}
	for rows.Next() {
		var e models.ModificationHistory
		err := rows.Scan(&e.ID, &e.TaxpayerID, &e.Action, &e.Changed, &e.User, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history rows: %w", err)
	}

	return entries, nil
}
