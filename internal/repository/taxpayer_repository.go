package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/mbodj/retam/internal/database"
	"github.com/mbodj/retam/internal/models"
)

// TaxpayerRepository defines data access for taxpayers.
type TaxpayerRepository interface {
	// GetByID returns nil, nil when the taxpayer does not exist.
	GetByID(ctx context.Context, id int64) (*models.Taxpayer, error)

	// GetByReference returns nil, nil when no taxpayer carries the reference.
	GetByReference(ctx context.Context, reference string) (*models.Taxpayer, error)

	// List returns taxpayers ordered by name, optionally filtered by a
	// case-insensitive name/fiscal-ID search term.
	List(ctx context.Context, search string, activeOnly bool) ([]models.Taxpayer, error)

	// Create inserts a taxpayer and fills in its generated ID and timestamps.
	Create(ctx context.Context, tp *models.Taxpayer) error

	// Update rewrites mutable fields; returns false when the row is missing.
	Update(ctx context.Context, tp *models.Taxpayer) (bool, error)

	// Delete removes a taxpayer; payments and history cascade in the schema.
	Delete(ctx context.Context, id int64) (bool, error)
}

type taxpayerRepository struct {
	db *database.Database
}

// NewTaxpayerRepository creates a new TaxpayerRepository.
func NewTaxpayerRepository(db *database.Database) TaxpayerRepository {
	return &taxpayerRepository{db: db}
}

const taxpayerColumns = `
	id,
	fiscal_id,
	reference,
	kind,
	name,
	address,
	phone,
	email,
	tax_category,
	due_date,
	amount_due,
	total_paid,
	active,
	notify_late,
	created_at,
	updated_at
`

func scanTaxpayer(row pgx.Row) (*models.Taxpayer, error) {
	var tp models.Taxpayer
	err := row.Scan(
		&tp.ID,
		&tp.FiscalID,
		&tp.Reference,
		&tp.Kind,
		&tp.Name,
		&tp.Address,
		&tp.Phone,
		&tp.Email,
		&tp.TaxCategory,
		&tp.DueDate,
		&tp.AmountDue,
		&tp.TotalPaid,
		&tp.Active,
		&tp.NotifyLate,
		&tp.CreatedAt,
		&tp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tp, nil
}

func (r *taxpayerRepository) GetByID(ctx context.Context, id int64) (*models.Taxpayer, error) {
	query := `SELECT ` + taxpayerColumns + ` FROM taxpayers WHERE id = $1`

	tp, err := scanTaxpayer(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query taxpayer %d: %w", id, err)
	}
	return tp, nil
}

func (r *taxpayerRepository) GetByReference(ctx context.Context, reference string) (*models.Taxpayer, error) {
	query := `SELECT ` + taxpayerColumns + ` FROM taxpayers WHERE reference = $1`

	tp, err := scanTaxpayer(r.db.Pool.QueryRow(ctx, query, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query taxpayer by reference %q: %w", reference, err)
	}
	return tp, nil
}

func (r *taxpayerRepository) List(ctx context.Context, search string, activeOnly bool) ([]models.Taxpayer, error) {
	query := `SELECT ` + taxpayerColumns + ` FROM taxpayers WHERE true`
	args := []interface{}{}

	if search != "" {
		args = append(args, "%"+search+"%")
		query += fmt.Sprintf(" AND (name ILIKE $%d OR fiscal_id ILIKE $%d)", len(args), len(args))
	}
	if activeOnly {
		query += " AND active"
	}
	query += " ORDER BY name"

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query taxpayers: %w", err)
	}
	defer rows.Close()

	taxpayers := []models.Taxpayer{}
	for rows.Next() {
		tp, err := scanTaxpayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan taxpayer row: %w", err)
		}
		taxpayers = append(taxpayers, *tp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating taxpayer rows: %w", err)
	}

	return taxpayers, nil
}

func (r *taxpayerRepository) Create(ctx context.Context, tp *models.Taxpayer) error {
	query := `
		INSERT INTO taxpayers
			(fiscal_id, reference, kind, name, address, phone, email,
			 tax_category, due_date, amount_due, active, notify_late)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, total_paid, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		tp.FiscalID,
		tp.Reference,
		tp.Kind,
		tp.Name,
		tp.Address,
		tp.Phone,
		tp.Email,
		tp.TaxCategory,
		tp.DueDate,
		tp.AmountDue,
		tp.Active,
		tp.NotifyLate,
	).Scan(&tp.ID, &tp.TotalPaid, &tp.CreatedAt, &tp.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert taxpayer %q: %w", tp.Name, err)
	}

	return nil
}

func (r *taxpayerRepository) Update(ctx context.Context, tp *models.Taxpayer) (bool, error) {
	query := `
		UPDATE taxpayers
		SET fiscal_id = $1,
		    kind = $2,
		    name = $3,
		    address = $4,
		    phone = $5,
		    email = $6,
		    tax_category = $7,
		    due_date = $8,
		    amount_due = $9,
		    active = $10,
		    notify_late = $11,
		    updated_at = now()
		WHERE id = $12
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		tp.FiscalID,
		tp.Kind,
		tp.Name,
		tp.Address,
		tp.Phone,
		tp.Email,
		tp.TaxCategory,
		tp.DueDate,
		tp.AmountDue,
		tp.Active,
		tp.NotifyLate,
		tp.ID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update taxpayer %d: %w", tp.ID, err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *taxpayerRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM taxpayers WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete taxpayer %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}
