package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/mbodj/retam/internal/database"
	"github.com/mbodj/retam/internal/models"
)

// PaymentRepository defines data access for payments. The Tx-suffixed
// methods run against a caller-supplied transaction so a payment insert,
// its receipt metadata and the taxpayer total recompute can commit as a
// single unit.
type PaymentRepository interface {
	// GetByID returns nil, nil when the payment does not exist.
	GetByID(ctx context.Context, id int64) (*models.Payment, error)

	// GetByReference returns nil, nil when no payment carries the reference.
	GetByReference(ctx context.Context, reference string) (*models.Payment, error)

	// ListByTaxpayer returns the taxpayer's payments, newest first.
	ListByTaxpayer(ctx context.Context, taxpayerID int64) ([]models.Payment, error)

	// CreateTx inserts a payment inside tx and fills in its generated
	// ID and timestamps.
	CreateTx(ctx context.Context, tx pgx.Tx, p *models.Payment) error

	// SetReceiptTx records the rendered receipt path inside tx.
	SetReceiptTx(ctx context.Context, tx pgx.Tx, paymentID int64, path string) error

	// RecomputeTaxpayerTotalTx rewrites the taxpayer's total_paid from the
	// sum of its payment rows, inside tx. The single-statement form keeps
	// concurrent recomputes serialized on the taxpayer row.
	RecomputeTaxpayerTotalTx(ctx context.Context, tx pgx.Tx, taxpayerID int64) error
}

type paymentRepository struct {
	db *database.Database
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(db *database.Database) PaymentRepository {
	return &paymentRepository{db: db}
}

const paymentColumns = `
	id,
	taxpayer_id,
	reference,
	amount,
	mode,
	payment_date,
	due_date,
	tax_category,
	agent,
	notes,
	receipt_generated,
	receipt_path,
	created_at,
	updated_at
`

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(
		&p.ID,
		&p.TaxpayerID,
		&p.Reference,
		&p.Amount,
		&p.Mode,
		&p.PaymentDate,
		&p.DueDate,
		&p.TaxCategory,
		&p.Agent,
		&p.Notes,
		&p.ReceiptGenerated,
		&p.ReceiptPath,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id int64) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	p, err := scanPayment(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query payment %d: %w", id, err)
	}
	return p, nil
}

func (r *paymentRepository) GetByReference(ctx context.Context, reference string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE reference = $1`

	p, err := scanPayment(r.db.Pool.QueryRow(ctx, query, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query payment by reference %q: %w", reference, err)
	}
	return p, nil
}

func (r *paymentRepository) ListByTaxpayer(ctx context.Context, taxpayerID int64) ([]models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE taxpayer_id = $1 ORDER BY payment_date DESC, id DESC`

	rows, err := r.db.Pool.Query(ctx, query, taxpayerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments for taxpayer %d: %w", taxpayerID, err)
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment rows: %w", err)
	}

	return payments, nil
}

func (r *paymentRepository) CreateTx(ctx context.Context, tx pgx.Tx, p *models.Payment) error {
	query := `
		INSERT INTO payments
			(taxpayer_id, reference, amount, mode, payment_date, due_date,
			 tax_category, agent, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		p.TaxpayerID,
		p.Reference,
		p.Amount,
		p.Mode,
		p.PaymentDate,
		p.DueDate,
		p.TaxCategory,
		p.Agent,
		p.Notes,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert payment %q: %w", p.Reference, err)
	}

	return nil
}

func (r *paymentRepository) SetReceiptTx(ctx context.Context, tx pgx.Tx, paymentID int64, path string) error {
	query := `
		UPDATE payments
		SET receipt_generated = true,
		    receipt_path = $1,
		    updated_at = now()
		WHERE id = $2
	`

	if _, err := tx.Exec(ctx, query, path, paymentID); err != nil {
		return fmt.Errorf("failed to record receipt for payment %d: %w", paymentID, err)
	}
	return nil
}

func (r *paymentRepository) RecomputeTaxpayerTotalTx(ctx context.Context, tx pgx.Tx, taxpayerID int64) error {
	query := `
		UPDATE taxpayers
		SET total_paid = (
			SELECT COALESCE(SUM(amount), 0)
			FROM payments
			WHERE taxpayer_id = $1
		),
		    updated_at = now()
		WHERE id = $1
	`

	if _, err := tx.Exec(ctx, query, taxpayerID); err != nil {
		return fmt.Errorf("failed to recompute total for taxpayer %d: %w", taxpayerID, err)
	}
	return nil
}
