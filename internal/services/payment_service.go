package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mbodj/retam/internal/logger"
	"github.com/mbodj/retam/internal/models"
	"github.com/mbodj/retam/internal/repository"
)

// TxRunner runs a function inside a database transaction. It is satisfied
// by *database.Database.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

var (
	ErrInvalidAmount      = errors.New("payment amount must be positive")
	ErrInvalidPaymentMode = errors.New("invalid payment mode")
)

// ReceiptRenderer produces the receipt document for a payment and returns
// the stored file's relative path.
type ReceiptRenderer interface {
	Render(payment *models.Payment, taxpayer *models.Taxpayer) (string, error)
}

// LateNotifier delivers a late-payment notice to a taxpayer. Delivery is
// best effort; callers log failures and move on.
type LateNotifier interface {
	SendLateNotice(ctx context.Context, payment *models.Payment, taxpayer *models.Taxpayer) error
}

// PaymentService defines the interface for payment business logic.
type PaymentService interface {
	// RecordPayment validates the payment, fills defaults from the
	// taxpayer, renders the receipt, and commits the payment row, receipt
	// metadata and taxpayer total recompute as one transaction. A late
	// payment triggers a best-effort notice after commit.
	RecordPayment(ctx context.Context, p *models.Payment, user string) error

	// GetPayment retrieves a payment by ID. Returns ErrPaymentNotFound if
	// it does not exist.
	GetPayment(ctx context.Context, id int64) (*models.Payment, error)

	// GetPaymentByReference retrieves a payment and its taxpayer by the
	// payment reference. Returns ErrPaymentNotFound if it does not exist.
	GetPaymentByReference(ctx context.Context, reference string) (*models.Payment, *models.Taxpayer, error)

	// ListPayments returns the taxpayer's payments, newest first.
	ListPayments(ctx context.Context, taxpayerID int64) ([]models.Payment, error)
}

type paymentService struct {
	db        TxRunner
	payments  repository.PaymentRepository
	taxpayers repository.TaxpayerRepository
	history   repository.HistoryRepository
	receipts  ReceiptRenderer
	notifier  LateNotifier
	log       *logger.Logger
}

// NewPaymentService creates a new instance of PaymentService. notifier may
// be nil when late notices are disabled.
func NewPaymentService(
	db TxRunner,
	payments repository.PaymentRepository,
	taxpayers repository.TaxpayerRepository,
	history repository.HistoryRepository,
	receipts ReceiptRenderer,
	notifier LateNotifier,
	log *logger.Logger,
) PaymentService {
	return &paymentService{
		db:        db,
		payments:  payments,
		taxpayers: taxpayers,
		history:   history,
		receipts:  receipts,
		notifier:  notifier,
		log:       log,
	}
}

// NewPaymentReference builds a reference like PAY-20260901-3FA2C1.
func NewPaymentReference(now time.Time) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("PAY-%s-%s", now.Format("20060102"), strings.ToUpper(raw[:6]))
}

func (s *paymentService) RecordPayment(ctx context.Context, p *models.Payment, user string) error {
	if !p.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !p.Mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPaymentMode, p.Mode)
	}

	taxpayer, err := s.taxpayers.GetByID(ctx, p.TaxpayerID)
	if err != nil {
		return fmt.Errorf("failed to load taxpayer %d: %w", p.TaxpayerID, err)
	}
	if taxpayer == nil {
		return ErrTaxpayerNotFound
	}

	if p.PaymentDate.IsZero() {
		p.PaymentDate = time.Now()
	}
	if p.DueDate.IsZero() {
		if taxpayer.DueDate != nil {
			p.DueDate = *taxpayer.DueDate
		} else {
			p.DueDate = p.PaymentDate
		}
	}
	if p.TaxCategory == nil {
		p.TaxCategory = taxpayer.TaxCategory
	}
	if p.Reference == "" {
		p.Reference = NewPaymentReference(p.PaymentDate)
	}

	// Render the receipt before opening the transaction so a renderer
	// failure never leaves a half-committed payment.
	receiptPath, err := s.receipts.Render(p, taxpayer)
	if err != nil {
		s.log.Error("Failed to render receipt", err, map[string]interface{}{
			"reference": p.Reference,
		})
		return fmt.Errorf("failed to render receipt for %s: %w", p.Reference, err)
	}

	err = s.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.payments.CreateTx(ctx, tx, p); err != nil {
			return err
		}
		if err := s.payments.SetReceiptTx(ctx, tx, p.ID, receiptPath); err != nil {
			return err
		}
		return s.payments.RecomputeTaxpayerTotalTx(ctx, tx, p.TaxpayerID)
	})
	if err != nil {
		return fmt.Errorf("failed to record payment %s: %w", p.Reference, err)
	}
	p.ReceiptGenerated = true
	p.ReceiptPath = &receiptPath

	s.recordHistory(ctx, p.TaxpayerID, user)

	s.log.Info("Payment recorded", map[string]interface{}{
		"payment_id":  p.ID,
		"reference":   p.Reference,
		"taxpayer_id": p.TaxpayerID,
		"amount":      p.Amount.String(),
		"mode":        string(p.Mode),
		"late":        p.Late(),
	})

	if p.Late() && taxpayer.NotifyLate && s.notifier != nil {
		if err := s.notifier.SendLateNotice(ctx, p, taxpayer); err != nil {
			s.log.Warn("Failed to send late payment notice", map[string]interface{}{
				"reference": p.Reference,
				"error":     err.Error(),
			})
		}
	}

	return nil
}

func (s *paymentService) GetPayment(ctx context.Context, id int64) (*models.Payment, error) {
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to get payment", err, map[string]interface{}{"payment_id": id})
		return nil, fmt.Errorf("failed to get payment %d: %w", id, err)
	}
	if p == nil {
		return nil, ErrPaymentNotFound
	}
	return p, nil
}

func (s *paymentService) GetPaymentByReference(ctx context.Context, reference string) (*models.Payment, *models.Taxpayer, error) {
	p, err := s.payments.GetByReference(ctx, reference)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get payment %q: %w", reference, err)
	}
	if p == nil {
		return nil, nil, ErrPaymentNotFound
	}

	taxpayer, err := s.taxpayers.GetByID(ctx, p.TaxpayerID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load taxpayer %d: %w", p.TaxpayerID, err)
	}
	if taxpayer == nil {
		return nil, nil, ErrTaxpayerNotFound
	}

	return p, taxpayer, nil
}

func (s *paymentService) ListPayments(ctx context.Context, taxpayerID int64) ([]models.Payment, error) {
	payments, err := s.payments.ListByTaxpayer(ctx, taxpayerID)
	if err != nil {
		s.log.Error("Failed to list payments", err, map[string]interface{}{"taxpayer_id": taxpayerID})
		return nil, fmt.Errorf("failed to list payments for taxpayer %d: %w", taxpayerID, err)
	}
	return payments, nil
}

func (s *paymentService) recordHistory(ctx context.Context, taxpayerID int64, user string) {
	entry := &models.ModificationHistory{
		TaxpayerID: taxpayerID,
		Action:     models.ActionUpdate,
		Changed:    []string{"total_paid"},
	}
	if user != "" {
		entry.User = &user
	}
	if err := s.history.Append(ctx, entry); err != nil {
		s.log.Error("Failed to record payment history entry", err, map[string]interface{}{
			"taxpayer_id": taxpayerID,
		})
	}
}
