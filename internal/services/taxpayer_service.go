package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mbodj/retam/internal/logger"
	"github.com/mbodj/retam/internal/models"
	"github.com/mbodj/retam/internal/repository"
)

// TaxpayerService defines the interface for taxpayer business logic.
type TaxpayerService interface {
	// GetTaxpayer retrieves a taxpayer by ID. Returns ErrTaxpayerNotFound
	// if it does not exist.
	GetTaxpayer(ctx context.Context, id int64) (*models.Taxpayer, error)

	// ListTaxpayers returns taxpayers matching the search term.
	ListTaxpayers(ctx context.Context, search string, activeOnly bool) ([]models.Taxpayer, error)

	// CreateTaxpayer validates and persists a taxpayer, generating its
	// reference, and records a creation history entry.
	CreateTaxpayer(ctx context.Context, tp *models.Taxpayer, user string) error

	// UpdateTaxpayer rewrites a taxpayer and records which fields changed.
	UpdateTaxpayer(ctx context.Context, tp *models.Taxpayer, user string) error

	// DeleteTaxpayer removes a taxpayer and records the deletion.
	DeleteTaxpayer(ctx context.Context, id int64, user string) error

	// History returns the taxpayer's modification log, newest first.
	History(ctx context.Context, taxpayerID int64) ([]models.ModificationHistory, error)
}

type taxpayerService struct {
	repo    repository.TaxpayerRepository
	history repository.HistoryRepository
	log     *logger.Logger
}

// NewTaxpayerService creates a new instance of TaxpayerService.
func NewTaxpayerService(repo repository.TaxpayerRepository, history repository.HistoryRepository, log *logger.Logger) TaxpayerService {
	return &taxpayerService{
		repo:    repo,
		history: history,
		log:     log,
	}
}

// NewTaxpayerReference builds a reference like CONTRIB-2026-A3F9.
func NewTaxpayerReference(now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:4])
	return fmt.Sprintf("CONTRIB-%d-%s", now.Year(), suffix)
}

func (s *taxpayerService) GetTaxpayer(ctx context.Context, id int64) (*models.Taxpayer, error) {
	tp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to get taxpayer", err, map[string]interface{}{"taxpayer_id": id})
		return nil, fmt.Errorf("failed to get taxpayer %d: %w", id, err)
	}
	if tp == nil {
		return nil, ErrTaxpayerNotFound
	}
	return tp, nil
}

func (s *taxpayerService) ListTaxpayers(ctx context.Context, search string, activeOnly bool) ([]models.Taxpayer, error) {
	taxpayers, err := s.repo.List(ctx, search, activeOnly)
	if err != nil {
		s.log.Error("Failed to list taxpayers", err, nil)
		return nil, fmt.Errorf("failed to list taxpayers: %w", err)
	}
	return taxpayers, nil
}

func (s *taxpayerService) CreateTaxpayer(ctx context.Context, tp *models.Taxpayer, user string) error {
	if err := validateTaxpayer(tp); err != nil {
		return err
	}
	if tp.Reference == "" {
		tp.Reference = NewTaxpayerReference(time.Now())
	}

	if err := s.repo.Create(ctx, tp); err != nil {
		s.log.Error("Failed to create taxpayer", err, map[string]interface{}{"name": tp.Name})
		return fmt.Errorf("failed to create taxpayer: %w", err)
	}

	s.recordHistory(ctx, tp.ID, models.ActionCreate, nil, user)

	s.log.Info("Taxpayer created", map[string]interface{}{
		"taxpayer_id": tp.ID,
		"reference":   tp.Reference,
	})
	return nil
}

func (s *taxpayerService) UpdateTaxpayer(ctx context.Context, tp *models.Taxpayer, user string) error {
	if err := validateTaxpayer(tp); err != nil {
		return err
	}

	before, err := s.repo.GetByID(ctx, tp.ID)
	if err != nil {
		return fmt.Errorf("failed to load taxpayer %d: %w", tp.ID, err)
	}
	if before == nil {
		return ErrTaxpayerNotFound
	}

	found, err := s.repo.Update(ctx, tp)
	if err != nil {
		s.log.Error("Failed to update taxpayer", err, map[string]interface{}{"taxpayer_id": tp.ID})
		return fmt.Errorf("failed to update taxpayer %d: %w", tp.ID, err)
	}
	if !found {
		return ErrTaxpayerNotFound
	}

	changed := diffTaxpayer(before, tp)
	if len(changed) > 0 {
		s.recordHistory(ctx, tp.ID, models.ActionUpdate, changed, user)
	}
	return nil
}

func (s *taxpayerService) DeleteTaxpayer(ctx context.Context, id int64, user string) error {
	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.log.Error("Failed to delete taxpayer", err, map[string]interface{}{"taxpayer_id": id})
		return fmt.Errorf("failed to delete taxpayer %d: %w", id, err)
	}
	if !found {
		return ErrTaxpayerNotFound
	}

	s.log.Info("Taxpayer deleted", map[string]interface{}{
		"taxpayer_id": id,
		"user":        user,
	})
	return nil
}

func (s *taxpayerService) History(ctx context.Context, taxpayerID int64) ([]models.ModificationHistory, error) {
	entries, err := s.history.ListByTaxpayer(ctx, taxpayerID)
	if err != nil {
		s.log.Error("Failed to list history", err, map[string]interface{}{"taxpayer_id": taxpayerID})
		return nil, fmt.Errorf("failed to list history for taxpayer %d: %w", taxpayerID, err)
	}
	return entries, nil
}

// recordHistory appends an audit entry. History failures are logged but do
// not fail the write that triggered them.
func (s *taxpayerService) recordHistory(ctx context.Context, taxpayerID int64, action models.HistoryAction, changed []string, user string) {
	entry := &models.ModificationHistory{
		TaxpayerID: taxpayerID,
		Action:     action,
		Changed:    changed,
	}
	if user != "" {
		entry.User = &user
	}

	if err := s.history.Append(ctx, entry); err != nil {
		s.log.Error("Failed to record history entry", err, map[string]interface{}{
			"taxpayer_id": taxpayerID,
			"action":      string(action),
		})
	}
}

func validateTaxpayer(tp *models.Taxpayer) error {
	if !tp.Kind.Valid() {
		return fmt.Errorf("invalid taxpayer kind %q", tp.Kind)
	}
	if tp.TaxCategory != nil && !tp.TaxCategory.Valid() {
		return fmt.Errorf("invalid tax category %q", *tp.TaxCategory)
	}
	if tp.AmountDue.IsNegative() {
		return fmt.Errorf("amount due must not be negative")
	}
	return nil
}

// diffTaxpayer lists the fields whose values differ between the stored and
// incoming taxpayer.
func diffTaxpayer(before, after *models.Taxpayer) []string {
	changed := []string{}

	if !strPtrEqual(before.FiscalID, after.FiscalID) {
		changed = append(changed, "fiscal_id")
	}
	if before.Kind != after.Kind {
		changed = append(changed, "kind")
	}
	if before.Name != after.Name {
		changed = append(changed, "name")
	}
	if before.Address != after.Address {
		changed = append(changed, "address")
	}
	if before.Phone != after.Phone {
		changed = append(changed, "phone")
	}
	if !strPtrEqual(before.Email, after.Email) {
		changed = append(changed, "email")
	}
	if !categoryPtrEqual(before.TaxCategory, after.TaxCategory) {
		changed = append(changed, "tax_category")
	}
	if !timePtrEqual(before.DueDate, after.DueDate) {
		changed = append(changed, "due_date")
	}
	if !before.AmountDue.Equal(after.AmountDue) {
		changed = append(changed, "amount_due")
	}
	if before.Active != after.Active {
		changed = append(changed, "active")
	}
	if before.NotifyLate != after.NotifyLate {
		changed = append(changed, "notify_late")
	}

	return changed
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func categoryPtrEqual(a, b *models.TaxCategory) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
