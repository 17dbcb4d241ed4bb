package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mbodj/retam/internal/models"
	"github.com/mbodj/retam/internal/repository"
	"github.com/stretchr/testify/mock"
)

// MockZoneRepository is a mock implementation of repository.ZoneRepository.
type MockZoneRepository struct {
	mock.Mock
}

func (m *MockZoneRepository) List(ctx context.Context, activeOnly bool) ([]models.Zone, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Zone), args.Error(1)
}

func (m *MockZoneRepository) GetByID(ctx context.Context, id int64) (*models.Zone, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Zone), args.Error(1)
}

func (m *MockZoneRepository) Create(ctx context.Context, zone *models.Zone) error {
	args := m.Called(ctx, zone)
	return args.Error(0)
}

func (m *MockZoneRepository) Update(ctx context.Context, zone *models.Zone) (bool, error) {
	args := m.Called(ctx, zone)
	return args.Bool(0), args.Error(1)
}

func (m *MockZoneRepository) SetActive(ctx context.Context, id int64, active bool) (bool, error) {
	args := m.Called(ctx, id, active)
	return args.Bool(0), args.Error(1)
}

func (m *MockZoneRepository) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockZoneRepository) FindContaining(ctx context.Context, pt models.Point) ([]models.Zone, error) {
	args := m.Called(ctx, pt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Zone), args.Error(1)
}

func (m *MockZoneRepository) Distribution(ctx context.Context) ([]repository.ZoneCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.ZoneCount), args.Error(1)
}

// MockLocationRepository is a mock implementation of repository.LocationRepository.
type MockLocationRepository struct {
	mock.Mock
}

func (m *MockLocationRepository) GetByTaxpayer(ctx context.Context, taxpayerID int64) (*models.TaxpayerLocation, error) {
	args := m.Called(ctx, taxpayerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TaxpayerLocation), args.Error(1)
}

func (m *MockLocationRepository) Save(ctx context.Context, loc *models.TaxpayerLocation) error {
	args := m.Called(ctx, loc)
	return args.Error(0)
}

func (m *MockLocationRepository) Delete(ctx context.Context, taxpayerID int64) (bool, error) {
	args := m.Called(ctx, taxpayerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLocationRepository) CandidatesInBBox(ctx context.Context, box repository.BoundingBox) ([]models.TaxpayerLocation, error) {
	args := m.Called(ctx, box)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TaxpayerLocation), args.Error(1)
}

func (m *MockLocationRepository) List(ctx context.Context, filter repository.LocationFilter) ([]models.TaxpayerLocation, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TaxpayerLocation), args.Error(1)
}

// MockTaxpayerRepository is a mock implementation of repository.TaxpayerRepository.
type MockTaxpayerRepository struct {
	mock.Mock
}

func (m *MockTaxpayerRepository) GetByID(ctx context.Context, id int64) (*models.Taxpayer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Taxpayer), args.Error(1)
}

func (m *MockTaxpayerRepository) GetByReference(ctx context.Context, reference string) (*models.Taxpayer, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Taxpayer), args.Error(1)
}

func (m *MockTaxpayerRepository) List(ctx context.Context, search string, activeOnly bool) ([]models.Taxpayer, error) {
	args := m.Called(ctx, search, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Taxpayer), args.Error(1)
}

func (m *MockTaxpayerRepository) Create(ctx context.Context, tp *models.Taxpayer) error {
	args := m.Called(ctx, tp)
	return args.Error(0)
}

func (m *MockTaxpayerRepository) Update(ctx context.Context, tp *models.Taxpayer) (bool, error) {
	args := m.Called(ctx, tp)
	return args.Bool(0), args.Error(1)
}

func (m *MockTaxpayerRepository) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockPaymentRepository is a mock implementation of repository.PaymentRepository.
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id int64) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetByReference(ctx context.Context, reference string) (*models.Payment, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListByTaxpayer(ctx context.Context, taxpayerID int64) ([]models.Payment, error) {
	args := m.Called(ctx, taxpayerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) CreateTx(ctx context.Context, tx pgx.Tx, p *models.Payment) error {
	args := m.Called(ctx, tx, p)
	return args.Error(0)
}

func (m *MockPaymentRepository) SetReceiptTx(ctx context.Context, tx pgx.Tx, paymentID int64, path string) error {
	args := m.Called(ctx, tx, paymentID, path)
	return args.Error(0)
}

func (m *MockPaymentRepository) RecomputeTaxpayerTotalTx(ctx context.Context, tx pgx.Tx, taxpayerID int64) error {
	args := m.Called(ctx, tx, taxpayerID)
	return args.Error(0)
}

// MockHistoryRepository is a mock implementation of repository.HistoryRepository.
type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Append(ctx context.Context, entry *models.ModificationHistory) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockHistoryRepository) ListByTaxpayer(ctx context.Context, taxpayerID int64) ([]models.ModificationHistory, error) {
	args := m.Called(ctx, taxpayerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ModificationHistory), args.Error(1)
}

// MockStatsRepository is a mock implementation of repository.StatsRepository.
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) MonthlySums(ctx context.Context, from, until time.Time) ([]repository.MonthlyTotal, error) {
	args := m.Called(ctx, from, until)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.MonthlyTotal), args.Error(1)
}

func (m *MockStatsRepository) Overview(ctx context.Context) (*repository.OverviewRow, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.OverviewRow), args.Error(1)
}

// MockZoneService is a mock implementation of ZoneService.
type MockZoneService struct {
	mock.Mock
}

func (m *MockZoneService) ListZones(ctx context.Context, activeOnly bool) ([]models.Zone, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Zone), args.Error(1)
}

func (m *MockZoneService) GetZone(ctx context.Context, id int64) (*models.Zone, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Zone), args.Error(1)
}

func (m *MockZoneService) CreateZone(ctx context.Context, zone *models.Zone, rawGeometry string) error {
	args := m.Called(ctx, zone, rawGeometry)
	return args.Error(0)
}

func (m *MockZoneService) UpdateZone(ctx context.Context, zone *models.Zone, rawGeometry string) error {
	args := m.Called(ctx, zone, rawGeometry)
	return args.Error(0)
}

func (m *MockZoneService) SetZoneActive(ctx context.Context, id int64, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

func (m *MockZoneService) DeleteZone(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockZoneService) ResolveZone(ctx context.Context, pt *models.Point) (*ZoneResolution, error) {
	args := m.Called(ctx, pt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ZoneResolution), args.Error(1)
}

func (m *MockZoneService) Distribution(ctx context.Context) ([]repository.ZoneCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.ZoneCount), args.Error(1)
}

// MockReceiptRenderer is a mock implementation of ReceiptRenderer.
type MockReceiptRenderer struct {
	mock.Mock
}

func (m *MockReceiptRenderer) Render(p *models.Payment, tp *models.Taxpayer) (string, error) {
	args := m.Called(p, tp)
	return args.String(0), args.Error(1)
}

// MockLateNotifier is a mock implementation of LateNotifier.
type MockLateNotifier struct {
	mock.Mock
}

func (m *MockLateNotifier) SendLateNotice(ctx context.Context, p *models.Payment, tp *models.Taxpayer) error {
	args := m.Called(ctx, p, tp)
	return args.Error(0)
}

// fakeTxRunner runs the transaction callback with a nil pgx.Tx; the mocked
// repositories never touch it.
type fakeTxRunner struct {
	err error
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}
