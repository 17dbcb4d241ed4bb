package handlers

import (
	"context"

	"github.com/mbodj/retam/internal/models"
	"github.com/mbodj/retam/internal/repository"
	"github.com/mbodj/retam/internal/services"
	"github.com/stretchr/testify/mock"
)

// MockZoneService is a mock implementation of services.ZoneService.
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

func (m *MockZoneService) ResolveZone(ctx context.Context, pt *models.Point) (*services.ZoneResolution, error) {
	args := m.Called(ctx, pt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ZoneResolution), args.Error(1)
}

func (m *MockZoneService) Distribution(ctx context.Context) ([]repository.ZoneCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.ZoneCount), args.Error(1)
}

// MockPaymentService is a mock implementation of services.PaymentService.
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) RecordPayment(ctx context.Context, p *models.Payment, user string) error {
	args := m.Called(ctx, p, user)
	return args.Error(0)
}

func (m *MockPaymentService) GetPayment(ctx context.Context, id int64) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentService) GetPaymentByReference(ctx context.Context, reference string) (*models.Payment, *models.Taxpayer, error) {
	args := m.Called(ctx, reference)
	var p *models.Payment
	var tp *models.Taxpayer
	if args.Get(0) != nil {
		p = args.Get(0).(*models.Payment)
	}
	if args.Get(1) != nil {
		tp = args.Get(1).(*models.Taxpayer)
	}
	return p, tp, args.Error(2)
}

func (m *MockPaymentService) ListPayments(ctx context.Context, taxpayerID int64) ([]models.Payment, error) {
	args := m.Called(ctx, taxpayerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Payment), args.Error(1)
}

// MockStatsService is a mock implementation of services.StatsService.
type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) MonthlyTotals(ctx context.Context, windowMonths int) ([]services.MonthBucket, error) {
	args := m.Called(ctx, windowMonths)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.MonthBucket), args.Error(1)
}

func (m *MockStatsService) Overview(ctx context.Context) (*services.OverviewStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.OverviewStats), args.Error(1)
}
