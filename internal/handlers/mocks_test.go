package handlers

import (
	"context"

	"apega/internal/models"
	"apega/internal/repositories"
	"apega/internal/services/auth"
	"apega/internal/services/fees"
	"apega/internal/services/order"
	"apega/internal/services/settings"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) orderResult(args mock.Arguments) (*models.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderService) Checkout(ctx context.Context, in order.CheckoutInput) (*models.Order, error) {
	return m.orderResult(m.Called(ctx, in))
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, id uint, actor order.Actor, change order.StatusChange) (*models.Order, error) {
	return m.orderResult(m.Called(ctx, id, actor, change))
}

func (m *MockOrderService) MarkPaid(ctx context.Context, id uint, actor order.Actor) (*models.Order, error) {
	return m.orderResult(m.Called(ctx, id, actor))
}

func (m *MockOrderService) MarkShipped(ctx context.Context, id uint, actor order.Actor, trackingCode, carrier string) (*models.Order, error) {
	return m.orderResult(m.Called(ctx, id, actor, trackingCode, carrier))
}

func (m *MockOrderService) MarkDelivered(ctx context.Context, id uint, actor order.Actor) (*models.Order, error) {
	return m.orderResult(m.Called(ctx, id, actor))
}

func (m *MockOrderService) Complete(ctx context.Context, id uint, actor order.Actor) (*models.Order, error) {
	return m.orderResult(m.Called(ctx, id, actor))
}

func (m *MockOrderService) Cancel(ctx context.Context, id uint, actor order.Actor, reason string) (*models.Order, error) {
	return m.orderResult(m.Called(ctx, id, actor, reason))
}

func (m *MockOrderService) Get(ctx context.Context, id uint, actor order.Actor) (*models.Order, error) {
	return m.orderResult(m.Called(ctx, id, actor))
}

func (m *MockOrderService) ListForUser(ctx context.Context, filter repositories.OrderFilter, limit, offset int) ([]models.Order, int64, error) {
	args := m.Called(ctx, filter, limit, offset)
	return args.Get(0).([]models.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderService) Summary(ctx context.Context) (*models.OrderSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrderSummary), args.Error(1)
}

type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockWalletService) RequestWithdrawal(ctx context.Context, userID uint, amount decimal.Decimal) (*models.Transaction, error) {
	args := m.Called(ctx, userID, amount.StringFixed(2))
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockWalletService) ProcessWithdrawal(ctx context.Context, txID uint, approve bool) (*models.Transaction, error) {
	args := m.Called(ctx, txID, approve)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockWalletService) History(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, int64, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Transaction), args.Get(1).(int64), args.Error(2)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, r auth.Registration) (*models.User, auth.Tokens, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, auth.Tokens{}, args.Error(2)
	}
	return args.Get(0).(*models.User), args.Get(1).(auth.Tokens), args.Error(2)
}

func (m *MockAuthService) Profile(ctx context.Context, userID uint) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) SetSubscription(ctx context.Context, userID uint, plan string) (*models.User, error) {
	args := m.Called(ctx, userID, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*models.User, auth.Tokens, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, auth.Tokens{}, args.Error(2)
	}
	return args.Get(0).(*models.User), args.Get(1).(auth.Tokens), args.Error(2)
}

func (m *MockAuthService) AdminLogin(ctx context.Context, email, password string) (*models.User, auth.Tokens, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, auth.Tokens{}, args.Error(2)
	}
	return args.Get(0).(*models.User), args.Get(1).(auth.Tokens), args.Error(2)
}

func (m *MockAuthService) RefreshTokens(ctx context.Context, refreshToken string) (auth.Tokens, error) {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(auth.Tokens), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, userID uint) error {
	return m.Called(ctx, userID).Error(0)
}

// fakeSettings applies updates to an in-memory configuration with the same
// key validation as the real store.
type fakeSettings struct {
	cfg fees.Configuration
	err error
}

func (f *fakeSettings) Snapshot() fees.Configuration { return f.cfg }

func (f *fakeSettings) Update(_ context.Context, changes map[string]decimal.Decimal) (fees.Configuration, error) {
	if f.err != nil {
		return fees.Configuration{}, f.err
	}
	if len(changes) == 0 {
		return fees.Configuration{}, settings.ErrNoChanges
	}
	next := f.cfg
	for key, value := range changes {
		switch key {
		case settings.KeyCommissionFree:
			next.CommissionRateStandard = value
		case settings.KeyCommissionPremium:
			next.CommissionRatePremium = value
		default:
			return fees.Configuration{}, settings.ErrUnknownKey
		}
	}
	if err := next.Validate(); err != nil {
		return fees.Configuration{}, err
	}
	next.Version++
	f.cfg = next
	return next, nil
}

type stubUsers map[uint]*models.User

func (s stubUsers) GetByID(_ context.Context, id uint) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, repositories.ErrUserNotFound
}
