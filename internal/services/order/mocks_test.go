package order

import (
	"context"
	"time"

	"apega/internal/models"
	"apega/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, o *models.Order) error {
	args := m.Called(ctx, o)
	if args.Error(0) == nil && o.ID == 0 {
		o.ID = 1
	}
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *models.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) ListByUser(ctx context.Context, f repositories.OrderFilter, limit, offset int) ([]models.Order, int64, error) {
	args := m.Called(ctx, f, limit, offset)
	orders, _ := args.Get(0).([]models.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) Summary(ctx context.Context) (*models.OrderSummary, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*models.OrderSummary)
	return s, args.Error(1)
}

type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	args := m.Called(ctx, userID)
	w, _ := args.Get(0).(*models.Wallet)
	return w, args.Error(1)
}

func (m *MockWalletRepository) EnsureWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	args := m.Called(ctx, userID)
	w, _ := args.Get(0).(*models.Wallet)
	return w, args.Error(1)
}

func (m *MockWalletRepository) Credit(ctx context.Context, userID uint, amount decimal.Decimal) error {
	return m.Called(ctx, userID, amount.StringFixed(2)).Error(0)
}

func (m *MockWalletRepository) CreditCashback(ctx context.Context, userID uint, amount decimal.Decimal) error {
	return m.Called(ctx, userID, amount.StringFixed(2)).Error(0)
}

func (m *MockWalletRepository) Debit(ctx context.Context, userID uint, amount decimal.Decimal) error {
	return m.Called(ctx, userID, amount.StringFixed(2)).Error(0)
}

func (m *MockWalletRepository) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockWalletRepository) GetTransactionForUpdate(ctx context.Context, id uint) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	tx, _ := args.Get(0).(*models.Transaction)
	return tx, args.Error(1)
}

func (m *MockWalletRepository) UpdateTransaction(ctx context.Context, tx *models.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockWalletRepository) ListTransactions(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, int64, error) {
	args := m.Called(ctx, userID, limit, offset)
	txs, _ := args.Get(0).([]models.Transaction)
	return txs, args.Get(1).(int64), args.Error(2)
}

func (m *MockWalletRepository) ExecuteInTransaction(ctx context.Context, fn func(repositories.WalletRepository) error) error {
	return fn(m)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *models.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) IncrementTotalSales(ctx context.Context, userID uint) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockUserRepository) IncrementTokenVersion(ctx context.Context, userID uint) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, userID uint, at time.Time) error {
	return m.Called(ctx, userID, at).Error(0)
}

func (m *MockUserRepository) UpdateSubscription(ctx context.Context, userID uint, subscription string) error {
	return m.Called(ctx, userID, subscription).Error(0)
}

// fakeTransactor runs fn directly against the mocks.
type fakeTransactor struct {
	repos repositories.Repos
}

func (f *fakeTransactor) WithinTransaction(ctx context.Context, fn func(repositories.Repos) error) error {
	return fn(f.repos)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

func (m *MockLocker) ReleaseLock(ctx context.Context, key, token string) error {
	return m.Called(ctx, key, token).Error(0)
}

type MockWalletCache struct {
	mock.Mock
}

func (m *MockWalletCache) InvalidateWallet(ctx context.Context, userIDs ...uint) error {
	return m.Called(ctx, userIDs).Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) OrderStatusChanged(ctx context.Context, o *models.Order) error {
	return m.Called(ctx, o).Error(0)
}
