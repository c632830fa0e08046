package wallet

import (
	"context"
	"errors"
	"testing"
	"time"

	"apega/internal/models"
	"apega/internal/repositories"
	"apega/internal/services/fees"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	args := m.Called(ctx, userID)
	w, _ := args.Get(0).(*models.Wallet)
	return w, args.Error(1)
}

func (m *MockRepo) EnsureWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	args := m.Called(ctx, userID)
	w, _ := args.Get(0).(*models.Wallet)
	return w, args.Error(1)
}

func (m *MockRepo) Credit(ctx context.Context, userID uint, amount decimal.Decimal) error {
	return m.Called(ctx, userID, amount.StringFixed(2)).Error(0)
}

func (m *MockRepo) CreditCashback(ctx context.Context, userID uint, amount decimal.Decimal) error {
	return m.Called(ctx, userID, amount.StringFixed(2)).Error(0)
}

func (m *MockRepo) Debit(ctx context.Context, userID uint, amount decimal.Decimal) error {
	return m.Called(ctx, userID, amount.StringFixed(2)).Error(0)
}

func (m *MockRepo) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockRepo) GetTransactionForUpdate(ctx context.Context, id uint) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	tx, _ := args.Get(0).(*models.Transaction)
	return tx, args.Error(1)
}

func (m *MockRepo) UpdateTransaction(ctx context.Context, tx *models.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockRepo) ListTransactions(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, int64, error) {
	args := m.Called(ctx, userID, limit, offset)
	txs, _ := args.Get(0).([]models.Transaction)
	return txs, args.Get(1).(int64), args.Error(2)
}

func (m *MockRepo) ExecuteInTransaction(ctx context.Context, fn func(repositories.WalletRepository) error) error {
	return fn(m)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	args := m.Called(ctx, userID)
	w, _ := args.Get(0).(*models.Wallet)
	return w, args.Error(1)
}

func (m *MockCache) CacheWallet(ctx context.Context, w *models.Wallet) error {
	return m.Called(ctx, w).Error(0)
}

func (m *MockCache) InvalidateWallet(ctx context.Context, userIDs ...uint) error {
	return m.Called(ctx, userIDs).Error(0)
}

type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RecordWithdrawal(status string) {
	m.Called(status)
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestService(repo *MockRepo, cache *MockCache, metrics MetricsCollector) *service {
	calc := fees.NewCalculator(fees.StaticSource(fees.DefaultConfiguration()), nil)
	svc := NewService(repo, cache, calc, nil, metrics, WalletConfig{MinimumWithdrawal: d("10.00")})
	s := svc.(*service)
	s.now = func() time.Time { return time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC) }
	return s
}

func activeWallet(userID uint, balance string) *models.Wallet {
	return &models.Wallet{UserID: userID, Balance: d(balance), Status: models.WalletStatusActive}
}

func TestWalletService_GetWallet(t *testing.T) {
	t.Run("cache hit", func(t *testing.T) {
		repo, cache := new(MockRepo), new(MockCache)
		cache.On("GetWallet", mock.Anything, uint(1)).Return(activeWallet(1, "40.00"), nil)

		w, err := newTestService(repo, cache, nil).GetWallet(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, "40.00", w.Balance.StringFixed(2))
		repo.AssertNotCalled(t, "EnsureWallet", mock.Anything, mock.Anything)
	})

	t.Run("cache miss loads and caches", func(t *testing.T) {
		repo, cache := new(MockRepo), new(MockCache)
		wallet := activeWallet(1, "12.50")
		cache.On("GetWallet", mock.Anything, uint(1)).Return(nil, nil)
		repo.On("EnsureWallet", mock.Anything, uint(1)).Return(wallet, nil)
		cache.On("CacheWallet", mock.Anything, wallet).Return(nil)

		w, err := newTestService(repo, cache, nil).GetWallet(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, wallet, w)
		cache.AssertExpectations(t)
	})
}

func TestWalletService_RequestWithdrawal(t *testing.T) {
	tests := []struct {
		name      string
		amount    string
		setupMock func(*MockRepo, *MockCache, *MockMetrics)
		wantErr   error
	}{
		{
			name:   "successful withdrawal",
			amount: "50.00",
			setupMock: func(repo *MockRepo, cache *MockCache, metrics *MockMetrics) {
				repo.On("EnsureWallet", mock.Anything, uint(1)).Return(activeWallet(1, "80.00"), nil)
				repo.On("Debit", mock.Anything, uint(1), "50.00").Return(nil)
				repo.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(tx *models.Transaction) bool {
					return tx.Type == models.TransactionTypeWithdrawal &&
						tx.Status == models.TransactionStatusPending &&
						tx.Amount.Equal(d("50.00")) &&
						tx.Fee.Equal(d("2.00"))
				})).Return(nil)
				cache.On("InvalidateWallet", mock.Anything, []uint{1}).Return(nil)
				metrics.On("RecordWithdrawal", models.TransactionStatusPending).Return()
			},
		},
		{
			name:   "amount does not cover fee",
			amount: "2.00",
			setupMock: func(repo *MockRepo, cache *MockCache, metrics *MockMetrics) {
				metrics.On("RecordWithdrawal", "invalid").Return()
			},
			wantErr: fees.ErrInvalidInput,
		},
		{
			name:   "below minimum",
			amount: "9.99",
			setupMock: func(repo *MockRepo, cache *MockCache, metrics *MockMetrics) {
				metrics.On("RecordWithdrawal", "invalid").Return()
			},
			wantErr: ErrBelowMinimum,
		},
		{
			name:   "insufficient balance",
			amount: "500.00",
			setupMock: func(repo *MockRepo, cache *MockCache, metrics *MockMetrics) {
				repo.On("EnsureWallet", mock.Anything, uint(1)).Return(activeWallet(1, "80.00"), nil)
				repo.On("Debit", mock.Anything, uint(1), "500.00").Return(repositories.ErrInsufficientBalance)
				metrics.On("RecordWithdrawal", "failed").Return()
			},
			wantErr: ErrInsufficientBalance,
		},
		{
			name:   "frozen wallet",
			amount: "50.00",
			setupMock: func(repo *MockRepo, cache *MockCache, metrics *MockMetrics) {
				w := activeWallet(1, "80.00")
				w.Status = models.WalletStatusFrozen
				repo.On("EnsureWallet", mock.Anything, uint(1)).Return(w, nil)
				metrics.On("RecordWithdrawal", "failed").Return()
			},
			wantErr: ErrWalletLocked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, cache, metrics := new(MockRepo), new(MockCache), new(MockMetrics)
			tt.setupMock(repo, cache, metrics)

			txn, err := newTestService(repo, cache, metrics).RequestWithdrawal(context.Background(), 1, d(tt.amount))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, txn)
				repo.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
				assert.True(t, txn.Net().Equal(d("48.00")))
			}
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
			metrics.AssertExpectations(t)
		})
	}
}

func TestWalletService_ProcessWithdrawal(t *testing.T) {
	pending := func() *models.Transaction {
		return &models.Transaction{
			ID:     7,
			UserID: 1,
			Type:   models.TransactionTypeWithdrawal,
			Amount: d("50.00"),
			Fee:    d("2.00"),
			Status: models.TransactionStatusPending,
		}
	}

	t.Run("approve", func(t *testing.T) {
		repo, cache := new(MockRepo), new(MockCache)
		repo.On("GetTransactionForUpdate", mock.Anything, uint(7)).Return(pending(), nil)
		repo.On("UpdateTransaction", mock.Anything, mock.Anything).Return(nil)
		cache.On("InvalidateWallet", mock.Anything, []uint{1}).Return(nil)

		txn, err := newTestService(repo, cache, nil).ProcessWithdrawal(context.Background(), 7, true)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusCompleted, txn.Status)
		require.NotNil(t, txn.ProcessedAt)
		repo.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("reject refunds the full amount", func(t *testing.T) {
		repo, cache := new(MockRepo), new(MockCache)
		repo.On("GetTransactionForUpdate", mock.Anything, uint(7)).Return(pending(), nil)
		repo.On("Credit", mock.Anything, uint(1), "50.00").Return(nil)
		repo.On("UpdateTransaction", mock.Anything, mock.Anything).Return(nil)
		cache.On("InvalidateWallet", mock.Anything, []uint{1}).Return(nil)

		txn, err := newTestService(repo, cache, nil).ProcessWithdrawal(context.Background(), 7, false)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusRejected, txn.Status)
		repo.AssertExpectations(t)
	})

	t.Run("already processed", func(t *testing.T) {
		repo, cache := new(MockRepo), new(MockCache)
		done := pending()
		done.Status = models.TransactionStatusCompleted
		repo.On("GetTransactionForUpdate", mock.Anything, uint(7)).Return(done, nil)

		_, err := newTestService(repo, cache, nil).ProcessWithdrawal(context.Background(), 7, false)
		assert.ErrorIs(t, err, ErrAlreadyProcessed)
	})

	t.Run("not a withdrawal", func(t *testing.T) {
		repo, cache := new(MockRepo), new(MockCache)
		sale := pending()
		sale.Type = models.TransactionTypeSale
		repo.On("GetTransactionForUpdate", mock.Anything, uint(7)).Return(sale, nil)

		_, err := newTestService(repo, cache, nil).ProcessWithdrawal(context.Background(), 7, true)
		assert.ErrorIs(t, err, ErrWithdrawalNotFound)
	})

	t.Run("missing", func(t *testing.T) {
		repo, cache := new(MockRepo), new(MockCache)
		repo.On("GetTransactionForUpdate", mock.Anything, uint(8)).Return(nil, repositories.ErrTransactionNotFound)

		_, err := newTestService(repo, cache, nil).ProcessWithdrawal(context.Background(), 8, true)
		assert.ErrorIs(t, err, ErrWithdrawalNotFound)
	})

	t.Run("refund failure bubbles up", func(t *testing.T) {
		repo, cache := new(MockRepo), new(MockCache)
		repo.On("GetTransactionForUpdate", mock.Anything, uint(7)).Return(pending(), nil)
		repo.On("Credit", mock.Anything, uint(1), "50.00").Return(errors.New("connection lost"))

		_, err := newTestService(repo, cache, nil).ProcessWithdrawal(context.Background(), 7, false)
		assert.ErrorContains(t, err, "connection lost")
		cache.AssertNotCalled(t, "InvalidateWallet", mock.Anything, mock.Anything)
	})
}

func TestWalletService_History(t *testing.T) {
	repo, cache := new(MockRepo), new(MockCache)
	repo.On("ListTransactions", mock.Anything, uint(1), 10, 20).
		Return([]models.Transaction{{ID: 1}, {ID: 2}}, int64(22), nil)

	txs, total, err := newTestService(repo, cache, nil).History(context.Background(), 1, 10, 20)
	require.NoError(t, err)
	assert.Len(t, txs, 2)
	assert.Equal(t, int64(22), total)
}

func TestNewService_PanicsWithoutDependencies(t *testing.T) {
	calc := fees.NewCalculator(fees.StaticSource(fees.DefaultConfiguration()), nil)
	assert.Panics(t, func() { NewService(nil, new(MockCache), calc, nil, nil, WalletConfig{}) })
	assert.Panics(t, func() { NewService(new(MockRepo), nil, calc, nil, nil, WalletConfig{}) })
	assert.Panics(t, func() { NewService(new(MockRepo), new(MockCache), nil, nil, nil, WalletConfig{}) })
}
