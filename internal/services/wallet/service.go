package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"apega/internal/models"
	"apega/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type service struct {
	repo    repositories.WalletRepository
	cache   CacheOperator
	quoter  Quoter
	config  WalletConfig
	logger  *zap.Logger
	metrics MetricsCollector
	now     func() time.Time
}

// NewService creates a new wallet service
func NewService(
	repo repositories.WalletRepository,
	cache CacheOperator,
	quoter Quoter,
	logger *zap.Logger,
	metrics MetricsCollector,
	config WalletConfig,
) Service {
	if repo == nil {
		panic("repo is required")
	}
	if cache == nil {
		panic("cache is required")
	}
	if quoter == nil {
		panic("quoter is required")
	}

	if config.DefaultCurrency == "" {
		config.DefaultCurrency = DefaultCurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	// Metrics is optional, create no-op collector if nil
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}

	return &service{
		repo:    repo,
		cache:   cache,
		quoter:  quoter,
		config:  config,
		logger:  logger.Named("wallet"),
		metrics: metrics,
		now:     time.Now,
	}
}

func (s *service) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	// Try cache first
	if wallet, err := s.cache.GetWallet(ctx, userID); err == nil && wallet != nil {
		return wallet, nil
	} else if err != nil {
		s.logger.Warn("wallet cache read failed", zap.Uint("user_id", userID), zap.Error(err))
	}

	wallet, err := s.repo.EnsureWallet(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	if err := s.cache.CacheWallet(ctx, wallet); err != nil {
		s.logger.Warn("failed to cache wallet", zap.Uint("user_id", userID), zap.Error(err))
	}
	return wallet, nil
}

func (s *service) RequestWithdrawal(ctx context.Context, userID uint, amount decimal.Decimal) (*models.Transaction, error) {
	quote, err := s.quoter.QuoteWithdrawal(amount)
	if err != nil {
		s.metrics.RecordWithdrawal("invalid")
		return nil, err
	}
	if amount.LessThan(s.config.MinimumWithdrawal) {
		s.metrics.RecordWithdrawal("invalid")
		return nil, fmt.Errorf("%w: minimum is %s", ErrBelowMinimum, s.config.MinimumWithdrawal.StringFixed(2))
	}

	var txn *models.Transaction
	err = s.repo.ExecuteInTransaction(ctx, func(tx repositories.WalletRepository) error {
		wallet, err := tx.EnsureWallet(ctx, userID)
		if err != nil {
			return err
		}
		if wallet.Status != models.WalletStatusActive {
			return ErrWalletLocked
		}

		if err := tx.Debit(ctx, userID, quote.Amount); err != nil {
			if errors.Is(err, repositories.ErrInsufficientBalance) {
				return ErrInsufficientBalance
			}
			return err
		}

		txn = &models.Transaction{
			UserID:      userID,
			Type:        models.TransactionTypeWithdrawal,
			Amount:      quote.Amount,
			Fee:         quote.Fee,
			Status:      models.TransactionStatusPending,
			Reference:   "withdrawal:" + uuid.NewString(),
			Description: fmt.Sprintf("Saque de R$ %s (taxa R$ %s)", quote.Net.StringFixed(2), quote.Fee.StringFixed(2)),
		}
		return tx.CreateTransaction(ctx, txn)
	})
	if err != nil {
		s.metrics.RecordWithdrawal("failed")
		if errors.Is(err, ErrInsufficientBalance) || errors.Is(err, ErrWalletLocked) {
			return nil, err
		}
		s.logger.Error("withdrawal request failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}

	s.invalidate(ctx, userID)
	s.metrics.RecordWithdrawal(models.TransactionStatusPending)
	s.logger.Info("withdrawal requested",
		zap.Uint("user_id", userID),
		zap.String("amount", quote.Amount.StringFixed(2)),
		zap.String("fee", quote.Fee.StringFixed(2)))
	return txn, nil
}

func (s *service) ProcessWithdrawal(ctx context.Context, txID uint, approve bool) (*models.Transaction, error) {
	var txn *models.Transaction
	err := s.repo.ExecuteInTransaction(ctx, func(tx repositories.WalletRepository) error {
		t, err := tx.GetTransactionForUpdate(ctx, txID)
		if err != nil {
			if errors.Is(err, repositories.ErrTransactionNotFound) {
				return ErrWithdrawalNotFound
			}
			return err
		}
		if t.Type != models.TransactionTypeWithdrawal {
			return ErrWithdrawalNotFound
		}
		if t.Status != models.TransactionStatusPending {
			return ErrAlreadyProcessed
		}

		now := s.now().UTC()
		t.ProcessedAt = &now
		if approve {
			t.Status = models.TransactionStatusCompleted
		} else {
			if err := tx.Credit(ctx, t.UserID, t.Amount); err != nil {
				return err
			}
			t.Status = models.TransactionStatusRejected
		}
		if err := tx.UpdateTransaction(ctx, t); err != nil {
			return err
		}
		txn = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, txn.UserID)
	s.metrics.RecordWithdrawal(txn.Status)
	s.logger.Info("withdrawal processed",
		zap.Uint("transaction_id", txn.ID),
		zap.String("status", txn.Status))
	return txn, nil
}

func (s *service) History(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, int64, error) {
	return s.repo.ListTransactions(ctx, userID, limit, offset)
}

func (s *service) invalidate(ctx context.Context, userID uint) {
	if err := s.cache.InvalidateWallet(ctx, userID); err != nil {
		s.logger.Warn("failed to invalidate wallet cache", zap.Uint("user_id", userID), zap.Error(err))
	}
}
