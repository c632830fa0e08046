package repositories

import (
	"context"
	"errors"

	"apega/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrTransactionFailed   = errors.New("transaction failed")
)

// WalletRepository defines the interface for wallet-related database operations
type WalletRepository interface {
	// Core wallet operations
	GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error)
	EnsureWallet(ctx context.Context, userID uint) (*models.Wallet, error)

	// Balance movements. Debit fails with ErrInsufficientBalance instead of
	// letting the balance go negative.
	Credit(ctx context.Context, userID uint, amount decimal.Decimal) error
	CreditCashback(ctx context.Context, userID uint, amount decimal.Decimal) error
	Debit(ctx context.Context, userID uint, amount decimal.Decimal) error

	// Ledger operations
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransactionForUpdate(ctx context.Context, id uint) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, tx *models.Transaction) error
	ListTransactions(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, int64, error)

	// Batch operations
	ExecuteInTransaction(ctx context.Context, fn func(WalletRepository) error) error
}
