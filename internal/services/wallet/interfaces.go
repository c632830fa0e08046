package wallet

import (
	"context"

	"apega/internal/models"

	"github.com/shopspring/decimal"
)

// Service defines the main wallet service interface
type Service interface {
	// Balances
	GetWallet(ctx context.Context, userID uint) (*models.Wallet, error)

	// Withdrawals
	RequestWithdrawal(ctx context.Context, userID uint, amount decimal.Decimal) (*models.Transaction, error)
	ProcessWithdrawal(ctx context.Context, txID uint, approve bool) (*models.Transaction, error)

	// Ledger
	History(ctx context.Context, userID uint, limit, offset int) ([]models.Transaction, int64, error)
}
