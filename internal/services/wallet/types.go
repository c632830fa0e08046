package wallet

import (
	"context"

	"apega/internal/models"
	"apega/internal/services/fees"

	"github.com/shopspring/decimal"
)

const DefaultCurrency = "BRL"

// WalletConfig holds configuration for wallet operations
type WalletConfig struct {
	DefaultCurrency   string
	MinimumWithdrawal decimal.Decimal
}

// Quoter prices withdrawals against the live fee schedule.
type Quoter interface {
	QuoteWithdrawal(amount decimal.Decimal) (fees.WithdrawalQuote, error)
}

// CacheOperator defines the caching operations the service needs. GetWallet
// returns (nil, nil) on a miss.
type CacheOperator interface {
	GetWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	CacheWallet(ctx context.Context, wallet *models.Wallet) error
	InvalidateWallet(ctx context.Context, userIDs ...uint) error
}

// MetricsCollector defines the interface for collecting wallet metrics
type MetricsCollector interface {
	RecordWithdrawal(status string)
}
