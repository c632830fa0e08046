package order

import (
	"context"
	"time"

	"apega/internal/models"
	"apega/internal/repositories"
	"apega/internal/services/fees"

	"github.com/shopspring/decimal"
)

// Service runs an order from checkout to settlement.
type Service interface {
	Checkout(ctx context.Context, in CheckoutInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID uint, actor Actor, change StatusChange) (*models.Order, error)
	MarkPaid(ctx context.Context, orderID uint, actor Actor) (*models.Order, error)
	MarkShipped(ctx context.Context, orderID uint, actor Actor, trackingCode, carrier string) (*models.Order, error)
	MarkDelivered(ctx context.Context, orderID uint, actor Actor) (*models.Order, error)
	Complete(ctx context.Context, orderID uint, actor Actor) (*models.Order, error)
	Cancel(ctx context.Context, orderID uint, actor Actor, reason string) (*models.Order, error)

	Get(ctx context.Context, orderID uint, actor Actor) (*models.Order, error)
	ListForUser(ctx context.Context, filter repositories.OrderFilter, limit, offset int) ([]models.Order, int64, error)
	Summary(ctx context.Context) (*models.OrderSummary, error)
}

// CheckoutInput is one purchase. The seller's tier is looked up, never
// taken from the request.
type CheckoutInput struct {
	BuyerID       uint
	SellerID      uint
	ProductID     uint
	ProductPrice  decimal.Decimal
	ShippingPrice decimal.Decimal
	PaymentMethod fees.PaymentMethod
}

// Actor is whoever asks for a status change.
type Actor struct {
	UserID uint
	Admin  bool
}

// StatusChange is the body of a status update request.
type StatusChange struct {
	Status       string
	TrackingCode string
	Carrier      string
	Reason       string
}

// Pricer prices a sale against the live fee schedule.
type Pricer interface {
	Settle(in fees.Input) (fees.Result, error)
}

// UserLookup finds sellers.
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// Locker guards order completion across replicas.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// WalletCache drops cached balances after settlement.
type WalletCache interface {
	InvalidateWallet(ctx context.Context, userIDs ...uint) error
}

// Notifier tells the parties about status changes.
type Notifier interface {
	OrderStatusChanged(ctx context.Context, o *models.Order) error
}

type MetricsCollector interface {
	RecordTransition(status string)
}

type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordTransition(string) {}

type Config struct {
	LockTTL time.Duration
}
