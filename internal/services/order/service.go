package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"apega/internal/models"
	"apega/internal/repositories"
	"apega/internal/repositories/cache"
	"apega/internal/services/fees"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultLockTTL = 30 * time.Second

type service struct {
	repo    repositories.OrderRepository
	users   UserLookup
	tx      repositories.Transactor
	pricer  Pricer
	locker  Locker
	wallets WalletCache
	notify  Notifier
	logger  *zap.Logger
	metrics MetricsCollector
	config  Config
	now     func() time.Time
}

// NewService creates a new order service. locker, wallets and notifier are
// optional.
func NewService(
	repo repositories.OrderRepository,
	users UserLookup,
	tx repositories.Transactor,
	pricer Pricer,
	locker Locker,
	wallets WalletCache,
	notifier Notifier,
	logger *zap.Logger,
	metrics MetricsCollector,
	config Config,
) Service {
	if repo == nil {
		panic("order repository is required")
	}
	if users == nil {
		panic("user lookup is required")
	}
	if tx == nil {
		panic("transactor is required")
	}
	if pricer == nil {
		panic("pricer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NoopMetricsCollector{}
	}
	if config.LockTTL == 0 {
		config.LockTTL = defaultLockTTL
	}

	return &service{
		repo:    repo,
		users:   users,
		tx:      tx,
		pricer:  pricer,
		locker:  locker,
		wallets: wallets,
		notify:  notifier,
		logger:  logger.Named("order"),
		metrics: metrics,
		config:  config,
		now:     time.Now,
	}
}

func (s *service) Checkout(ctx context.Context, in CheckoutInput) (*models.Order, error) {
	if in.BuyerID == in.SellerID {
		return nil, ErrSelfPurchase
	}

	seller, err := s.users.GetByID(ctx, in.SellerID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrSellerNotFound
		}
		return nil, fmt.Errorf("failed to load seller: %w", err)
	}

	res, err := s.pricer.Settle(fees.Input{
		ProductPrice:  in.ProductPrice,
		ShippingPrice: in.ShippingPrice,
		SellerTier:    seller.SellerTier(),
		PaymentMethod: in.PaymentMethod,
	})
	if err != nil {
		return nil, err
	}
	r := res.RoundToCents()

	order := &models.Order{
		OrderNumber:      newOrderNumber(s.now()),
		BuyerID:          in.BuyerID,
		SellerID:         in.SellerID,
		ProductID:        in.ProductID,
		ProductPrice:     r.ProductPrice,
		ShippingPrice:    r.ShippingPrice,
		TotalAmount:      r.BuyerTotal,
		CommissionRate:   r.CommissionRate,
		CommissionAmount: r.CommissionAmount,
		GatewayFee:       r.GatewayFee,
		SellerReceives:   r.SellerNet,
		PlatformNet:      r.PlatformNet,
		CashbackAmount:   r.CashbackAmount,
		PaymentMethod:    string(in.PaymentMethod),
		SellerTier:       string(seller.SellerTier()),
		FeeConfigVersion: r.ConfigVersion,
		Status:           models.OrderStatusPendingPayment,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(order.Status)
	s.logger.Info("order created",
		zap.String("order_number", order.OrderNumber),
		zap.Uint("buyer_id", order.BuyerID),
		zap.Uint("seller_id", order.SellerID),
		zap.String("total", order.TotalAmount.StringFixed(2)),
		zap.Int64("fee_config_version", order.FeeConfigVersion))
	return order, nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID uint, actor Actor, change StatusChange) (*models.Order, error) {
	switch change.Status {
	case models.OrderStatusPaid:
		return s.MarkPaid(ctx, orderID, actor)
	case models.OrderStatusShipped:
		return s.MarkShipped(ctx, orderID, actor, change.TrackingCode, change.Carrier)
	case models.OrderStatusDelivered:
		return s.MarkDelivered(ctx, orderID, actor)
	case models.OrderStatusCompleted:
		return s.Complete(ctx, orderID, actor)
	case models.OrderStatusCancelled:
		return s.Cancel(ctx, orderID, actor, change.Reason)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, change.Status)
	}
}

func (s *service) MarkPaid(ctx context.Context, orderID uint, actor Actor) (*models.Order, error) {
	return s.transition(ctx, orderID, actor, models.OrderStatusPaid, func(o *models.Order, at time.Time) {
		o.PaidAt = &at
	})
}

func (s *service) MarkShipped(ctx context.Context, orderID uint, actor Actor, trackingCode, carrier string) (*models.Order, error) {
	return s.transition(ctx, orderID, actor, models.OrderStatusShipped, func(o *models.Order, at time.Time) {
		o.ShippedAt = &at
		o.TrackingCode = trackingCode
		o.Carrier = carrier
	})
}

func (s *service) MarkDelivered(ctx context.Context, orderID uint, actor Actor) (*models.Order, error) {
	return s.transition(ctx, orderID, actor, models.OrderStatusDelivered, func(o *models.Order, at time.Time) {
		o.DeliveredAt = &at
	})
}

func (s *service) Cancel(ctx context.Context, orderID uint, actor Actor, reason string) (*models.Order, error) {
	return s.transition(ctx, orderID, actor, models.OrderStatusCancelled, func(o *models.Order, at time.Time) {
		o.CancelledAt = &at
		o.CancelReason = reason
	})
}

// transition moves an order to status under a row lock. apply stamps the
// status-specific fields.
func (s *service) transition(ctx context.Context, orderID uint, actor Actor, status string, apply func(*models.Order, time.Time)) (*models.Order, error) {
	var updated *models.Order
	err := s.tx.WithinTransaction(ctx, func(r repositories.Repos) error {
		o, err := r.Orders.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return mapNotFound(err)
		}
		if !allowed(actor, o, status) {
			return ErrForbidden
		}
		if !CanTransition(o.Status, status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, status)
		}

		o.Status = status
		apply(o, s.now().UTC())
		if err := r.Orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(status)
	s.announce(ctx, updated)
	s.logger.Info("order status changed",
		zap.String("order_number", updated.OrderNumber),
		zap.String("status", status),
		zap.Uint("actor_id", actor.UserID))
	return updated, nil
}

// Complete settles a delivered order: the seller is credited, the buyer gets
// cashback and the seller's sales count goes up, all in one transaction.
// Completing an order twice returns it unchanged.
func (s *service) Complete(ctx context.Context, orderID uint, actor Actor) (*models.Order, error) {
	if s.locker != nil {
		key := cache.GenerateKey("order", "complete", orderID)
		token, err := s.locker.AcquireLock(ctx, key, s.config.LockTTL)
		switch {
		case errors.Is(err, cache.ErrLockHeld):
			return nil, ErrCompletionInProgress
		case err != nil:
			// The row lock taken by GetByIDForUpdate still serializes
			// completions; Redis only turns a wait into a fast 409.
			s.logger.Warn("completion lock unavailable, relying on row lock",
				zap.Uint("order_id", orderID), zap.Error(err))
		default:
			defer func() {
				if err := s.locker.ReleaseLock(context.WithoutCancel(ctx), key, token); err != nil {
					s.logger.Warn("failed to release completion lock", zap.Uint("order_id", orderID), zap.Error(err))
				}
			}()
		}
	}

	var (
		completed   *models.Order
		alreadyDone bool
	)
	err := s.tx.WithinTransaction(ctx, func(r repositories.Repos) error {
		o, err := r.Orders.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return mapNotFound(err)
		}
		if !allowed(actor, o, models.OrderStatusCompleted) {
			return ErrForbidden
		}
		if o.Status == models.OrderStatusCompleted {
			completed, alreadyDone = o, true
			return nil
		}
		if !CanTransition(o.Status, models.OrderStatusCompleted) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, models.OrderStatusCompleted)
		}

		if err := s.settle(ctx, r, o); err != nil {
			return err
		}

		at := s.now().UTC()
		o.Status = models.OrderStatusCompleted
		o.CompletedAt = &at
		if err := r.Orders.Update(ctx, o); err != nil {
			return err
		}
		completed = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	if alreadyDone {
		return completed, nil
	}

	if s.wallets != nil {
		if err := s.wallets.InvalidateWallet(ctx, completed.SellerID, completed.BuyerID); err != nil {
			s.logger.Warn("failed to invalidate wallet cache", zap.Error(err))
		}
	}
	s.metrics.RecordTransition(models.OrderStatusCompleted)
	s.announce(ctx, completed)
	s.logger.Info("order completed",
		zap.String("order_number", completed.OrderNumber),
		zap.String("seller_receives", completed.SellerReceives.StringFixed(2)),
		zap.String("cashback", completed.CashbackAmount.StringFixed(2)))
	return completed, nil
}

// announce is best effort. A failed notification never fails the change
// that caused it.
func (s *service) announce(ctx context.Context, o *models.Order) {
	if s.notify == nil {
		return
	}
	if err := s.notify.OrderStatusChanged(ctx, o); err != nil {
		s.logger.Warn("failed to notify order parties",
			zap.String("order_number", o.OrderNumber),
			zap.Error(err))
	}
}

func (s *service) settle(ctx context.Context, r repositories.Repos, o *models.Order) error {
	orderID := o.ID

	if err := r.Wallets.Credit(ctx, o.SellerID, o.SellerReceives); err != nil {
		return err
	}
	if err := r.Wallets.CreateTransaction(ctx, &models.Transaction{
		UserID:      o.SellerID,
		OrderID:     &orderID,
		Type:        models.TransactionTypeSale,
		Amount:      o.SellerReceives,
		Status:      models.TransactionStatusCompleted,
		Reference:   "sale:" + o.OrderNumber,
		Description: "Venda #" + o.OrderNumber,
	}); err != nil {
		return err
	}

	if o.CashbackAmount.IsPositive() {
		if err := r.Wallets.CreditCashback(ctx, o.BuyerID, o.CashbackAmount); err != nil {
			return err
		}
		if err := r.Wallets.CreateTransaction(ctx, &models.Transaction{
			UserID:      o.BuyerID,
			OrderID:     &orderID,
			Type:        models.TransactionTypeCashback,
			Amount:      o.CashbackAmount,
			Status:      models.TransactionStatusCompleted,
			Reference:   "cashback:" + o.OrderNumber,
			Description: "Cashback - Compra #" + o.OrderNumber,
		}); err != nil {
			return err
		}
	}

	return r.Users.IncrementTotalSales(ctx, o.SellerID)
}

func (s *service) Get(ctx context.Context, orderID uint, actor Actor) (*models.Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if !actor.Admin && !o.IsParty(actor.UserID) {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *service) ListForUser(ctx context.Context, filter repositories.OrderFilter, limit, offset int) ([]models.Order, int64, error) {
	return s.repo.ListByUser(ctx, filter, limit, offset)
}

func (s *service) Summary(ctx context.Context) (*models.OrderSummary, error) {
	return s.repo.Summary(ctx)
}

func mapNotFound(err error) error {
	if errors.Is(err, repositories.ErrOrderNotFound) {
		return ErrOrderNotFound
	}
	return err
}

// newOrderNumber returns AP, the date as yymmdd and six random hex digits.
func newOrderNumber(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return "AP" + at.Format("060102") + suffix
}
