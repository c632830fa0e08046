// Package notification writes and serves the in-app inbox. Order status
// changes are turned into messages for whichever party has to act next.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"apega/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, int64, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
	MarkRead(ctx context.Context, userID, id uint) error
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
}

// Page is one slice of an inbox.
type Page struct {
	Notifications []models.Notification `json:"notifications"`
	Total         int64                 `json:"total"`
	Unread        int64                 `json:"unread_count"`
}

// Service is the notification service.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new notification service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	if repo == nil {
		panic("notification repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger.Named("notification")}
}

// OrderStatusChanged stores the messages for o's current status. Statuses
// nobody needs to hear about produce nothing.
func (s *Service) OrderStatusChanged(ctx context.Context, o *models.Order) error {
	var errs []error
	for _, n := range messagesFor(o) {
		if err := s.repo.Create(ctx, n); err != nil {
			errs = append(errs, err)
			continue
		}
		s.logger.Debug("notification stored",
			zap.Uint("user_id", n.UserID),
			zap.String("type", n.Type))
	}
	return errors.Join(errs...)
}

func (s *Service) List(ctx context.Context, userID uint, limit, offset int) (*Page, error) {
	items, total, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Page{Notifications: items, Total: total, Unread: unread}, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, id uint) error {
	return s.repo.MarkRead(ctx, userID, id)
}

func (s *Service) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

func messagesFor(o *models.Order) []*models.Notification {
	orderID := o.ID
	note := func(userID uint, kind, title, message string) *models.Notification {
		return &models.Notification{
			UserID:  userID,
			OrderID: &orderID,
			Type:    kind,
			Title:   title,
			Message: message,
		}
	}

	switch o.Status {
	case models.OrderStatusPaid:
		return []*models.Notification{
			note(o.SellerID, models.NotificationTypeSale, "Nova venda!",
				fmt.Sprintf("O pedido %s foi pago. Prepare o envio.", o.OrderNumber)),
		}
	case models.OrderStatusShipped:
		msg := fmt.Sprintf("Seu pedido %s foi enviado.", o.OrderNumber)
		if o.TrackingCode != "" {
			msg += " Código: " + o.TrackingCode
		}
		return []*models.Notification{
			note(o.BuyerID, models.NotificationTypeShipping, "Pedido enviado!", msg),
		}
	case models.OrderStatusDelivered:
		return []*models.Notification{
			note(o.SellerID, models.NotificationTypeDelivery, "Pedido entregue",
				fmt.Sprintf("O pedido %s foi entregue ao comprador.", o.OrderNumber)),
		}
	case models.OrderStatusCompleted:
		out := []*models.Notification{
			note(o.SellerID, models.NotificationTypePayment, "Pagamento liberado",
				fmt.Sprintf("%s do pedido %s foram creditados no seu saldo.", brl(o.SellerReceives), o.OrderNumber)),
		}
		if o.CashbackAmount.IsPositive() {
			out = append(out, note(o.BuyerID, models.NotificationTypeCashback, "Cashback recebido",
				fmt.Sprintf("Você ganhou %s de cashback no pedido %s.", brl(o.CashbackAmount), o.OrderNumber)))
		}
		return out
	case models.OrderStatusCancelled:
		msg := fmt.Sprintf("O pedido %s foi cancelado.", o.OrderNumber)
		return []*models.Notification{
			note(o.BuyerID, models.NotificationTypeOrder, "Pedido cancelado", msg),
			note(o.SellerID, models.NotificationTypeOrder, "Pedido cancelado", msg),
		}
	}
	return nil
}

// brl formats an amount the way the app displays it, e.g. "R$ 88,00".
func brl(d decimal.Decimal) string {
	return "R$ " + strings.Replace(d.StringFixed(2), ".", ",", 1)
}
