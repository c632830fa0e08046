package repositories

import (
	"context"
	"errors"

	"apega/internal/models"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderFilter narrows ListByUser. Role is "buyer", "seller" or empty for both.
type OrderFilter struct {
	UserID uint
	Role   string
	Status string
}

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)

	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Order, error)

	Update(ctx context.Context, order *models.Order) error
	ListByUser(ctx context.Context, filter OrderFilter, limit, offset int) ([]models.Order, int64, error)

	// Summary aggregates every order that was not cancelled.
	Summary(ctx context.Context) (*models.OrderSummary, error)
}
