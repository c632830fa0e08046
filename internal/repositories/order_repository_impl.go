package repositories

import (
	"context"
	"errors"
	"fmt"

	"apega/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	return r.first(r.db.WithContext(ctx), id)
}

func (r *orderRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.Order, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *orderRepository) first(q *gorm.DB, id uint) (*models.Order, error) {
	var order models.Order
	if err := q.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

func (r *orderRepository) Update(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Save(order).Error; err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	return nil
}

func (r *orderRepository) ListByUser(ctx context.Context, filter OrderFilter, limit, offset int) ([]models.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	switch filter.Role {
	case "buyer":
		q = q.Where("buyer_id = ?", filter.UserID)
	case "seller":
		q = q.Where("seller_id = ?", filter.UserID)
	default:
		q = q.Where("buyer_id = ? OR seller_id = ?", filter.UserID, filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []models.Order
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

func (r *orderRepository) Summary(ctx context.Context) (*models.OrderSummary, error) {
	var summary models.OrderSummary
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("status <> ?", models.OrderStatusCancelled).
		Select(`
			COUNT(*) as orders,
			COALESCE(SUM(total_amount), 0) as gross_volume,
			COALESCE(SUM(commission_amount), 0) as total_commission,
			COALESCE(SUM(gateway_fee), 0) as total_gateway_fee,
			COALESCE(SUM(cashback_amount), 0) as total_cashback,
			COALESCE(SUM(platform_net), 0) as platform_net
		`).
		Scan(&summary).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get order summary: %w", err)
	}
	return &summary, nil
}
