package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"apega/internal/models"

	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		return fmt.Errorf("%w: %v", ErrDatabaseOperation, err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).Where("email = ?", email).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrDatabaseOperation, result.Error)
	}
	return &user, nil
}

func (r *userRepository) IncrementTotalSales(ctx context.Context, userID uint) error {
	return r.updateColumn(ctx, userID, "total_sales", gorm.Expr("total_sales + 1"))
}

func (r *userRepository) IncrementTokenVersion(ctx context.Context, userID uint) error {
	return r.updateColumn(ctx, userID, "token_version", gorm.Expr("token_version + 1"))
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, userID uint, at time.Time) error {
	return r.updateColumn(ctx, userID, "last_login_at", at)
}

func (r *userRepository) UpdateSubscription(ctx context.Context, userID uint, subscription string) error {
	return r.updateColumn(ctx, userID, "subscription_type", subscription)
}

func (r *userRepository) updateColumn(ctx context.Context, userID uint, column string, value interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update(column, value)
	if result.Error != nil {
		return fmt.Errorf("failed to update %s: %w", column, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
