package repositories

import (
	"context"
	"errors"
	"time"

	"apega/internal/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailTaken        = errors.New("email already taken")
	ErrDatabaseOperation = errors.New("database operation failed")
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	// Create creates a new user in the database
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by their ID
	GetByID(ctx context.Context, id uint) (*models.User, error)

	// GetByEmail retrieves a user by their email address
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// IncrementTotalSales bumps the seller's completed sales counter
	IncrementTotalSales(ctx context.Context, userID uint) error

	// IncrementTokenVersion invalidates every token issued so far
	IncrementTokenVersion(ctx context.Context, userID uint) error

	// UpdateLastLogin records a successful login
	UpdateLastLogin(ctx context.Context, userID uint, at time.Time) error

	// UpdateSubscription changes the plan that decides the seller's commission tier
	UpdateSubscription(ctx context.Context, userID uint, subscription string) error
}
