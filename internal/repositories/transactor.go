package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Repos bundles the repositories that share one database transaction.
type Repos struct {
	Orders  OrderRepository
	Wallets WalletRepository
	Users   UserRepository
}

// Transactor runs fn against repositories bound to a single transaction.
// Returning an error from fn rolls everything back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(Repos) error) error
}

type gormTransactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

func (t *gormTransactor) WithinTransaction(ctx context.Context, fn func(Repos) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Repos{
			Orders:  &orderRepository{db: tx},
			Wallets: &walletRepository{db: tx},
			Users:   &userRepository{db: tx},
		})
	})
}
