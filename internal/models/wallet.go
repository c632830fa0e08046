package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	WalletStatusActive = "active"
	WalletStatusFrozen = "frozen"
)

// Wallet keeps a seller's withdrawable balance and a buyer's cashback
// balance side by side. Cashback can only be spent on purchases, never
// withdrawn.
type Wallet struct {
	ID              uint            `gorm:"primarykey" json:"id"`
	UserID          uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance         decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"balance"`
	CashbackBalance decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"cashback_balance"`
	Currency        string          `gorm:"default:'BRL'" json:"currency"`
	Status          string          `gorm:"default:'active'" json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	w.Balance = decimal.Zero
	w.CashbackBalance = decimal.Zero
	return nil
}
