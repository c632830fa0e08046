package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ledger entry types
const (
	TransactionTypeSale       = "sale"
	TransactionTypeCashback   = "cashback"
	TransactionTypeWithdrawal = "withdrawal"
	TransactionTypeRefund     = "refund"
)

// Ledger entry statuses
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusRejected  = "rejected"
)

// Transaction is one movement on a wallet. Amount is always positive; Type
// says which way it went.
type Transaction struct {
	ID          uint            `gorm:"primarykey" json:"id"`
	UserID      uint            `gorm:"index;not null" json:"user_id"`
	OrderID     *uint           `gorm:"index" json:"order_id,omitempty"`
	Type        string          `gorm:"not null" json:"type"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Fee         decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"fee"`
	Status      string          `gorm:"not null;default:'pending'" json:"status"`
	Reference   string          `gorm:"uniqueIndex;size:64" json:"reference"`
	Description string          `json:"description"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Net is what actually leaves or enters the wallet owner's hands.
func (t *Transaction) Net() decimal.Decimal {
	return t.Amount.Sub(t.Fee)
}
