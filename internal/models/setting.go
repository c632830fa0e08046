package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Setting is one row of the admin-editable fee table.
type Setting struct {
	Key       string          `gorm:"primaryKey;size:64" json:"key"`
	Value     decimal.Decimal `gorm:"type:numeric(12,4);not null" json:"value"`
	Version   int64           `gorm:"not null;default:1" json:"version"`
	UpdatedAt time.Time       `json:"updated_at"`
}
