package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses
const (
	OrderStatusPendingPayment = "pending_payment"
	OrderStatusPaid           = "paid"
	OrderStatusShipped        = "shipped"
	OrderStatusDelivered      = "delivered"
	OrderStatusCompleted      = "completed"
	OrderStatusCancelled      = "cancelled"
)

// Order stores the settlement breakdown computed at checkout, rounded to
// cents. Later fee changes never touch it.
type Order struct {
	ID               uint            `gorm:"primarykey" json:"id"`
	OrderNumber      string          `gorm:"uniqueIndex;size:20;not null" json:"order_number"`
	BuyerID          uint            `gorm:"index;not null" json:"buyer_id"`
	SellerID         uint            `gorm:"index;not null" json:"seller_id"`
	ProductID        uint            `gorm:"index;not null" json:"product_id"`
	ProductPrice     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"product_price"`
	ShippingPrice    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"shipping_price"`
	TotalAmount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	CommissionRate   decimal.Decimal `gorm:"type:numeric(6,4);not null" json:"commission_rate"`
	CommissionAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"commission_amount"`
	GatewayFee       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"gateway_fee"`
	SellerReceives   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"seller_receives"`
	PlatformNet      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"platform_net"`
	CashbackAmount   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"cashback_amount"`
	PaymentMethod    string          `gorm:"size:32;not null" json:"payment_method"`
	SellerTier       string          `gorm:"size:16;not null" json:"seller_tier"`
	FeeConfigVersion int64           `json:"fee_config_version"`
	Status           string          `gorm:"index;not null;default:'pending_payment'" json:"status"`
	TrackingCode     string          `json:"tracking_code,omitempty"`
	Carrier          string          `json:"carrier,omitempty"`
	CancelReason     string          `json:"cancel_reason,omitempty"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
	ShippedAt        *time.Time      `json:"shipped_at,omitempty"`
	DeliveredAt      *time.Time      `json:"delivered_at,omitempty"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
	CancelledAt      *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// IsParty reports whether userID is the buyer or the seller.
func (o *Order) IsParty(userID uint) bool {
	return o.BuyerID == userID || o.SellerID == userID
}

// OrderSummary aggregates the platform's side of every non-cancelled order.
type OrderSummary struct {
	Orders          int64           `json:"orders"`
	GrossVolume     decimal.Decimal `json:"gross_volume"`
	TotalCommission decimal.Decimal `json:"total_commission"`
	TotalGatewayFee decimal.Decimal `json:"total_gateway_fee"`
	TotalCashback   decimal.Decimal `json:"total_cashback"`
	PlatformNet     decimal.Decimal `json:"platform_net"`
}
