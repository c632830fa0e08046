package models

import "time"

const (
	NotificationTypeSale     = "sale"
	NotificationTypeShipping = "shipping"
	NotificationTypeDelivery = "delivery"
	NotificationTypePayment  = "payment"
	NotificationTypeCashback = "cashback"
	NotificationTypeOrder    = "order"
)

// Notification is one entry in a user's inbox.
type Notification struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	OrderID   *uint     `gorm:"index" json:"order_id,omitempty"`
	Type      string    `gorm:"size:30;not null" json:"type"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
