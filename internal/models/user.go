package models

import (
	"time"

	"apega/internal/services/fees"

	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	SubscriptionFree    = "free"
	SubscriptionPremium = "premium"

	StatusActive   = "active"
	StatusDisabled = "disabled"
)

type User struct {
	gorm.Model
	Email            string `gorm:"uniqueIndex;not null"`
	Password         string `gorm:"not null" json:"-"`
	Name             string `gorm:"not null"`
	Role             string `gorm:"default:'user'"`
	SubscriptionType string `gorm:"default:'free'"`
	Status           string `gorm:"default:'active'"`
	TotalSales       int    `gorm:"default:0"`
	TokenVersion     int    `gorm:"default:1"`
	LastLoginAt      *time.Time
}

// SellerTier maps the subscription onto the commission tier it pays.
// Anything that is not premium pays the standard rate.
func (u *User) SellerTier() fees.SellerTier {
	if u.SubscriptionType == SubscriptionPremium {
		return fees.TierPremium
	}
	return fees.TierStandard
}

// ValidSubscription reports whether s is a subscription the marketplace sells.
func ValidSubscription(s string) bool {
	return s == SubscriptionFree || s == SubscriptionPremium
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
