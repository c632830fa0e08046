package fees

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SellerTier is the seller's subscription level.
type SellerTier string

const (
	TierStandard SellerTier = "standard"
	TierPremium  SellerTier = "premium"
)

// ParseSellerTier accepts the canonical names plus "free", which is how the
// admin dashboard and the users table name the standard tier.
func ParseSellerTier(s string) (SellerTier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "standard", "free":
		return TierStandard, nil
	case "premium":
		return TierPremium, nil
	}
	return "", invalidInput("seller_tier", "must be standard or premium")
}

func (t SellerTier) Valid() bool {
	return t == TierStandard || t == TierPremium
}

// PaymentMethod is how the buyer pays.
type PaymentMethod string

const (
	MethodInstantTransfer PaymentMethod = "instant_transfer"
	MethodCard            PaymentMethod = "card"
	MethodVoucher         PaymentMethod = "voucher"
)

// ParsePaymentMethod accepts the canonical names plus the local aliases
// "pix" (instant transfer) and "boleto" (voucher).
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "instant_transfer", "pix":
		return MethodInstantTransfer, nil
	case "card", "credit_card":
		return MethodCard, nil
	case "voucher", "boleto":
		return MethodVoucher, nil
	}
	return "", invalidInput("payment_method", "must be instant_transfer, card or voucher")
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodInstantTransfer, MethodCard, MethodVoucher:
		return true
	}
	return false
}

// Configuration is one immutable fee schedule. Rates are percentages
// (12 means 12%), fixed fees are currency amounts.
type Configuration struct {
	CommissionRateStandard decimal.Decimal `json:"commission_rate_standard"`
	CommissionRatePremium  decimal.Decimal `json:"commission_rate_premium"`
	PixFeeRate             decimal.Decimal `json:"pix_fee_rate"`
	CardFeeRate            decimal.Decimal `json:"card_fee_rate"`
	CardFeeFixed           decimal.Decimal `json:"card_fee_fixed"`
	BoletoFeeFixed         decimal.Decimal `json:"boleto_fee_fixed"`
	WithdrawalFeeFixed     decimal.Decimal `json:"withdrawal_fee_fixed"`
	CashbackRate           decimal.Decimal `json:"cashback_rate"`

	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultConfiguration returns the schedule the marketplace launched with.
func DefaultConfiguration() Configuration {
	return Configuration{
		CommissionRateStandard: decimal.NewFromInt(12),
		CommissionRatePremium:  decimal.NewFromInt(8),
		PixFeeRate:             decimal.RequireFromString("0.99"),
		CardFeeRate:            decimal.RequireFromString("3.99"),
		CardFeeFixed:           decimal.RequireFromString("0.39"),
		BoletoFeeFixed:         decimal.RequireFromString("3.49"),
		WithdrawalFeeFixed:     decimal.RequireFromString("2.00"),
		CashbackRate:           decimal.NewFromInt(5),
	}
}

// Validate checks that every value is non-negative and that premium sellers
// never pay more commission than standard ones.
// MaxSettingScale is the number of decimal places a setting keeps once
// persisted.
const MaxSettingScale = 4

var maxRate = decimal.NewFromInt(100)

func isRate(field string) bool {
	switch field {
	case "commission_rate_standard", "commission_rate_premium", "pix_fee_rate", "card_fee_rate", "cashback_rate":
		return true
	}
	return false
}

func (c Configuration) Validate() error {
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"commission_rate_standard", c.CommissionRateStandard},
		{"commission_rate_premium", c.CommissionRatePremium},
		{"pix_fee_rate", c.PixFeeRate},
		{"card_fee_rate", c.CardFeeRate},
		{"card_fee_fixed", c.CardFeeFixed},
		{"boleto_fee_fixed", c.BoletoFeeFixed},
		{"withdrawal_fee_fixed", c.WithdrawalFeeFixed},
		{"cashback_rate", c.CashbackRate},
	}
	for _, f := range fields {
		if f.value.IsNegative() {
			return &ConfigurationError{Field: f.name, Reason: "must not be negative"}
		}
		if !f.value.Equal(f.value.Round(MaxSettingScale)) {
			return &ConfigurationError{Field: f.name, Reason: "must have at most four decimal places"}
		}
	}
	// Rates are stored as numeric(6,4) on every order.
	for _, f := range fields {
		if isRate(f.name) && f.value.GreaterThanOrEqual(maxRate) {
			return &ConfigurationError{Field: f.name, Reason: "must be below 100"}
		}
	}
	if c.CommissionRatePremium.GreaterThan(c.CommissionRateStandard) {
		return &ConfigurationError{
			Field:  "commission_rate_premium",
			Reason: "must not exceed commission_rate_standard",
		}
	}
	return nil
}

// CommissionRate returns the rate charged to sellers of the given tier.
func (c Configuration) CommissionRate(tier SellerTier) decimal.Decimal {
	if tier == TierPremium {
		return c.CommissionRatePremium
	}
	return c.CommissionRateStandard
}

// Input is one sale to price.
type Input struct {
	ProductPrice  decimal.Decimal `json:"product_price"`
	ShippingPrice decimal.Decimal `json:"shipping_price"`
	SellerTier    SellerTier      `json:"seller_tier"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
}

// Validate rejects non-positive prices, negative shipping, sub-cent amounts
// and unknown enum values.
func (in Input) Validate() error {
	if !in.ProductPrice.IsPositive() {
		return invalidInput("product_price", "must be greater than zero")
	}
	if !isCents(in.ProductPrice) {
		return invalidInput("product_price", "must have at most two decimal places")
	}
	if in.ShippingPrice.IsNegative() {
		return invalidInput("shipping_price", "must not be negative")
	}
	if !isCents(in.ShippingPrice) {
		return invalidInput("shipping_price", "must have at most two decimal places")
	}
	if !in.SellerTier.Valid() {
		return invalidInput("seller_tier", "must be standard or premium")
	}
	if !in.PaymentMethod.Valid() {
		return invalidInput("payment_method", "must be instant_transfer, card or voucher")
	}
	return nil
}

// Result is the full breakdown of one sale.
type Result struct {
	ProductPrice     decimal.Decimal `json:"product_price"`
	ShippingPrice    decimal.Decimal `json:"shipping_price"`
	BuyerTotal       decimal.Decimal `json:"buyer_total"`
	CommissionRate   decimal.Decimal `json:"commission_rate"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	GatewayFee       decimal.Decimal `json:"gateway_fee"`
	SellerNet        decimal.Decimal `json:"seller_net"`
	PlatformNet      decimal.Decimal `json:"platform_net"`
	CashbackAmount   decimal.Decimal `json:"cashback_amount"`
	ConfigVersion    int64           `json:"config_version"`
}

func isCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}
