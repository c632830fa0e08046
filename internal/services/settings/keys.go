package settings

import (
	"sort"

	"apega/internal/services/fees"

	"github.com/shopspring/decimal"
)

// Setting keys as stored in the settings table and shown on the admin
// dashboard.
const (
	KeyCommissionFree    = "commission_free"
	KeyCommissionPremium = "commission_premium"
	KeyPixFee            = "pix_fee"
	KeyCardFeePercent    = "card_fee_percent"
	KeyCardFeeFixed      = "card_fee_fixed"
	KeyBoletoFee         = "boleto_fee"
	KeyWithdrawalFee     = "withdrawal_fee"
	KeyCashbackBuyer     = "cashback_buyer"
)

type field struct {
	key string
	ref func(*fees.Configuration) *decimal.Decimal
}

var fields = []field{
	{KeyCommissionFree, func(c *fees.Configuration) *decimal.Decimal { return &c.CommissionRateStandard }},
	{KeyCommissionPremium, func(c *fees.Configuration) *decimal.Decimal { return &c.CommissionRatePremium }},
	{KeyPixFee, func(c *fees.Configuration) *decimal.Decimal { return &c.PixFeeRate }},
	{KeyCardFeePercent, func(c *fees.Configuration) *decimal.Decimal { return &c.CardFeeRate }},
	{KeyCardFeeFixed, func(c *fees.Configuration) *decimal.Decimal { return &c.CardFeeFixed }},
	{KeyBoletoFee, func(c *fees.Configuration) *decimal.Decimal { return &c.BoletoFeeFixed }},
	{KeyWithdrawalFee, func(c *fees.Configuration) *decimal.Decimal { return &c.WithdrawalFeeFixed }},
	{KeyCashbackBuyer, func(c *fees.Configuration) *decimal.Decimal { return &c.CashbackRate }},
}

func lookup(key string) (field, bool) {
	for _, f := range fields {
		if f.key == key {
			return f, true
		}
	}
	return field{}, false
}

// Keys lists every recognised setting key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.key)
	}
	sort.Strings(keys)
	return keys
}

// Values flattens a configuration into the key/value form used by the
// settings table and the admin API.
func Values(cfg fees.Configuration) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(fields))
	for _, f := range fields {
		out[f.key] = *f.ref(&cfg)
	}
	return out
}
