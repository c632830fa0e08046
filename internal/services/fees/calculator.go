package fees

import (
	"github.com/shopspring/decimal"
)

// percentOf returns amount * rate / 100. Shifting the exponent keeps the
// division exact.
func percentOf(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Shift(-2)
}

// ComputeSettlement prices one sale against cfg. It has no side effects and
// returns identical results for identical arguments. A cfg that fails
// Validate is refused with ErrInvalidConfiguration.
func ComputeSettlement(in Input, cfg Configuration) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	rate := cfg.CommissionRate(in.SellerTier)
	// Shipping is never commissioned.
	commission := percentOf(in.ProductPrice, rate)
	buyerTotal := in.ProductPrice.Add(in.ShippingPrice)

	var gatewayFee decimal.Decimal
	switch in.PaymentMethod {
	case MethodInstantTransfer:
		gatewayFee = percentOf(buyerTotal, cfg.PixFeeRate)
	case MethodCard:
		gatewayFee = percentOf(buyerTotal, cfg.CardFeeRate).Add(cfg.CardFeeFixed)
	case MethodVoucher:
		gatewayFee = cfg.BoletoFeeFixed
	}

	return Result{
		ProductPrice:     in.ProductPrice,
		ShippingPrice:    in.ShippingPrice,
		BuyerTotal:       buyerTotal,
		CommissionRate:   rate,
		CommissionAmount: commission,
		GatewayFee:       gatewayFee,
		SellerNet:        in.ProductPrice.Sub(commission),
		PlatformNet:      commission.Sub(gatewayFee),
		CashbackAmount:   percentOf(buyerTotal, cfg.CashbackRate),
		ConfigVersion:    cfg.Version,
	}, nil
}

// RoundToCents returns the two-decimal form of r. Commission, gateway fee and
// cashback are rounded half away from zero; seller and platform net are
// re-derived from the rounded parts so SellerNet+CommissionAmount still
// equals ProductPrice exactly.
func (r Result) RoundToCents() Result {
	out := r
	out.CommissionAmount = r.CommissionAmount.Round(2)
	out.GatewayFee = r.GatewayFee.Round(2)
	out.CashbackAmount = r.CashbackAmount.Round(2)
	out.SellerNet = r.ProductPrice.Sub(out.CommissionAmount)
	out.PlatformNet = out.CommissionAmount.Sub(out.GatewayFee)
	return out
}

// ListingPreview is the commission-only estimate shown while a seller
// creates a listing.
type ListingPreview struct {
	Price            decimal.Decimal `json:"price"`
	SellerTier       SellerTier      `json:"seller_tier"`
	CommissionRate   decimal.Decimal `json:"commission_rate"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	SellerReceives   decimal.Decimal `json:"seller_receives"`
}

// PreviewListing applies only the commission step of ComputeSettlement,
// rounded the same way orders are.
func PreviewListing(price decimal.Decimal, tier SellerTier, cfg Configuration) (ListingPreview, error) {
	if !price.IsPositive() {
		return ListingPreview{}, invalidInput("price", "must be greater than zero")
	}
	if !isCents(price) {
		return ListingPreview{}, invalidInput("price", "must have at most two decimal places")
	}
	if !tier.Valid() {
		return ListingPreview{}, invalidInput("seller_tier", "must be standard or premium")
	}
	if err := cfg.Validate(); err != nil {
		return ListingPreview{}, err
	}

	rate := cfg.CommissionRate(tier)
	commission := percentOf(price, rate).Round(2)
	return ListingPreview{
		Price:            price,
		SellerTier:       tier,
		CommissionRate:   rate,
		CommissionAmount: commission,
		SellerReceives:   price.Sub(commission),
	}, nil
}

// WithdrawalQuote is what a seller gets when moving balance out.
type WithdrawalQuote struct {
	Amount decimal.Decimal `json:"amount"`
	Fee    decimal.Decimal `json:"fee"`
	Net    decimal.Decimal `json:"net"`
}

// QuoteWithdrawal charges the flat withdrawal fee. The amount must cover the
// fee with something left over.
func QuoteWithdrawal(amount decimal.Decimal, cfg Configuration) (WithdrawalQuote, error) {
	if !amount.IsPositive() {
		return WithdrawalQuote{}, invalidInput("amount", "must be greater than zero")
	}
	if !isCents(amount) {
		return WithdrawalQuote{}, invalidInput("amount", "must have at most two decimal places")
	}
	if err := cfg.Validate(); err != nil {
		return WithdrawalQuote{}, err
	}
	if amount.LessThanOrEqual(cfg.WithdrawalFeeFixed) {
		return WithdrawalQuote{}, invalidInput("amount", "must exceed the withdrawal fee")
	}
	return WithdrawalQuote{
		Amount: amount,
		Fee:    cfg.WithdrawalFeeFixed,
		Net:    amount.Sub(cfg.WithdrawalFeeFixed),
	}, nil
}
