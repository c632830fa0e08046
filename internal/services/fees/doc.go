/*
Package fees computes the monetary breakdown of a marketplace sale.

Given a product price, a shipping price, the seller's tier and the buyer's
payment method, ComputeSettlement derives:
- the amount the buyer pays (product + shipping)
- the platform commission, charged on the product price only
- the payment gateway fee, absorbed by the platform
- the seller's net payout
- the platform's net margin (commission minus gateway fee, may be negative)
- the buyer cashback, computed on the buyer total

All amounts are shopspring/decimal values. Nothing in this package rounds
implicitly: Result carries exact values and Result.RoundToCents produces the
two-decimal form stored on orders.

Usage:

	cfg := fees.DefaultConfiguration()
	res, err := fees.ComputeSettlement(fees.Input{
	    ProductPrice:  decimal.RequireFromString("100.00"),
	    ShippingPrice: decimal.RequireFromString("15.00"),
	    SellerTier:    fees.TierStandard,
	    PaymentMethod: fees.MethodInstantTransfer,
	}, cfg)

Configuration:

Configuration is an immutable value passed into every call. Long-running
processes hold it behind a ConfigSource (see package settings) and a
Calculator takes exactly one snapshot per call, so a rate change never
applies to half of a computation.

Errors:

Invalid arguments return an *InputError wrapping ErrInvalidInput. A failed
call never returns a partially filled Result.
*/
package fees
