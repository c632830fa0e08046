package fees

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ConfigSource hands out the active fee schedule.
type ConfigSource interface {
	Snapshot() Configuration
}

// StaticSource serves one fixed schedule.
type StaticSource Configuration

func (s StaticSource) Snapshot() Configuration {
	return Configuration(s)
}

// MetricsCollector receives one call per priced sale or rejected input.
type MetricsCollector interface {
	RecordSettlement(tier SellerTier, method PaymentMethod, result Result)
	RecordRejected(field string)
}

// NoopMetricsCollector discards everything.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSettlement(SellerTier, PaymentMethod, Result) {}
func (NoopMetricsCollector) RecordRejected(string)                             {}

// Calculator binds the pure functions of this package to a live
// configuration source. Each call reads the source exactly once.
type Calculator struct {
	source  ConfigSource
	metrics MetricsCollector
}

func NewCalculator(source ConfigSource, metrics MetricsCollector) *Calculator {
	if source == nil {
		panic("config source is required")
	}
	if metrics == nil {
		metrics = NoopMetricsCollector{}
	}
	return &Calculator{source: source, metrics: metrics}
}

// Configuration returns the schedule a call made now would use.
func (c *Calculator) Configuration() Configuration {
	return c.source.Snapshot()
}

func (c *Calculator) Settle(in Input) (Result, error) {
	res, err := ComputeSettlement(in, c.source.Snapshot())
	if err != nil {
		c.reject(err)
		return Result{}, err
	}
	c.metrics.RecordSettlement(in.SellerTier, in.PaymentMethod, res)
	return res, nil
}

func (c *Calculator) PreviewListing(price decimal.Decimal, tier SellerTier) (ListingPreview, error) {
	p, err := PreviewListing(price, tier, c.source.Snapshot())
	if err != nil {
		c.reject(err)
	}
	return p, err
}

func (c *Calculator) QuoteWithdrawal(amount decimal.Decimal) (WithdrawalQuote, error) {
	q, err := QuoteWithdrawal(amount, c.source.Snapshot())
	if err != nil {
		c.reject(err)
	}
	return q, err
}

func (c *Calculator) reject(err error) {
	var inErr *InputError
	if errors.As(err, &inErr) {
		c.metrics.RecordRejected(inErr.Field)
	}
}
