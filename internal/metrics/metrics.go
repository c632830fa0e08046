// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"apega/internal/services/fees"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "apega"

// Collector implements the metrics interfaces of the fees, settings, order
// and wallet services on top of one registry.
type Collector struct {
	settlements      *prometheus.CounterVec
	settlementAmount *prometheus.CounterVec
	rejected         *prometheus.CounterVec
	configVersion    prometheus.Gauge
	configReloads    *prometheus.CounterVec
	orderTransitions *prometheus.CounterVec
	withdrawals      *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// NewCollector registers every collector on reg. Pass a fresh registry in
// tests.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fees",
			Name:      "settlements_total",
			Help:      "Sales priced by the fee calculator.",
		}, []string{"tier", "method"}),
		settlementAmount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fees",
			Name:      "settlement_amount_total",
			Help:      "Sum of priced amounts by component, in currency units.",
		}, []string{"component"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fees",
			Name:      "rejected_inputs_total",
			Help:      "Calculator calls rejected as invalid input.",
		}, []string{"field"}),
		configVersion: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "settings",
			Name:      "fee_config_version",
			Help:      "Version of the active fee configuration.",
		}),
		configReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settings",
			Name:      "reloads_total",
			Help:      "Fee configuration reloads by source.",
		}, []string{"source"}),
		orderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "transitions_total",
			Help:      "Order status transitions.",
		}, []string{"status"}),
		withdrawals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "withdrawals_total",
			Help:      "Withdrawal requests by outcome.",
		}, []string{"status"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.settlements,
		c.settlementAmount,
		c.rejected,
		c.configVersion,
		c.configReloads,
		c.orderTransitions,
		c.withdrawals,
		c.httpRequests,
		c.httpDuration,
	)
	return c
}

// NewRegistry returns a registry preloaded with the Go runtime and process
// collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func (c *Collector) RecordSettlement(tier fees.SellerTier, method fees.PaymentMethod, r fees.Result) {
	c.settlements.WithLabelValues(string(tier), string(method)).Inc()
	c.settlementAmount.WithLabelValues("buyer_total").Add(r.BuyerTotal.InexactFloat64())
	c.settlementAmount.WithLabelValues("commission").Add(r.CommissionAmount.InexactFloat64())
	c.settlementAmount.WithLabelValues("gateway_fee").Add(r.GatewayFee.InexactFloat64())
	c.settlementAmount.WithLabelValues("cashback").Add(r.CashbackAmount.InexactFloat64())
}

func (c *Collector) RecordRejected(field string) {
	c.rejected.WithLabelValues(field).Inc()
}

func (c *Collector) SetConfigVersion(version int64) {
	c.configVersion.Set(float64(version))
}

func (c *Collector) RecordReload(source string) {
	c.configReloads.WithLabelValues(source).Inc()
}

func (c *Collector) RecordTransition(status string) {
	c.orderTransitions.WithLabelValues(status).Inc()
}

func (c *Collector) RecordWithdrawal(status string) {
	c.withdrawals.WithLabelValues(status).Inc()
}

// Middleware records request counts and latency per matched route.
func (c *Collector) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()

		route := ctx.Route().Path
		status := ctx.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		c.httpRequests.WithLabelValues(ctx.Method(), route, strconv.Itoa(status)).Inc()
		c.httpDuration.WithLabelValues(ctx.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}
