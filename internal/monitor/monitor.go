// Package monitor provides the application's metrics sink. It is constructed
// once by the composition root and passed explicitly to every component that
// records metrics; there is no global instance.
package monitor

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Monitor records payment, webhook and coupon activity counters.
type Monitor struct {
	payments metric.Int64Counter
	webhooks metric.Int64Counter
	coupons  metric.Int64Counter
}

// New creates a Monitor registering its instruments on the given meter.
func New(meter metric.Meter) (*Monitor, error) {
	payments, err := meter.Int64Counter("checkout.payments",
		metric.WithDescription("Payment intents by method and status"))
	if err != nil {
		return nil, errors.Wrap(err, "payments counter")
	}
	webhooks, err := meter.Int64Counter("checkout.webhook_events",
		metric.WithDescription("Webhook deliveries by provider and outcome"))
	if err != nil {
		return nil, errors.Wrap(err, "webhooks counter")
	}
	coupons, err := meter.Int64Counter("checkout.coupon_validations",
		metric.WithDescription("Coupon validations by outcome"))
	if err != nil {
		return nil, errors.Wrap(err, "coupons counter")
	}
	return &Monitor{payments: payments, webhooks: webhooks, coupons: coupons}, nil
}

// NewNop returns a Monitor that discards all measurements. Useful in tests.
func NewNop() *Monitor {
	m, _ := New(noop.NewMeterProvider().Meter("nop"))
	return m
}

// PaymentProcessed records a payment status transition.
func (m *Monitor) PaymentProcessed(ctx context.Context, method, status string) {
	m.payments.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("status", status),
		))
}

// WebhookEvent records a terminal webhook pipeline outcome.
func (m *Monitor) WebhookEvent(ctx context.Context, provider, outcome string) {
	m.webhooks.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("outcome", outcome),
		))
}

// CouponValidated records a coupon validation outcome.
func (m *Monitor) CouponValidated(ctx context.Context, valid bool) {
	m.coupons.Add(ctx, 1, metric.WithAttributes(attribute.Bool("valid", valid)))
}
