package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
)

// CheckoutMetrics records storefront checkout activity.
type CheckoutMetrics struct {
	attempts    metric.Int64Counter
	latency     metric.Float64Histogram
	placed      metric.Int64Counter
	amount      metric.Float64Counter
	linesPerOrd metric.Float64Histogram
}

func NewCheckoutMetrics(meter metric.Meter) (*CheckoutMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	in := NewInstruments(meter)
	m := &CheckoutMetrics{
		attempts:    in.Counter("checkout_attempts_total", "Checkout submissions by outcome", "{checkout}"),
		latency:     in.Histogram("checkout_duration_seconds", "Time spent handling a checkout submission", "s", CheckoutDurationBuckets...),
		placed:      in.Counter("orders_placed_total", "Orders created from storefront carts", "{order}"),
		amount:      in.FloatCounter("orders_amount_total", "Sum of order totals", "{currency}"),
		linesPerOrd: in.Histogram("order_items", "Lines per placed order", "{item}", OrderSizeBuckets...),
	}
	if err := in.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordCheckout counts one submission and its latency. Latency is not
// split by tenant.
func (m *CheckoutMetrics) RecordCheckout(ctx context.Context, tenantID uuid.UUID, outcome string, duration time.Duration) {
	m.attempts.Add(ctx, 1, With(AttrTenantID.String(tenantID.String()), AttrOutcome.String(outcome)))
	m.latency.Record(ctx, duration.Seconds(), With(AttrOutcome.String(outcome)))
}

func (m *CheckoutMetrics) RecordOrderPlaced(ctx context.Context, tenantID uuid.UUID, itemCount int, amount decimal.Decimal) {
	tenant := With(AttrTenantID.String(tenantID.String()))
	m.placed.Add(ctx, 1, tenant)
	m.amount.Add(ctx, amount.InexactFloat64(), tenant)
	m.linesPerOrd.Record(ctx, float64(itemCount))
}
