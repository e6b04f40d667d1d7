package telemetry

import (
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// ErrMeterNil is returned when a metrics set is built without a meter.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// Metric attribute keys.
var (
	AttrTenantID = attribute.Key("tenant_id")
	AttrOutcome  = attribute.Key("outcome")

	AttrHTTPMethod     = attribute.Key("http.method")
	AttrHTTPRoute      = attribute.Key("http.route")
	AttrHTTPStatusCode = attribute.Key("http.status_code")

	AttrDBOperation = attribute.Key("db.operation")
	AttrDBTable     = attribute.Key("db.table")
	AttrDBState     = attribute.Key("db.pool.state")
)

// Histogram bucket boundaries, in seconds unless noted.
var (
	HTTPDurationBuckets     = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	CheckoutDurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	DBDurationBuckets       = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}
	// lines per order
	OrderSizeBuckets = []float64{1, 2, 3, 5, 10, 20, 50}
	// bytes
	ResponseSizeBuckets = []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000}
)

// Instruments creates instruments on one meter and keeps every failure, so a
// metrics set needs a single error check. A failed instrument is replaced
// by a no-op one.
type Instruments struct {
	meter metric.Meter
	errs  []error
}

func NewInstruments(meter metric.Meter) *Instruments {
	return &Instruments{meter: meter}
}

// Err joins all creation failures, or returns nil.
func (in *Instruments) Err() error {
	return errors.Join(in.errs...)
}

func (in *Instruments) failed(name string, err error) bool {
	if err == nil {
		return false
	}
	in.errs = append(in.errs, fmt.Errorf("create instrument %s: %w", name, err))
	return true
}

func (in *Instruments) Counter(name, description, unit string) metric.Int64Counter {
	c, err := in.meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if in.failed(name, err) {
		return noop.Int64Counter{}
	}
	return c
}

// FloatCounter is for money sums.
func (in *Instruments) FloatCounter(name, description, unit string) metric.Float64Counter {
	c, err := in.meter.Float64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if in.failed(name, err) {
		return noop.Float64Counter{}
	}
	return c
}

func (in *Instruments) UpDownCounter(name, description, unit string) metric.Int64UpDownCounter {
	c, err := in.meter.Int64UpDownCounter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if in.failed(name, err) {
		return noop.Int64UpDownCounter{}
	}
	return c
}

// Histogram uses explicit bucket boundaries when any are given.
func (in *Instruments) Histogram(name, description, unit string, boundaries ...float64) metric.Float64Histogram {
	opts := []metric.Float64HistogramOption{metric.WithDescription(description), metric.WithUnit(unit)}
	if len(boundaries) > 0 {
		opts = append(opts, metric.WithExplicitBucketBoundaries(boundaries...))
	}
	h, err := in.meter.Float64Histogram(name, opts...)
	if in.failed(name, err) {
		return noop.Float64Histogram{}
	}
	return h
}

func (in *Instruments) Gauge(name, description, unit string) metric.Int64Gauge {
	g, err := in.meter.Int64Gauge(name, metric.WithDescription(description), metric.WithUnit(unit))
	if in.failed(name, err) {
		return noop.Int64Gauge{}
	}
	return g
}

// With is shorthand for metric.WithAttributes.
func With(attrs ...attribute.KeyValue) metric.MeasurementOption {
	return metric.WithAttributes(attrs...)
}
