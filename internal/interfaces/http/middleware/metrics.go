package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopfront/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type httpInstruments struct {
	requests metric.Int64Counter
	latency  metric.Float64Histogram
	size     metric.Float64Histogram
	inFlight metric.Int64UpDownCounter
}

// HTTPMetrics records request count, latency, response size and in-flight
// requests per route. A nil or disabled provider yields a pass-through.
func HTTPMetrics(mp *telemetry.MeterProvider) gin.HandlerFunc {
	if mp == nil || !mp.IsEnabled() {
		return passThrough
	}
	return HTTPMetricsWithMeter(mp.Meter("http.server"))
}

// HTTPMetricsWithMeter is HTTPMetrics on an existing meter.
func HTTPMetricsWithMeter(meter metric.Meter) gin.HandlerFunc {
	in := telemetry.NewInstruments(meter)
	m := httpInstruments{
		requests: in.Counter("http_server_request_total", "Total number of HTTP requests", "{request}"),
		latency:  in.Histogram("http_server_request_duration_seconds", "HTTP request latency in seconds", "s", telemetry.HTTPDurationBuckets...),
		size:     in.Histogram("http_server_response_size_bytes", "HTTP response body size in bytes", "By", telemetry.ResponseSizeBuckets...),
		inFlight: in.UpDownCounter("http_server_active_requests", "HTTP requests being served", "{request}"),
	}
	if in.Err() != nil {
		return passThrough
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		m.inFlight.Add(ctx, 1)
		defer m.inFlight.Add(ctx, -1)

		c.Next()

		// route pattern, never the raw path
		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		byRoute := telemetry.With(
			telemetry.AttrHTTPMethod.String(c.Request.Method),
			telemetry.AttrHTTPRoute.String(route),
		)

		counted := []attribute.KeyValue{
			telemetry.AttrHTTPMethod.String(c.Request.Method),
			telemetry.AttrHTTPRoute.String(route),
			telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()),
		}
		if tenantID, ok := GetTenantID(c); ok {
			counted = append(counted, telemetry.AttrTenantID.String(tenantID.String()))
		}

		m.requests.Add(ctx, 1, telemetry.With(counted...))
		m.latency.Record(ctx, time.Since(start).Seconds(), byRoute)
		if n := c.Writer.Size(); n > 0 {
			m.size.Record(ctx, float64(n), byRoute)
		}
	}
}

func passThrough(c *gin.Context) {
	c.Next()
}
