// Package telemetry wires OpenTelemetry traces, metrics and logs to an OTLP
// collector and exposes the instruments the storefront records.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/shopfront/backend/internal/infrastructure/config"
	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceVersion is reported on every exported resource.
var ServiceVersion = "dev"

const (
	shutdownTimeout       = 10 * time.Second
	defaultMetricInterval = time.Minute
)

// sdkProvider is what the trace, metric and log SDK providers share.
type sdkProvider interface {
	ForceFlush(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// pipeline is the lifecycle common to all three signals. A nil sdk means
// the signal is disabled and every call is a no-op.
type pipeline struct {
	signal string
	sdk    sdkProvider
	logger *zap.Logger
}

// IsEnabled reports whether the signal is exported.
func (p pipeline) IsEnabled() bool { return p.sdk != nil }

// ForceFlush exports everything buffered so far.
func (p pipeline) ForceFlush(ctx context.Context) error {
	if p.sdk == nil {
		return nil
	}
	return p.sdk.ForceFlush(ctx)
}

// Shutdown flushes and stops the exporter, bounded by shutdownTimeout.
func (p pipeline) Shutdown(ctx context.Context) error {
	if p.sdk == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := p.sdk.Shutdown(ctx); err != nil {
		p.logger.Error("telemetry shutdown failed", zap.String("signal", p.signal), zap.Error(err))
		return fmt.Errorf("shutdown %s provider: %w", p.signal, err)
	}
	return nil
}

func newResource(serviceName string) (*resource.Resource, error) {
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("build telemetry resource: %w", err)
	}
	return res, nil
}

// TracerProvider exports spans over OTLP/gRPC.
type TracerProvider struct {
	pipeline
	provider *sdktrace.TracerProvider
}

// NewTracerProvider dials the collector when cfg.Enabled. Otherwise the
// global no-op provider stays in place.
func NewTracerProvider(ctx context.Context, cfg config.TelemetryConfig, logger *zap.Logger) (*TracerProvider, error) {
	if !cfg.Enabled {
		logger.Info("Tracing disabled")
		return &TracerProvider{pipeline: pipeline{signal: "trace", logger: logger}}, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create OTLP trace exporter: %w", err)
	}

	tp, err := NewTracerProviderWithExporter(exporter, cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Tracing enabled",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Float64("sampling_ratio", cfg.SamplingRatio),
	)
	return tp, nil
}

// NewTracerProviderWithExporter installs a batching provider on exporter as
// the global tracer provider, with W3C trace context propagation.
func NewTracerProviderWithExporter(exporter sdktrace.SpanExporter, cfg config.TelemetryConfig, logger *zap.Logger) (*TracerProvider, error) {
	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(cfg.SamplingRatio)),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return &TracerProvider{
		pipeline: pipeline{signal: "trace", sdk: provider, logger: logger},
		provider: provider,
	}, nil
}

// Tracer falls back to the global provider when tracing is off.
func (tp *TracerProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	if tp.provider == nil {
		return otel.Tracer(name, opts...)
	}
	return tp.provider.Tracer(name, opts...)
}

func samplerFor(ratio float64) sdktrace.Sampler {
	if ratio <= 0 {
		return sdktrace.NeverSample()
	}
	if ratio >= 1 {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

// MeterProvider exports metrics over OTLP/gRPC.
type MeterProvider struct {
	pipeline
	provider *sdkmetric.MeterProvider
}

// NewMeterProvider needs both cfg.Enabled and cfg.MetricsEnabled.
func NewMeterProvider(ctx context.Context, cfg config.TelemetryConfig, logger *zap.Logger) (*MeterProvider, error) {
	if !cfg.Enabled || !cfg.MetricsEnabled {
		logger.Info("Metrics disabled")
		return &MeterProvider{pipeline: pipeline{signal: "metric", logger: logger}}, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create OTLP metric exporter: %w", err)
	}

	interval := cfg.MetricsInterval
	if interval <= 0 {
		interval = defaultMetricInterval
	}
	mp, err := NewMeterProviderWithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)), cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Metrics enabled",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Duration("export_interval", interval),
	)
	return mp, nil
}

// NewMeterProviderWithReader installs a provider on reader globally.
// Tests pass a sdkmetric.ManualReader.
func NewMeterProviderWithReader(reader sdkmetric.Reader, cfg config.TelemetryConfig, logger *zap.Logger) (*MeterProvider, error) {
	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)
	return &MeterProvider{
		pipeline: pipeline{signal: "metric", sdk: provider, logger: logger},
		provider: provider,
	}, nil
}

func (mp *MeterProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if mp.provider == nil {
		return otel.Meter(name, opts...)
	}
	return mp.provider.Meter(name, opts...)
}

// LoggerProvider ships zap entries to the collector through the otelzap bridge.
type LoggerProvider struct {
	pipeline
	provider    *sdklog.LoggerProvider
	serviceName string
}

// NewLoggerProvider needs both cfg.Enabled and cfg.LogsEnabled.
func NewLoggerProvider(ctx context.Context, cfg config.TelemetryConfig, logger *zap.Logger) (*LoggerProvider, error) {
	if !cfg.Enabled || !cfg.LogsEnabled {
		return &LoggerProvider{pipeline: pipeline{signal: "log", logger: logger}}, nil
	}

	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create OTLP log exporter: %w", err)
	}
	lp, err := NewLoggerProviderWithProcessor(sdklog.NewBatchProcessor(exporter), cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Log export enabled", zap.String("collector_endpoint", cfg.CollectorEndpoint))
	return lp, nil
}

// NewLoggerProviderWithProcessor installs a provider on processor globally.
func NewLoggerProviderWithProcessor(processor sdklog.Processor, cfg config.TelemetryConfig, logger *zap.Logger) (*LoggerProvider, error) {
	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	provider := sdklog.NewLoggerProvider(sdklog.WithResource(res), sdklog.WithProcessor(processor))
	global.SetLoggerProvider(provider)
	return &LoggerProvider{
		pipeline:    pipeline{signal: "log", sdk: provider, logger: logger},
		provider:    provider,
		serviceName: cfg.ServiceName,
	}, nil
}

// ZapCore forwards entries at or above level to the collector. Pass it to
// logger.New as an extra core.
func (lp *LoggerProvider) ZapCore(level zapcore.Level) zapcore.Core {
	if lp.provider == nil {
		return zapcore.NewNopCore()
	}
	core := otelzap.NewCore(lp.serviceName, otelzap.WithLoggerProvider(lp.provider))
	leveled, err := zapcore.NewIncreaseLevelCore(core, level)
	if err != nil {
		// the bridge accepts every level
		return core
	}
	return leveled
}
