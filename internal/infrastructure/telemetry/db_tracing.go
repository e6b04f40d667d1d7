package telemetry

import (
	"errors"
	"time"

	"github.com/shopfront/backend/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type DBTracingConfig struct {
	Enabled    bool
	WithValues bool // bound variables in db.statement; never in production
	SlowQuery  time.Duration
	DBName     string
}

func DBTracingConfigFrom(cfg config.TelemetryConfig, dbName string) DBTracingConfig {
	return DBTracingConfig{
		Enabled:    cfg.Enabled && cfg.DBTraceEnabled,
		WithValues: cfg.DBLogFullSQL,
		SlowQuery:  cfg.DBSlowQueryThresh,
		DBName:     dbName,
	}
}

var tracingStartKey = startTimeKey{"db_tracing"}

// DBTracer emits a span per statement through otelgorm and annotates it
// with the table, the affected rows and a slow query flag.
type DBTracer struct {
	cfg    DBTracingConfig
	logger *zap.Logger
}

func NewDBTracer(cfg DBTracingConfig, logger *zap.Logger) *DBTracer {
	if cfg.SlowQuery <= 0 {
		cfg.SlowQuery = 200 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DBTracer{cfg: cfg, logger: logger}
}

// Install is a no-op while tracing is disabled.
func (t *DBTracer) Install(db *gorm.DB) error {
	if !t.cfg.Enabled {
		return nil
	}

	// after-callbacks run in registration order: annotate before otelgorm ends the span
	annotate := func(string) func(*gorm.DB) { return t.annotate }
	if err := registerAround(db, "otel_span", stampStart(tracingStartKey), annotate); err != nil {
		return err
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(t.cfg.DBName)}
	if !t.cfg.WithValues {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	t.logger.Info("SQL tracing on", zap.Bool("with_values", t.cfg.WithValues), zap.Duration("slow_query", t.cfg.SlowQuery))
	return nil
}

func (t *DBTracer) annotate(db *gorm.DB) {
	stmt := db.Statement
	if stmt.Context == nil {
		return
	}
	span := trace.SpanFromContext(stmt.Context)
	if !span.IsRecording() {
		return
	}

	attrs := make([]attribute.KeyValue, 0, 4)
	if stmt.RowsAffected >= 0 {
		attrs = append(attrs, attribute.Int64("db.rows_affected", stmt.RowsAffected))
	}
	if stmt.Table != "" {
		attrs = append(attrs, attribute.String("db.sql.table", stmt.Table))
	}
	if took, ok := elapsedSince(stmt.Context, tracingStartKey); ok && took > t.cfg.SlowQuery {
		attrs = append(attrs,
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", took.Milliseconds()),
		)
		span.AddEvent("slow query", trace.WithAttributes(attribute.Int64("threshold_ms", t.cfg.SlowQuery.Milliseconds())))
	}
	span.SetAttributes(attrs...)

	if err := db.Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
