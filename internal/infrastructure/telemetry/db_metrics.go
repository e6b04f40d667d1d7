package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBMetricsConfig holds configuration for database metrics collection.
type DBMetricsConfig struct {
	SlowQueryThreshold time.Duration
	PoolStatsInterval  time.Duration
}

var metricsStartKey = startTimeKey{"db_metrics"}

// DBMetrics holds the database instruments and the pool stats collector.
type DBMetrics struct {
	poolConns    metric.Int64Gauge
	poolConnsMax metric.Int64Gauge
	queries      metric.Int64Counter
	latency      metric.Float64Histogram
	slowQueries  metric.Int64Counter
	queryErrors  metric.Int64Counter

	config   DBMetricsConfig
	logger   *zap.Logger
	sqlDB    *sql.DB
	stopCh   chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewDBMetrics creates the database instruments on meter.
func NewDBMetrics(meter metric.Meter, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = 200 * time.Millisecond
	}
	if cfg.PoolStatsInterval <= 0 {
		cfg.PoolStatsInterval = 15 * time.Second
	}

	in := NewInstruments(meter)
	m := &DBMetrics{
		poolConns:    in.Gauge("db_pool_connections", "Connections in the pool by state", "{connection}"),
		poolConnsMax: in.Gauge("db_pool_connections_max", "Maximum open connections", "{connection}"),
		queries:      in.Counter("db_query_total", "Database queries by operation", "{query}"),
		latency:      in.Histogram("db_query_duration_seconds", "Database query latency", "s", DBDurationBuckets...),
		slowQueries:  in.Counter("db_slow_query_total", "Queries slower than the configured threshold", "{query}"),
		queryErrors:  in.Counter("db_query_errors_total", "Failed database queries by operation", "{query}"),
		config:       cfg,
		logger:       logger,
		stopCh:       make(chan struct{}),
	}
	if err := in.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordQuery records one completed query. Missing rows are not errors.
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, duration time.Duration, err error) {
	operation = strings.ToUpper(operation)
	if operation == "" {
		operation = "UNKNOWN"
	}
	op := With(AttrDBOperation.String(operation))

	m.queries.Add(ctx, 1, op)
	m.latency.Record(ctx, duration.Seconds(), op)

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		m.queryErrors.Add(ctx, 1, op)
	}
	if duration > m.config.SlowQueryThreshold {
		if table == "" {
			table = "unknown"
		}
		m.slowQueries.Add(ctx, 1, With(AttrDBTable.String(table)))
	}
}

// StartPoolStatsCollection periodically records pool statistics for sqlDB
// until Stop is called or ctx is done.
func (m *DBMetrics) StartPoolStatsCollection(ctx context.Context, sqlDB *sql.DB) {
	m.sqlDB = sqlDB
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(m.config.PoolStatsInterval)
		defer ticker.Stop()

		m.collectPoolStats(ctx)
		for {
			select {
			case <-ticker.C:
				m.collectPoolStats(ctx)
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *DBMetrics) collectPoolStats(ctx context.Context) {
	stats := m.sqlDB.Stats()
	m.poolConnsMax.Record(ctx, int64(stats.MaxOpenConnections))
	for state, n := range map[string]int{
		"idle":   stats.Idle,
		"in_use": stats.InUse,
		"open":   stats.OpenConnections,
	} {
		m.poolConns.Record(ctx, int64(n), With(AttrDBState.String(state)))
	}
}

// Stop stops the pool stats collector. Safe to call multiple times.
func (m *DBMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.wg.Wait()
	})
}

// Name implements gorm.Plugin.
func (m *DBMetrics) Name() string {
	return "db_metrics"
}

// Initialize implements gorm.Plugin.
func (m *DBMetrics) Initialize(db *gorm.DB) error {
	return registerAround(db, "db_metrics", stampStart(metricsStartKey), func(op string) func(*gorm.DB) {
		return func(db *gorm.DB) {
			operation := op
			if operation == "" {
				operation = detectOperationType(db.Statement.SQL.String())
			}
			ctx := db.Statement.Context
			if ctx == nil {
				ctx = context.Background()
			}
			elapsed, _ := elapsedSince(ctx, metricsStartKey)
			m.RecordQuery(ctx, operation, db.Statement.Table, elapsed, db.Error)
		}
	})
}

// RegisterDBMetrics installs query metrics on db and starts pool stats collection.
// It returns nil when the meter provider is not exporting.
func RegisterDBMetrics(ctx context.Context, db *gorm.DB, mp *MeterProvider, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if mp == nil || !mp.IsEnabled() {
		return nil, nil
	}

	m, err := NewDBMetrics(mp.Meter("db.client"), cfg, logger)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := db.Use(m); err != nil {
		return nil, err
	}
	m.StartPoolStatsCollection(ctx, sqlDB)

	m.logger.Info("Database metrics registered",
		zap.Duration("slow_query_threshold", m.config.SlowQueryThreshold),
		zap.Duration("pool_stats_interval", m.config.PoolStatsInterval),
	)
	return m, nil
}
