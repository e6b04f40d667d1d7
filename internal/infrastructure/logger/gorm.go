package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// SQLLogConfig controls what the GORM adapter writes.
type SQLLogConfig struct {
	// Level is the application log level: silent, error, warn, info or debug.
	Level string
	// SlowThreshold flags statements slower than this; zero disables it.
	SlowThreshold time.Duration
}

// SQLLogger adapts zap to gormlogger.Interface. Statements carry the
// correlation fields of the context that issued them.
type SQLLogger struct {
	base  *zap.Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

var _ gormlogger.Interface = (*SQLLogger)(nil)

// NewSQLLogger builds the GORM adapter.
func NewSQLLogger(base *zap.Logger, cfg SQLLogConfig) *SQLLogger {
	if base == nil {
		base = zap.NewNop()
	}
	return &SQLLogger{
		base:  base.Named("sql"),
		level: gormLevel(cfg.Level),
		slow:  cfg.SlowThreshold,
	}
}

func (l *SQLLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *SQLLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		Enrich(ctx, l.base).Sugar().Infof(msg, args...)
	}
}

func (l *SQLLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		Enrich(ctx, l.base).Sugar().Warnf(msg, args...)
	}
}

func (l *SQLLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		Enrich(ctx, l.base).Sugar().Errorf(msg, args...)
	}
}

// Trace logs one statement. Missing rows are an expected outcome for
// lookups and are not reported.
func (l *SQLLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	if err != nil && errors.Is(err, gormlogger.ErrRecordNotFound) {
		err = nil
	}

	elapsed := time.Since(begin)
	isSlow := l.slow > 0 && elapsed > l.slow
	switch {
	case err != nil && l.level >= gormlogger.Error:
	case isSlow && l.level >= gormlogger.Warn:
	case l.level >= gormlogger.Info:
	default:
		return
	}

	query, rows := fc()
	log := Enrich(ctx, l.base).With(
		zap.String("sql", query),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	)
	switch {
	case err != nil:
		log.Error("query failed", zap.Error(err))
	case isSlow:
		log.Warn("slow query", zap.Duration("threshold", l.slow))
	default:
		log.Debug("query")
	}
}

func gormLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
