package telemetry

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

type startTimeKey struct{ name string }

// registerAround installs a before and an after callback on every gorm
// processor. after receives the SQL verb for the processor, or "" for
// Row/Raw where the verb has to be read from the statement.
func registerAround(db *gorm.DB, prefix string, before func(*gorm.DB), after func(op string) func(*gorm.DB)) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register(prefix+":before_create", before),
		cb.Query().Before("gorm:query").Register(prefix+":before_query", before),
		cb.Update().Before("gorm:update").Register(prefix+":before_update", before),
		cb.Delete().Before("gorm:delete").Register(prefix+":before_delete", before),
		cb.Row().Before("gorm:row").Register(prefix+":before_row", before),
		cb.Raw().Before("gorm:raw").Register(prefix+":before_raw", before),
		cb.Create().After("gorm:create").Register(prefix+":after_create", after("INSERT")),
		cb.Query().After("gorm:query").Register(prefix+":after_query", after("SELECT")),
		cb.Update().After("gorm:update").Register(prefix+":after_update", after("UPDATE")),
		cb.Delete().After("gorm:delete").Register(prefix+":after_delete", after("DELETE")),
		cb.Row().After("gorm:row").Register(prefix+":after_row", after("")),
		cb.Raw().After("gorm:raw").Register(prefix+":after_raw", after("")),
	)
}

// stampStart returns a before-callback storing the start time under key.
func stampStart(key startTimeKey) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		db.Statement.Context = context.WithValue(ctx, key, time.Now())
	}
}

func elapsedSince(ctx context.Context, key startTimeKey) (time.Duration, bool) {
	if ctx == nil {
		return 0, false
	}
	start, ok := ctx.Value(key).(time.Time)
	if !ok {
		return 0, false
	}
	return time.Since(start), true
}

// detectOperationType reads the SQL verb from a raw statement.
func detectOperationType(sql string) string {
	sql = strings.TrimSpace(strings.ToUpper(sql))

	for _, verb := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(sql, verb) {
			return verb
		}
	}
	return "OTHER"
}
