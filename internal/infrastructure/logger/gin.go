package logger

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AccessLog writes one entry per request once the handler chain returns.
// Handlers reach the request-scoped logger through FromContext on the
// request context. Install it after the request ID middleware.
func AccessLog(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		began := time.Now()
		req := c.Request

		scoped := base.With(
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
		)
		c.Request = req.WithContext(WithContext(req.Context(), scoped))

		c.Next()

		status := c.Writer.Status()
		if ce := scoped.Check(levelForStatus(status), "HTTP Request"); ce != nil {
			ce.Write(accessFields(c, status, time.Since(began), req.URL.RawQuery)...)
		}
	}
}

func levelForStatus(status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	}
	return zapcore.InfoLevel
}

func accessFields(c *gin.Context, status int, latency time.Duration, query string) []zap.Field {
	fields := make([]zap.Field, 0, 7)
	fields = append(fields,
		zap.Int("status", status),
		zap.Duration("latency", latency),
		zap.String("client_ip", c.ClientIP()),
		zap.Int("body_size", c.Writer.Size()),
	)
	if query != "" {
		fields = append(fields, zap.String("query", query))
	}
	if code := c.GetString("tenant_code"); code != "" {
		fields = append(fields, zap.String("tenant", code))
	}
	if len(c.Errors) > 0 {
		fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
	}
	return fields
}

// Recover turns a handler panic into a logged error and a 500 envelope.
func Recover(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			requestID := c.GetString("request_id")
			base.Error("Panic recovered",
				zap.String("request_id", requestID),
				zap.String("route", c.FullPath()),
				zap.Any("panic", rec),
				zap.Stack("stacktrace"),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":       "ERR_INTERNAL",
					"message":    "An internal error occurred",
					"request_id": requestID,
					"timestamp":  time.Now(),
				},
			})
		}()
		c.Next()
	}
}
