package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopfront/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck checks one dependency; a nil error means healthy.
type HealthCheck func(ctx context.Context) error

// HealthHandler reports liveness and dependency health.
type HealthHandler struct {
	startTime time.Time
	version   string
	checks    map[string]HealthCheck
	order     []string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{
		startTime: time.Now(),
		version:   version,
		checks:    make(map[string]HealthCheck),
	}
}

// AddCheck registers a named dependency check, e.g. "database" or "redis".
func (h *HealthHandler) AddCheck(name string, check HealthCheck) *HealthHandler {
	if _, exists := h.checks[name]; !exists {
		h.order = append(h.order, name)
	}
	h.checks[name] = check
	return h
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string            `json:"status"`
	Time      string            `json:"time"`
	Version   string            `json:"version"`
	GoVersion string            `json:"go_version"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]string `json:"checks"`
}

// Health runs every check and answers 503 if any fails.
// GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:    "healthy",
		Time:      time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Checks:    make(map[string]string, len(h.checks)),
	}

	for _, name := range h.order {
		if err := h.checks[name](ctx); err != nil {
			logger.FromContext(c.Request.Context()).Warn("Health check failed", zap.String("check", name), zap.Error(err))
			resp.Checks[name] = "error"
			resp.Status = "unhealthy"
			continue
		}
		resp.Checks[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

// Ping is a dependency-free liveness check.
// GET /ping.
func (h *HealthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
