// Package handlers provides HTTP request handlers for the service.
package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

// DefaultReadyTimeout bounds a readiness probe, including the remote check.
const DefaultReadyTimeout = 5 * time.Second

// BuildInfo contains build-time information, injected with ldflags.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
}

// NewBuildInfo creates a BuildInfo with the Go version automatically set.
func NewBuildInfo(version, commit, buildTime string) BuildInfo {
	return BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
}

// HealthHandler serves the /-/ probe endpoints.
type HealthHandler struct {
	registry     ports.HealthRegistry
	buildInfo    BuildInfo
	readyTimeout time.Duration
}

// NewHealthHandler creates a new health handler.
// readyTimeout <= 0 uses DefaultReadyTimeout.
func NewHealthHandler(registry ports.HealthRegistry, buildInfo BuildInfo, readyTimeout time.Duration) *HealthHandler {
	if readyTimeout <= 0 {
		readyTimeout = DefaultReadyTimeout
	}

	return &HealthHandler{
		registry:     registry,
		buildInfo:    buildInfo,
		readyTimeout: readyTimeout,
	}
}

type livenessResponse struct {
	Status string `json:"status"`
}

// Liveness handles /-/live. It checks nothing beyond the process answering.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, livenessResponse{Status: "ok"})
}

type readinessResponse struct {
	Status    string                        `json:"status"`
	Checks    map[string]*ports.CheckResult `json:"checks,omitempty"`
	Timestamp time.Time                     `json:"timestamp"`
}

// Readiness handles /-/ready. The sqlite store is required; the remote is
// optional, so an unreachable remote reports degraded with 200 while a
// failing store reports unhealthy with 503.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.readyTimeout)
	defer cancel()

	result := h.registry.CheckAll(ctx)

	status := http.StatusOK
	if result.Status == ports.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, readinessResponse{
		Status:    string(result.Status),
		Checks:    result.Checks,
		Timestamp: result.Timestamp,
	})
}

// BuildInfoHandler handles /-/build.
func (h *HealthHandler) BuildInfoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.buildInfo)
}

// MetricsHandler returns the Prometheus exposition handler.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RegisterHealthRoutes registers live, ready, build and metrics on rg.
func (h *HealthHandler) RegisterHealthRoutes(rg *gin.RouterGroup) {
	rg.GET("/live", h.Liveness)
	rg.GET("/ready", h.Readiness)
	rg.GET("/build", h.BuildInfoHandler)
	rg.GET("/metrics", gin.WrapH(MetricsHandler()))
}

// RegisterHealthRoutesOnEngine registers the health routes under /-.
func (h *HealthHandler) RegisterHealthRoutesOnEngine(engine *gin.Engine) {
	h.RegisterHealthRoutes(engine.Group("/-"))
}
