package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotekeeper/internal/platform/config"
	"github.com/jsamuelsen/quotekeeper/internal/platform/telemetry"
)

// DefaultRequestTimeout is the default timeout for API requests.
const DefaultRequestTimeout = 30 * time.Second

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	// Logger is the structured logger for request logging.
	Logger *slog.Logger

	// AppConfig names the service for tracing.
	AppConfig *config.AppConfig

	// HealthHandler handles the /-/ probe endpoints. Optional.
	HealthHandler *handlers.HealthHandler

	// QuoteHandler handles the quote, category and transfer endpoints.
	QuoteHandler *handlers.QuoteHandler

	// SyncHandler handles manual sync and notifications. Optional; nil when
	// no remote is configured.
	SyncHandler *handlers.SyncHandler

	// Timeout is the /api/v1 request deadline. Zero disables it.
	Timeout time.Duration
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery - catch panics first
//  2. Request ID - generate/extract request ID
//  3. Correlation ID - handle distributed tracing correlation
//  4. OpenTelemetry - tracing, metrics and X-Trace-ID
//  5. Logging - request logging (skips health endpoints)
//  6. Timeout - request deadline on /api/v1 only
//
// Route groups:
//   - /-/ (internal): probes, build info and metrics
//   - /api/v1/ (public API): quotes, categories, filter, transfer, sync
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.Middleware(serviceName(cfg.AppConfig)),
		telemetry.TraceHeader(),
		middleware.Logging(cfg.Logger),
	)

	// No timeout for probes; readiness bounds itself.
	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutesOnEngine(engine)
	}

	apiV1 := engine.Group("/api/v1")
	if cfg.Timeout > 0 {
		apiV1.Use(middleware.SimpleTimeout(cfg.Timeout))
	}

	if cfg.QuoteHandler != nil {
		cfg.QuoteHandler.RegisterQuoteRoutes(apiV1)
	}

	if cfg.SyncHandler != nil {
		cfg.SyncHandler.RegisterSyncRoutes(apiV1)
	}
}

func serviceName(app *config.AppConfig) string {
	if app == nil || app.Name == "" {
		return "quotekeeper"
	}

	return app.Name
}
