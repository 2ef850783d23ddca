// Package main is the entry point for the quotekeeper HTTP service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/http"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotekeeper/internal/bootstrap"
	"github.com/jsamuelsen/quotekeeper/internal/platform/config"
	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
	"github.com/jsamuelsen/quotekeeper/internal/platform/telemetry"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	// Version is the semantic version of the service.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built.
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Determine profile from environment
	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	// 2. Load and validate configuration (fail fast)
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 3. Initialize logging
	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	logging.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
	)

	// 4. Initialize telemetry (noop if disabled)
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
		Insecure:     cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	// 5. Store, remote client and application services
	components, err := bootstrap.Build(ctx, cfg, logger, bootstrap.Options{})
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := components.Close(); closeErr != nil {
			logger.Error("closing components", slog.Any("error", closeErr))
		}
	}()

	// 6. Collection gauges on /metrics
	if err := telemetry.RegisterCollectionMetrics(prometheus.DefaultRegisterer, telemetry.CollectionSource{
		Quotes:        func() int { return components.Quotes.Count(context.Background()) },
		Notifications: func() int { return len(components.Notifications.Active()) },
	}); err != nil {
		return fmt.Errorf("registering collection metrics: %w", err)
	}

	// 7. Create handlers
	buildInfo := handlers.NewBuildInfo(Version, Commit, BuildTime)
	healthHandler := handlers.NewHealthHandler(components.Health, buildInfo, 0)
	quoteHandler := handlers.NewQuoteHandler(handlers.QuoteHandlerConfig{
		Service:        components.Quotes,
		ExportDir:      cfg.Export.Dir,
		MaxImportBytes: cfg.Export.MaxImportBytes,
		Logger:         logger,
	})
	syncHandler := handlers.NewSyncHandler(components.Sync, components.Quotes, components.Notifications)

	// 8. Create HTTP server and router
	server := http.New(&cfg.Server, logger)

	http.SetupRouter(server.Engine(), http.RouterConfig{
		Logger:        logger,
		AppConfig:     &cfg.App,
		HealthHandler: healthHandler,
		QuoteHandler:  quoteHandler,
		SyncHandler:   syncHandler,
		Timeout:       http.DefaultRequestTimeout,
	})

	// 9. Serve, and poll the remote in the background, until a signal arrives
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Run(gctx)
	})

	if cfg.Sync.Enabled {
		g.Go(func() error {
			return components.Sync.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutdown complete")

	return nil
}
