// Package bootstrap wires storage, the remote client and the application
// services from configuration. The service and quotectl share it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/cache"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/clients"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/storage/sqlite"
	"github.com/jsamuelsen/quotekeeper/internal/app"
	"github.com/jsamuelsen/quotekeeper/internal/platform/config"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

// Components is the wired application graph.
type Components struct {
	Store         *sqlite.Store
	QuoteStore    *app.QuoteStore
	Quotes        *app.QuoteService
	Remote        *acl.RemoteQuoteClient
	Sync          *app.SyncService
	Notifications *app.Notifications
	Health        *ports.DefaultHealthRegistry
}

// Options adjust Build for a particular entry point.
type Options struct {
	// Remote replaces the HTTP remote client. Tests pass a fake here.
	Remote ports.RemoteQuoteSource
}

// Build opens the store, loads the collection and constructs the services.
// The caller must Close the result.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Components, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// 1. Durable store and session cache
	store, err := sqlite.Open(sqlite.Config{
		Path:        cfg.Storage.Path,
		BusyTimeout: cfg.Storage.BusyTimeout,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("opening quote store: %w", err)
	}

	c := &Components{Store: store, Health: ports.NewHealthRegistry()}

	if err := c.Health.Register(store); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("registering store health check: %w", err)
	}

	c.QuoteStore = app.NewQuoteStore(app.QuoteStoreConfig{
		Durable:      store,
		Session:      cache.NewMemory(),
		SeedDefaults: cfg.Storage.SeedDefaults,
		Logger:       logger,
	})

	if err := c.QuoteStore.Load(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	// 2. Remote quote source (ACL over the instrumented client)
	remote := opts.Remote
	if remote == nil {
		c.Remote, err = newRemoteClient(cfg, logger)
		if err != nil {
			_ = store.Close()
			return nil, err
		}

		if err := c.Health.Register(c.Remote); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("registering remote health check: %w", err)
		}

		remote = c.Remote
	}

	// 3. Application services
	c.Quotes = app.NewQuoteService(app.QuoteServiceConfig{
		Store:          c.QuoteStore,
		Remote:         remote,
		PublishTimeout: cfg.Remote.PublishTimeout,
		Logger:         logger,
	})

	c.Notifications = app.NewNotifications(logger)

	c.Sync, err = app.NewSyncService(app.SyncServiceConfig{
		Store:         c.QuoteStore,
		Remote:        remote,
		Quotes:        c.Quotes,
		Notifications: c.Notifications,
		Interval:      cfg.Sync.Interval,
		OnStart:       cfg.Sync.OnStart,
		Logger:        logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("creating sync service: %w", err)
	}

	return c, nil
}

func newRemoteClient(cfg *config.Config, logger *slog.Logger) (*acl.RemoteQuoteClient, error) {
	httpClient, err := clients.New(&clients.Config{
		BaseURL:     cfg.Remote.BaseURL,
		ServiceName: cfg.Remote.Name,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		AuthFunc:    clients.BearerAuth(cfg.Remote.APIToken),
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating remote HTTP client: %w", err)
	}

	return acl.NewRemoteQuoteClient(acl.RemoteQuoteConfig{
		Client:    httpClient,
		PostsPath: cfg.Remote.PostsPath,
		Logger:    logger,
	}), nil
}

// Close waits for in-flight publishes and closes the store.
func (c *Components) Close() error {
	var errs []error

	if c.Quotes != nil {
		c.Quotes.WaitForPublishes()
	}

	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing quote store: %w", err))
		}
	}

	return errors.Join(errs...)
}
