package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

const (
	// syncInstrumentationName is used for the sync meter.
	syncInstrumentationName = "github.com/jsamuelsen/quotekeeper/internal/app"

	defaultSyncInterval = 30 * time.Second

	syncResultReplaced  = "replaced"
	syncResultUnchanged = "unchanged"
	syncResultError     = "error"
	syncResultSkipped   = "skipped"
)

// SyncService reconciles the local collection with the remote source.
// The remote always wins: any difference replaces the local collection.
type SyncService struct {
	store         *QuoteStore
	remote        ports.RemoteQuoteSource
	quotes        *QuoteService
	notifications *Notifications
	interval      time.Duration
	onStart       bool
	logger        *slog.Logger

	busy atomic.Bool

	runs     metric.Int64Counter
	duration metric.Float64Histogram
}

// SyncServiceConfig contains configuration for the sync service.
type SyncServiceConfig struct {
	Store         *QuoteStore
	Remote        ports.RemoteQuoteSource
	Quotes        *QuoteService
	Notifications *Notifications

	// Interval between polls. Defaults to 30s.
	Interval time.Duration

	// OnStart runs a sync as soon as Run is called.
	OnStart bool

	Logger *slog.Logger
}

// NewSyncService creates a new sync service.
// Panics if Store, Remote, Quotes or Notifications is nil.
func NewSyncService(cfg SyncServiceConfig) (*SyncService, error) {
	switch {
	case cfg.Store == nil:
		panic("SyncService: Store is required")
	case cfg.Remote == nil:
		panic("SyncService: Remote is required")
	case cfg.Quotes == nil:
		panic("SyncService: Quotes is required")
	case cfg.Notifications == nil:
		panic("SyncService: Notifications is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultSyncInterval
	}

	meter := otel.Meter(syncInstrumentationName)

	runs, err := meter.Int64Counter(
		"quotes.sync.runs",
		metric.WithDescription("Number of remote sync attempts by result"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sync counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		"quotes.sync.duration",
		metric.WithDescription("Duration of remote sync passes"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sync duration metric: %w", err)
	}

	return &SyncService{
		store:         cfg.Store,
		remote:        cfg.Remote,
		quotes:        cfg.Quotes,
		notifications: cfg.Notifications,
		interval:      interval,
		onStart:       cfg.OnStart,
		logger:        logger.With(slog.String("component", "app.SyncService")),
		runs:          runs,
		duration:      duration,
	}, nil
}

// Run polls the remote every interval until ctx is cancelled.
// Errors from individual passes are logged and do not stop the loop.
func (s *SyncService) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "sync worker started", slog.Duration("interval", s.interval))

	if s.onStart {
		s.tick(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "sync worker stopped")
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *SyncService) tick(ctx context.Context) {
	// Sync already logs and counts its own failures.
	_, _ = s.Sync(ctx)
}

// Sync runs one reconciliation pass. If a pass is already in flight it
// returns immediately with Skipped set.
func (s *SyncService) Sync(ctx context.Context) (domain.SyncOutcome, error) {
	if !s.busy.CompareAndSwap(false, true) {
		s.logger.DebugContext(ctx, "sync already in progress, skipping")
		s.record(ctx, syncResultSkipped, 0)

		return domain.SyncOutcome{Skipped: true}, nil
	}
	defer s.busy.Store(false)

	start := time.Now()

	outcome, err := s.reconcile(ctx)
	elapsed := time.Since(start)

	switch {
	case err != nil:
		s.record(ctx, syncResultError, elapsed)
		s.logger.WarnContext(ctx, "sync failed", slog.Any("error", err))

		return domain.SyncOutcome{}, err
	case outcome.Replaced:
		s.record(ctx, syncResultReplaced, elapsed)
	default:
		s.record(ctx, syncResultUnchanged, elapsed)
	}

	return outcome, nil
}

func (s *SyncService) reconcile(ctx context.Context) (domain.SyncOutcome, error) {
	remote, err := s.remote.FetchQuotes(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return domain.SyncOutcome{}, err
		}

		return domain.SyncOutcome{}, fmt.Errorf("fetching remote quotes: %w", err)
	}

	local := s.store.Quotes()
	if domain.SequencesEqual(local, remote) {
		s.logger.DebugContext(ctx, "remote matches local", slog.Int("quotes", len(local)))

		return domain.SyncOutcome{Previous: len(local), Current: len(local)}, nil
	}

	previous, err := s.store.Replace(ctx, remote)
	if err != nil {
		return domain.SyncOutcome{}, fmt.Errorf("replacing local quotes: %w", err)
	}

	outcome := domain.SyncOutcome{
		Replaced:  true,
		Previous:  len(previous),
		Current:   len(remote),
		Discarded: domain.CountDiscarded(previous, remote),
	}

	if outcome.Discarded > 0 {
		s.logger.WarnContext(ctx, "local quotes discarded by remote",
			slog.Int("discarded", outcome.Discarded),
		)
	}

	s.logger.InfoContext(ctx, "quotes replaced from remote",
		slog.Int("previous", outcome.Previous),
		slog.Int("current", outcome.Current),
	)

	if _, err := s.quotes.RandomQuote(ctx, ""); err != nil {
		s.logger.WarnContext(ctx, "failed to redisplay after sync", slog.Any("error", err))
	}

	note := s.notifications.Raise(ctx, domain.SyncUpdatedMessage, domain.ActionRedisplay)
	outcome.Notification = &note

	return outcome, nil
}

func (s *SyncService) record(ctx context.Context, result string, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("result", result))

	s.runs.Add(ctx, 1, attrs)

	if result != syncResultSkipped {
		s.duration.Record(ctx, elapsed.Seconds(), attrs)
	}
}
