package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

// QuoteStore owns the in-memory quote collection and its persistence.
// Every mutation is written through to durable storage before it becomes
// visible; a failed write leaves memory unchanged.
type QuoteStore struct {
	mu     sync.RWMutex
	quotes []domain.Quote
	filter string

	durable      ports.KeyValueStore
	session      ports.Cache
	seedDefaults bool
	logger       *slog.Logger
}

// QuoteStoreConfig contains the store's dependencies.
type QuoteStoreConfig struct {
	Durable ports.KeyValueStore
	Session ports.Cache

	// SeedDefaults populates domain.DefaultQuotes when nothing was ever persisted.
	SeedDefaults bool

	Logger *slog.Logger
}

// NewQuoteStore creates an empty store. Call Load before use.
// Panics if Durable or Session is nil.
func NewQuoteStore(cfg QuoteStoreConfig) *QuoteStore {
	if cfg.Durable == nil {
		panic("QuoteStore: Durable is required")
	}

	if cfg.Session == nil {
		panic("QuoteStore: Session is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &QuoteStore{
		durable:      cfg.Durable,
		session:      cfg.Session,
		seedDefaults: cfg.SeedDefaults,
		filter:       domain.AllCategories,
		logger:       logger.With(slog.String("component", "app.QuoteStore")),
	}
}

// Load reads the collection and the persisted filter from durable storage.
func (s *QuoteStore) Load(ctx context.Context) error {
	var (
		quotes []domain.Quote
		filter string
	)

	// The two keys are independent; a failure cancels the other read.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		quotes, err = s.loadQuotes(gctx)
		return err
	})
	g.Go(func() (err error) {
		filter, err = s.loadFilter(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("loading store: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.quotes = quotes
	s.filter = filter

	s.logger.InfoContext(ctx, "store loaded",
		slog.Int("quotes", len(quotes)),
		slog.String("filter", filter),
	)

	return nil
}

func (s *QuoteStore) loadQuotes(ctx context.Context) ([]domain.Quote, error) {
	raw, err := s.durable.Get(ctx, ports.KeyQuotes)
	if domain.IsNotFound(err) {
		if !s.seedDefaults {
			return []domain.Quote{}, nil
		}

		seed := domain.DefaultQuotes()
		if err := s.persistQuotes(ctx, seed); err != nil {
			return nil, err
		}

		s.logger.InfoContext(ctx, "seeded default quotes", slog.Int("count", len(seed)))

		return seed, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", ports.KeyQuotes, err)
	}

	var quotes []domain.Quote
	if err := json.Unmarshal([]byte(raw), &quotes); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", ports.KeyQuotes, err)
	}

	if quotes == nil {
		quotes = []domain.Quote{}
	}

	return quotes, nil
}

func (s *QuoteStore) loadFilter(ctx context.Context) (string, error) {
	filter, err := s.durable.Get(ctx, ports.KeyLastSelectedCategory)
	if domain.IsNotFound(err) {
		return domain.AllCategories, nil
	}

	if err != nil {
		return "", fmt.Errorf("reading %s: %w", ports.KeyLastSelectedCategory, err)
	}

	return filter, nil
}

// Quotes returns a copy of the collection.
func (s *QuoteStore) Quotes() []domain.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.Quote{}, s.quotes...)
}

// Len returns the collection size.
func (s *QuoteStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.quotes)
}

// Append adds quotes to the end of the collection and persists it.
func (s *QuoteStore) Append(ctx context.Context, quotes ...domain.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]domain.Quote, 0, len(s.quotes)+len(quotes))
	next = append(next, s.quotes...)
	next = append(next, quotes...)

	if err := s.persistQuotes(ctx, next); err != nil {
		return err
	}

	s.quotes = next

	return nil
}

// Replace swaps the whole collection and persists it.
// It returns the collection that was replaced.
func (s *QuoteStore) Replace(ctx context.Context, quotes []domain.Quote) ([]domain.Quote, error) {
	next := append([]domain.Quote{}, quotes...)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persistQuotes(ctx, next); err != nil {
		return nil, err
	}

	previous := s.quotes
	s.quotes = next

	return previous, nil
}

// Filter returns the persisted filter resolved against current categories.
func (s *QuoteStore) Filter() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.ResolveFilter(s.filter, domain.DistinctCategories(s.quotes))
}

// SetFilter persists filter as the last selected category.
func (s *QuoteStore) SetFilter(ctx context.Context, filter string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.durable.Set(ctx, ports.KeyLastSelectedCategory, filter); err != nil {
		return fmt.Errorf("writing %s: %w", ports.KeyLastSelectedCategory, err)
	}

	s.filter = filter

	return nil
}

// LastQuote returns the last shown quote for this session.
func (s *QuoteStore) LastQuote(ctx context.Context) (domain.Quote, error) {
	raw, err := s.session.Get(ctx, ports.KeyLastQuote)
	if domain.IsNotFound(err) {
		return domain.Quote{}, domain.NewNotFoundError("last quote", "")
	}

	if err != nil {
		return domain.Quote{}, fmt.Errorf("reading %s: %w", ports.KeyLastQuote, err)
	}

	var q domain.Quote
	if err := json.Unmarshal(raw, &q); err != nil {
		return domain.Quote{}, fmt.Errorf("decoding %s: %w", ports.KeyLastQuote, err)
	}

	return q, nil
}

// SetLastQuote caches q as the last shown quote.
func (s *QuoteStore) SetLastQuote(ctx context.Context, q domain.Quote) error {
	raw, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", ports.KeyLastQuote, err)
	}

	if err := s.session.Set(ctx, ports.KeyLastQuote, raw, 0); err != nil {
		return fmt.Errorf("writing %s: %w", ports.KeyLastQuote, err)
	}

	return nil
}

func (s *QuoteStore) persistQuotes(ctx context.Context, quotes []domain.Quote) error {
	raw, err := json.Marshal(quotes)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", ports.KeyQuotes, err)
	}

	if err := s.durable.Set(ctx, ports.KeyQuotes, string(raw)); err != nil {
		return fmt.Errorf("writing %s: %w", ports.KeyQuotes, err)
	}

	return nil
}
