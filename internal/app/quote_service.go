// Package app contains application services that orchestrate use cases.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

const defaultPublishTimeout = 10 * time.Second

// Selection is the result of picking a random quote.
type Selection struct {
	Quote domain.Quote

	// Found is false when no quote matched Filter.
	Found bool

	// Filter is the category filter that was applied.
	Filter string
}

// Display renders the selection the way a text surface shows it.
func (s Selection) Display() string {
	if !s.Found {
		return domain.NoQuotesMessage
	}

	return s.Quote.Display()
}

// CategoryList is the filter selector's content.
type CategoryList struct {
	// Options starts with "all", followed by categories in first-seen order.
	Options []string

	// Selected is the persisted filter resolved against Options.
	Selected string
}

// QuoteService implements the local quote use cases: selection, adding,
// category enumeration and import/export.
type QuoteService struct {
	store          *QuoteStore
	remote         ports.RemoteQuoteSource
	rng            domain.Rand
	publishTimeout time.Duration
	logger         *slog.Logger

	publishes sync.WaitGroup
}

// QuoteServiceConfig contains configuration for the quote service.
type QuoteServiceConfig struct {
	Store *QuoteStore

	// Remote receives newly added quotes. Optional.
	Remote ports.RemoteQuoteSource

	// Rand drives selection. Defaults to the math/rand/v2 global source.
	Rand domain.Rand

	// PublishTimeout bounds each fire-and-forget publish.
	PublishTimeout time.Duration

	Logger *slog.Logger
}

// NewQuoteService creates a new quote service.
// Panics if Store is nil. Defaults logger to slog.Default() if nil.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	if cfg.Store == nil {
		panic("QuoteService: Store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rng := cfg.Rand
	if rng == nil {
		rng = globalRand{}
	}

	timeout := cfg.PublishTimeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}

	return &QuoteService{
		store:          cfg.Store,
		remote:         cfg.Remote,
		rng:            rng,
		publishTimeout: timeout,
		logger:         logger.With(slog.String("component", "app.QuoteService")),
	}
}

// globalRand is safe for concurrent use, unlike a *rand.Rand.
type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) } //nolint:gosec // selection does not need crypto randomness

// RandomQuote picks a quote matching category, or the persisted filter when
// category is empty, and caches it as the last shown quote.
func (s *QuoteService) RandomQuote(ctx context.Context, category string) (Selection, error) {
	filter := category
	if filter == "" {
		filter = s.store.Filter()
	}

	q, ok := domain.SelectQuote(s.store.Quotes(), filter, s.rng)
	sel := Selection{Quote: q, Found: ok, Filter: filter}

	if !ok {
		s.logger.DebugContext(ctx, "no quotes match filter", slog.String("filter", filter))
		return sel, nil
	}

	if err := s.store.SetLastQuote(ctx, q); err != nil {
		s.logger.WarnContext(ctx, "failed to cache last quote", slog.Any("error", err))
	}

	return sel, nil
}

// LastQuote returns the quote most recently shown this session.
func (s *QuoteService) LastQuote(ctx context.Context) (domain.Quote, error) {
	return s.store.LastQuote(ctx)
}

// List returns the whole collection in insertion order.
func (s *QuoteService) List(_ context.Context) []domain.Quote {
	return s.store.Quotes()
}

// Count returns the collection size.
func (s *QuoteService) Count(_ context.Context) int {
	return s.store.Len()
}

// AddQuote validates and appends a quote, then forwards it to the remote
// without waiting for the result.
func (s *QuoteService) AddQuote(ctx context.Context, text, category string) (domain.Quote, error) {
	q, err := domain.NewQuote(text, category)
	if err != nil {
		return domain.Quote{}, err
	}

	if err := s.store.Append(ctx, q); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist new quote", slog.Any("error", err))
		return domain.Quote{}, err
	}

	s.logger.InfoContext(ctx, "quote added",
		slog.String("category", q.Category),
		slog.Int("total", s.store.Len()),
	)

	s.publish(ctx, q)

	return q, nil
}

// publish sends q to the remote in the background. Failures are logged only.
func (s *QuoteService) publish(ctx context.Context, q domain.Quote) {
	if s.remote == nil {
		return
	}

	ctx = context.WithoutCancel(ctx)

	s.publishes.Add(1)

	go func() {
		defer s.publishes.Done()

		ctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
		defer cancel()

		if err := s.remote.PublishQuote(ctx, q); err != nil {
			s.logger.WarnContext(ctx, "failed to publish quote to remote",
				slog.String("category", q.Category),
				slog.Any("error", err),
			)

			return
		}

		s.logger.DebugContext(ctx, "quote published to remote", slog.String("category", q.Category))
	}()
}

// WaitForPublishes blocks until in-flight remote publishes finish.
func (s *QuoteService) WaitForPublishes() {
	s.publishes.Wait()
}

// Categories returns the filter options and the resolved selection.
func (s *QuoteService) Categories(_ context.Context) CategoryList {
	return CategoryList{
		Options:  domain.CategoryOptions(s.store.Quotes()),
		Selected: s.store.Filter(),
	}
}

// SetFilter persists category as the selected filter. It must be "all" or a
// current category; case is normalized to the stored spelling.
func (s *QuoteService) SetFilter(ctx context.Context, category string) (string, error) {
	filter := domain.AllCategories

	if !domain.IsAllFilter(category) {
		match, ok := domain.MatchCategory(category, domain.DistinctCategories(s.store.Quotes()))
		if !ok {
			return "", domain.NewValidationErrorWithValue("category", "unknown category", category)
		}

		filter = match
	}

	if err := s.store.SetFilter(ctx, filter); err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "filter selected", slog.String("filter", filter))

	return filter, nil
}

// Export encodes the collection as a pretty-printed JSON array.
func (s *QuoteService) Export(_ context.Context) ([]byte, error) {
	data, err := json.MarshalIndent(s.store.Quotes(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding export: %w", err)
	}

	return append(data, '\n'), nil
}

// Import parses data as a JSON array of quotes and appends every element.
// Elements are not required to carry text and category.
func (s *QuoteService) Import(ctx context.Context, data []byte) (int, error) {
	quotes, incomplete, err := decodeImport(data)
	if err != nil {
		s.logger.WarnContext(ctx, "rejected import", slog.Any("error", err))
		return 0, err
	}

	if incomplete > 0 {
		s.logger.WarnContext(ctx, "imported quotes missing text or category",
			slog.Int("incomplete", incomplete),
		)
	}

	if len(quotes) == 0 {
		return 0, nil
	}

	if err := s.store.Append(ctx, quotes...); err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "quotes imported",
		slog.Int("count", len(quotes)),
		slog.Int("total", s.store.Len()),
	)

	return len(quotes), nil
}

// decodeImport returns the quotes in data and how many lack text or category.
func decodeImport(data []byte) ([]domain.Quote, int, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, 0, domain.NewParseError(syntaxErr.Offset, syntaxErr.Error())
		}

		return nil, 0, domain.NewParseError(-1, err.Error())
	}

	items, ok := doc.([]any)
	if !ok {
		return nil, 0, domain.NewFormatError(fmt.Sprintf("expected a JSON array, got %s", jsonKind(doc)))
	}

	quotes := make([]domain.Quote, 0, len(items))
	incomplete := 0

	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, 0, domain.NewFormatError(fmt.Sprintf("element %d is %s, not an object", i, jsonKind(item)))
		}

		text, err := stringField(obj, "text", i)
		if err != nil {
			return nil, 0, err
		}

		category, err := stringField(obj, "category", i)
		if err != nil {
			return nil, 0, err
		}

		if text == "" || category == "" {
			incomplete++
		}

		quotes = append(quotes, domain.Quote{Text: text, Category: category})
	}

	return quotes, incomplete, nil
}

func stringField(obj map[string]any, name string, index int) (string, error) {
	v, ok := obj[name]
	if !ok || v == nil {
		return "", nil
	}

	s, ok := v.(string)
	if !ok {
		return "", domain.NewFormatError(fmt.Sprintf("element %d: %s is %s, not a string", index, name, jsonKind(v)))
	}

	return s, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case float64:
		return "a number"
	case string:
		return "a string"
	case []any:
		return "an array"
	case map[string]any:
		return "an object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
