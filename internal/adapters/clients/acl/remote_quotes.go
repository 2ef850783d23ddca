package acl

import (
	"context"
	"log/slog"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/clients"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
)

const defaultPostsPath = "/posts"

// RemoteQuoteConfig contains configuration for the remote quote client.
type RemoteQuoteConfig struct {
	// Client is the instrumented HTTP client pointed at the remote base URL.
	Client *clients.Client

	// PostsPath is the collection path for both GET and POST. Defaults to /posts.
	PostsPath string

	Logger *slog.Logger
}

// RemoteQuoteClient implements ports.RemoteQuoteSource against a posts API.
type RemoteQuoteClient struct {
	BaseAdapter

	postsPath string
	logger    *slog.Logger
}

// NewRemoteQuoteClient creates a remote quote adapter.
// Panics if Client is nil.
func NewRemoteQuoteClient(cfg RemoteQuoteConfig) *RemoteQuoteClient {
	if cfg.Client == nil {
		panic("RemoteQuoteClient: Client is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	path := cfg.PostsPath
	if path == "" {
		path = defaultPostsPath
	}

	return &RemoteQuoteClient{
		BaseAdapter: NewBaseAdapter(cfg.Client),
		postsPath:   path,
		logger:      logger.With(slog.String("component", "acl.RemoteQuoteClient")),
	}
}

// post is the remote record. Only title and body carry meaning here.
type post struct {
	UserID int    `json:"userId,omitempty"`
	ID     int    `json:"id,omitempty"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// newPost is the outbound record for a new quote.
type newPost struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func translatePost(p *post) (domain.Quote, error) {
	return domain.Quote{Text: p.Body, Category: p.Title}, nil
}

// FetchQuotes returns the remote records mapped to quotes, in remote order.
func (c *RemoteQuoteClient) FetchQuotes(ctx context.Context) ([]domain.Quote, error) {
	c.logger.Log(ctx, logging.LevelTrace, "fetching remote quotes", slog.String("path", c.postsPath))

	body, err := c.Get(ctx, c.postsPath, "FetchQuotes")
	if err != nil {
		return nil, err
	}

	posts, err := DecodeResponse[[]post](body)
	if err != nil {
		return nil, domain.NewNetworkError(c.ServiceName(), "FetchQuotes", err.Error())
	}

	quotes, err := TranslateSlice(*posts, translatePost)
	if err != nil {
		return nil, domain.NewNetworkError(c.ServiceName(), "FetchQuotes", err.Error())
	}

	c.logger.DebugContext(ctx, "fetched remote quotes", slog.Int("count", len(quotes)))

	return quotes, nil
}

// PublishQuote POSTs q as {title: category, body: text}.
func (c *RemoteQuoteClient) PublishQuote(ctx context.Context, q domain.Quote) error {
	body, err := c.PostJSON(ctx, c.postsPath, newPost{Title: q.Category, Body: q.Text}, "PublishQuote")
	if err != nil {
		return err
	}

	return body.Close()
}

// Name implements ports.HealthChecker.
func (c *RemoteQuoteClient) Name() string {
	return c.ServiceName()
}

// Check reports whether the remote answers the collection path.
func (c *RemoteQuoteClient) Check(ctx context.Context) error {
	body, err := c.Get(ctx, c.postsPath, "Check")
	if err != nil {
		return err
	}

	return body.Close()
}

// Optional marks the remote as non-critical: local quotes keep working while
// it is down, so readiness degrades instead of failing.
func (c *RemoteQuoteClient) Optional() bool {
	return true
}
