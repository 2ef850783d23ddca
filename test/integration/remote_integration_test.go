//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotekeeper/internal/bootstrap"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/platform/config"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

// fakeRemote is an in-memory posts API.
type fakeRemote struct {
	mu     sync.Mutex
	posts  []map[string]any
	fail   bool
	gets   int
	tokens []string
}

func newFakeRemote(t *testing.T, posts ...map[string]any) (*fakeRemote, *httptest.Server) {
	t.Helper()

	r := &fakeRemote{posts: posts}
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return r, srv
}

func (f *fakeRemote) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.tokens = append(f.tokens, r.Header.Get("Authorization"))

	if r.URL.Path != "/posts" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if f.fail {
		if r.Method == http.MethodGet {
			f.gets++
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"message":"maintenance"}`))

		return
	}

	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodGet:
		f.gets++
		_ = json.NewEncoder(w).Encode(f.posts)
	case http.MethodPost:
		var p map[string]any
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		p["id"] = len(f.posts) + 1
		f.posts = append(f.posts, p)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(p)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeRemote) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fail = fail
}

func (f *fakeRemote) snapshot() (posts []map[string]any, gets int, tokens []string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]map[string]any(nil), f.posts...), f.gets, append([]string(nil), f.tokens...)
}

// remoteConfig points the whole stack at srv with fast retries.
func remoteConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()

	cfg, err := config.LoadDir(t.TempDir(), "")
	require.NoError(t, err)

	cfg.Storage.Path = filepath.Join(t.TempDir(), "quotes.db")
	cfg.Remote.BaseURL = baseURL
	cfg.Remote.APIToken = "integration-token"
	cfg.Client.Timeout = 2 * time.Second
	cfg.Client.Retry = config.RetryConfig{
		MaxAttempts:     2,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     50 * time.Millisecond,
		Multiplier:      2.0,
	}
	cfg.Client.CircuitBreaker = config.CircuitBreakerConfig{
		MaxFailures:   2,
		Timeout:       time.Minute,
		HalfOpenLimit: 1,
	}

	return cfg
}

func buildComponents(t *testing.T, cfg *config.Config) *bootstrap.Components {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	c, err := bootstrap.Build(context.Background(), cfg, logger, bootstrap.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c
}

func TestRemote_SyncReplacesLocal(t *testing.T) {
	_, srv := newFakeRemote(t,
		map[string]any{"id": 1, "userId": 1, "title": "Stoic", "body": "Waste no more time."},
		map[string]any{"id": 2, "userId": 1, "title": "Life", "body": "Life is what happens when you're busy making other plans."},
	)
	c := buildComponents(t, remoteConfig(t, srv.URL))
	ctx := context.Background()

	outcome, err := c.Sync.Sync(ctx)
	require.NoError(t, err)

	assert.True(t, outcome.Replaced)
	assert.Equal(t, 3, outcome.Previous)
	assert.Equal(t, 2, outcome.Current)
	assert.Equal(t, 2, outcome.Discarded, "the Life quote survives the replace")
	require.NotNil(t, outcome.Notification)
	assert.Equal(t, domain.SyncUpdatedMessage, outcome.Notification.Message)

	assert.Equal(t, []domain.Quote{
		{Text: "Waste no more time.", Category: "Stoic"},
		{Text: "Life is what happens when you're busy making other plans.", Category: "Life"},
	}, c.Quotes.List(ctx))

	// Unchanged remote is a no-op.
	outcome, err = c.Sync.Sync(ctx)
	require.NoError(t, err)
	assert.False(t, outcome.Replaced)
	assert.Nil(t, outcome.Notification)
	assert.Len(t, c.Notifications.Active(), 1)
}

func TestRemote_PublishOnAdd(t *testing.T) {
	remote, srv := newFakeRemote(t)
	c := buildComponents(t, remoteConfig(t, srv.URL))
	ctx := context.Background()

	_, err := c.Quotes.AddQuote(ctx, "Ship small.", "Work")
	require.NoError(t, err)

	c.Quotes.WaitForPublishes()

	posts, _, tokens := remote.snapshot()
	require.Len(t, posts, 1)
	assert.Equal(t, "Work", posts[0]["title"])
	assert.Equal(t, "Ship small.", posts[0]["body"])
	assert.Contains(t, tokens, "Bearer integration-token")
}

func TestRemote_PublishFailureKeepsQuote(t *testing.T) {
	remote, srv := newFakeRemote(t)
	remote.setFail(true)

	c := buildComponents(t, remoteConfig(t, srv.URL))
	ctx := context.Background()

	_, err := c.Quotes.AddQuote(ctx, "Still here.", "Local")
	require.NoError(t, err)

	c.Quotes.WaitForPublishes()

	assert.Equal(t, 4, c.Quotes.Count(ctx))
}

func TestRemote_FailureLeavesLocalAndOpensCircuit(t *testing.T) {
	remote, srv := newFakeRemote(t)
	remote.setFail(true)

	c := buildComponents(t, remoteConfig(t, srv.URL))
	ctx := context.Background()

	for range 2 {
		_, err := c.Sync.Sync(ctx)
		require.Error(t, err)
		assert.True(t, domain.IsNetwork(err))
	}

	_, gets, _ := remote.snapshot()
	assert.Equal(t, 4, gets, "two syncs with two attempts each")

	_, err := c.Sync.Sync(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")

	_, gets, _ = remote.snapshot()
	assert.Equal(t, 4, gets, "an open circuit does not reach the remote")

	assert.Equal(t, domain.DefaultQuotes(), c.Quotes.List(ctx))
	assert.Empty(t, c.Notifications.Active())
}

func TestRemote_ReadinessDegradesWhenDown(t *testing.T) {
	remote, srv := newFakeRemote(t)
	c := buildComponents(t, remoteConfig(t, srv.URL))
	ctx := context.Background()

	result := c.Health.CheckAll(ctx)
	assert.Equal(t, ports.HealthStatusHealthy, result.Status)
	assert.Len(t, result.Checks, 2)

	remote.setFail(true)

	result = c.Health.CheckAll(ctx)
	assert.Equal(t, ports.HealthStatusDegraded, result.Status)
	assert.Equal(t, ports.HealthStatusDegraded, result.Checks["remote-quotes"].Status)
}
