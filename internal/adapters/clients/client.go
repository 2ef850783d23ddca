package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotekeeper/internal/platform/config"
	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
)

const (
	// instrumentationName is used for OpenTelemetry tracer and meter.
	instrumentationName = "github.com/jsamuelsen/quotekeeper/internal/adapters/clients"

	defaultTimeout = 30 * time.Second

	defaultJitterFactor = 0.25

	userAgent = "quotekeeper"
)

// Config configures an HTTP client instance.
type Config struct {
	// BaseURL is prefixed to every request path.
	BaseURL string

	// ServiceName identifies the downstream in logs, spans and metrics.
	ServiceName string

	// Timeout is the per-attempt request timeout.
	Timeout time.Duration

	Retry     config.RetryConfig
	Circuit   config.CircuitBreakerConfig
	Transport config.TransportConfig

	// AuthFunc, when set, is applied to every attempt including retries.
	AuthFunc func(*http.Request)

	Logger *slog.Logger
}

// BearerAuth returns an AuthFunc that sends token as a bearer credential.
// An empty token yields nil so no Authorization header is sent.
func BearerAuth(token string) func(*http.Request) {
	if token == "" {
		return nil
	}

	return func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// Client is an instrumented HTTP client for one downstream service. Requests
// are retried with exponential backoff, guarded by a circuit breaker, traced,
// counted and logged.
type Client struct {
	http        *http.Client
	baseURL     string
	serviceName string
	cfg         Config
	logger      *slog.Logger
	cb          *CircuitBreaker
	tracer      trace.Tracer

	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
}

// New creates a new instrumented HTTP client.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	if cfg.ServiceName == "" {
		return nil, errors.New("service name is required")
	}

	c := *cfg
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}

	if c.Retry.MaxAttempts < 1 {
		c.Retry.MaxAttempts = 1
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(
		slog.String("component", "clients.Client"),
		slog.String("downstream", c.ServiceName),
	)

	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:   c.Circuit.MaxFailures,
		Timeout:       c.Circuit.Timeout,
		HalfOpenLimit: c.Circuit.HalfOpenLimit,
	})
	cb.OnStateChange(func(from, to State) {
		logger.Warn("circuit breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	meter := otel.Meter(instrumentationName)

	requestDuration, err := meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("Duration of HTTP client requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration metric: %w", err)
	}

	requestTotal, err := meter.Int64Counter(
		"http.client.request.total",
		metric.WithDescription("Total number of HTTP client requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if c.Transport.MaxIdleConns > 0 {
		transport.MaxIdleConns = c.Transport.MaxIdleConns
	}

	if c.Transport.MaxIdleConnsPerHost > 0 {
		transport.MaxIdleConnsPerHost = c.Transport.MaxIdleConnsPerHost
	}

	if c.Transport.IdleConnTimeout > 0 {
		transport.IdleConnTimeout = c.Transport.IdleConnTimeout
	}

	return &Client{
		http:            &http.Client{Timeout: c.Timeout, Transport: transport},
		baseURL:         strings.TrimSuffix(c.BaseURL, "/"),
		serviceName:     c.ServiceName,
		cfg:             c,
		logger:          logger,
		cb:              cb,
		tracer:          otel.Tracer(instrumentationName),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
	}, nil
}

// ServiceName returns the downstream name.
func (c *Client) ServiceName() string {
	return c.serviceName
}

// CircuitState returns the current state of the circuit breaker.
func (c *Client) CircuitState() State {
	return c.cb.State()
}

// Get performs an HTTP GET request.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(path), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	return c.Do(ctx, req)
}

// PostJSON encodes body as JSON and POSTs it. The body is buffered so that
// retries resend it.
func (c *Client) PostJSON(ctx context.Context, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(path), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("Accept", "application/json")

	return c.Do(ctx, req)
}

// Do executes req with retry, circuit breaking, tracing and logging.
// Requests with a body are only retried when req.GetBody is set.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()
	logger := logging.FromContext(ctx).With(
		slog.String("downstream", c.serviceName),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
	)

	if !c.cb.Allow() {
		c.recordMetrics(ctx, req.Method, 0, time.Since(start), "circuit_open")
		logger.WarnContext(ctx, "request blocked by circuit breaker")

		return nil, ErrCircuitOpen
	}

	ctx, span := c.tracer.Start(ctx, fmt.Sprintf("HTTP %s %s", req.Method, c.serviceName),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.String()),
			attribute.String("peer.service", c.serviceName),
		),
	)
	defer span.End()

	c.injectHeaders(ctx, req)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.executeWithRetry(ctx, req, logger)
	elapsed := time.Since(start)

	if err != nil {
		c.cb.RecordFailure()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.recordMetrics(ctx, req.Method, 0, elapsed, "error")
		logger.WarnContext(ctx, "request failed",
			slog.Duration("duration", elapsed),
			slog.Any("error", err),
		)

		return nil, err
	}

	c.cb.RecordSuccess()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", resp.StatusCode))
	}

	c.recordMetrics(ctx, req.Method, resp.StatusCode, elapsed, fmt.Sprintf("%dxx", resp.StatusCode/100))
	logger.Log(ctx, logging.LevelTrace, "request completed",
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", elapsed),
	)

	return resp, nil
}

// executeWithRetry returns the first non-retryable outcome. Exhausting the
// attempts wraps the last failure in ErrMaxRetriesExceeded.
func (c *Client) executeWithRetry(ctx context.Context, req *http.Request, logger *slog.Logger) (*http.Response, error) {
	var lastErr error

	for attempt := range c.cfg.Retry.MaxAttempts {
		if attempt > 0 {
			if !rewindable(req) {
				break
			}

			if err := c.backoff(ctx, attempt, logger); err != nil {
				return nil, err
			}

			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewinding request body: %w", err)
			}

			req.Body = body

			if c.cfg.AuthFunc != nil {
				c.cfg.AuthFunc(req)
			}
		}

		resp, err := c.http.Do(req.WithContext(ctx))

		switch {
		case err != nil && !isRetryableError(err):
			return nil, err
		case err != nil:
			lastErr = err
		case resp.StatusCode >= http.StatusInternalServerError:
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
		default:
			return resp, nil
		}

		logger.DebugContext(ctx, "attempt failed",
			slog.Int("attempt", attempt+1),
			slog.Any("error", lastErr),
		)
	}

	return nil, fmt.Errorf("%w: %w", ErrMaxRetriesExceeded, lastErr)
}

// rewindable reports whether req can be sent again.
func rewindable(req *http.Request) bool {
	return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
}

func (c *Client) backoff(ctx context.Context, attempt int, logger *slog.Logger) error {
	wait := c.calculateBackoff(attempt)
	logger.DebugContext(ctx, "retrying request",
		slog.Int("attempt", attempt+1),
		slog.Duration("backoff", wait),
	)

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// injectHeaders adds propagation IDs, user agent and auth to the request.
func (c *Client) injectHeaders(ctx context.Context, req *http.Request) {
	if requestID := middleware.RequestIDFromContext(ctx); requestID != "" {
		req.Header.Set(middleware.HeaderRequestID, requestID)
	}

	if correlationID := middleware.CorrelationIDFromContext(ctx); correlationID != "" {
		req.Header.Set(middleware.HeaderCorrelationID, correlationID)
	}

	req.Header.Set("User-Agent", userAgent)

	if c.cfg.AuthFunc != nil {
		c.cfg.AuthFunc(req)
	}
}

func (c *Client) buildURL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return c.baseURL + path
}

// calculateBackoff returns initial*multiplier^attempt capped at MaxInterval,
// with symmetric jitter of JitterFactor.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := float64(c.cfg.Retry.InitialInterval) * math.Pow(c.cfg.Retry.Multiplier, float64(attempt))
	if limit := float64(c.cfg.Retry.MaxInterval); limit > 0 && backoff > limit {
		backoff = limit
	}

	jitter := c.cfg.Retry.JitterFactor
	if jitter <= 0 {
		jitter = defaultJitterFactor
	}

	backoff += backoff * jitter * (rand.Float64()*2 - 1) //nolint:gosec // jitter does not need crypto randomness

	return time.Duration(backoff)
}

func (c *Client) recordMetrics(ctx context.Context, method string, statusCode int, duration time.Duration, result string) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("peer.service", c.serviceName),
		attribute.String("result", result),
	}

	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	opt := metric.WithAttributes(attrs...)
	c.requestDuration.Record(ctx, duration.Seconds(), opt)
	c.requestTotal.Add(ctx, 1, opt)
}

// isRetryableError reports whether a transport error is worth retrying.
func isRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError

	return errors.As(err, &opErr)
}
