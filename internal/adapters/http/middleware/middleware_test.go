package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func TestIDMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		middleware gin.HandlerFunc
		header     string
		fromCtx    func(context.Context) string
	}{
		{
			name:       "request id",
			middleware: RequestID(),
			header:     HeaderRequestID,
			fromCtx:    RequestIDFromContext,
		},
		{
			name:       "correlation id",
			middleware: CorrelationID(),
			header:     HeaderCorrelationID,
			fromCtx:    CorrelationIDFromContext,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name+" generated", func(t *testing.T) {
			var ctxID string

			router := gin.New()
			router.Use(tt.middleware)
			router.GET("/q", func(c *gin.Context) {
				ctxID = tt.fromCtx(c.Request.Context())
				c.Status(http.StatusOK)
			})

			w := serve(router, httptest.NewRequest(http.MethodGet, "/q", nil))

			assert.Len(t, ctxID, 36, "uuid v4")
			assert.Equal(t, ctxID, w.Header().Get(tt.header))
		})

		t.Run(tt.name+" propagated", func(t *testing.T) {
			var ctxID string

			router := gin.New()
			router.Use(tt.middleware)
			router.GET("/q", func(c *gin.Context) {
				ctxID = tt.fromCtx(c.Request.Context())
			})

			req := httptest.NewRequest(http.MethodGet, "/q", nil)
			req.Header.Set(tt.header, "upstream-42")

			w := serve(router, req)

			assert.Equal(t, "upstream-42", ctxID)
			assert.Equal(t, "upstream-42", w.Header().Get(tt.header))
		})
	}
}

func TestIDMiddleware_EnrichesContextLogger(t *testing.T) {
	var buf bytes.Buffer

	base := slog.New(slog.NewJSONHandler(&buf, nil))

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(logging.WithContext(c.Request.Context(), base))
		c.Next()
	}, RequestID(), CorrelationID())
	router.GET("/q", func(c *gin.Context) {
		logging.FromContext(c.Request.Context()).Info("handled")
	})

	req := httptest.NewRequest(http.MethodGet, "/q", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	req.Header.Set(HeaderCorrelationID, "corr-1")
	serve(router, req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "corr-1", entry["correlation_id"])
}

func TestContextIDs_NotSet(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(context.Background()))
	assert.Empty(t, CorrelationIDFromContext(context.Background()))
	assert.Empty(t, RequestIDFromContext(nil)) //nolint:staticcheck // nil guard
}

func TestLogging(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		status    int
		skip      []string
		wantLevel string
	}{
		{name: "success logs info", path: "/api/v1/quotes", status: http.StatusOK, wantLevel: "INFO"},
		{name: "client error logs warn", path: "/api/v1/filter", status: http.StatusBadRequest, wantLevel: "WARN"},
		{name: "server error logs error", path: "/api/v1/sync", status: http.StatusBadGateway, wantLevel: "ERROR"},
		{name: "health paths are skipped", path: "/-/live", status: http.StatusOK},
		{name: "explicit skip paths", path: "/api/v1/quotes", status: http.StatusOK, skip: []string{"/api/v1/quotes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

			router := gin.New()
			router.Use(Logging(logger, tt.skip...))
			router.GET(tt.path, func(c *gin.Context) { c.Status(tt.status) })

			serve(router, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if tt.wantLevel == "" {
				assert.Empty(t, buf.String())
				return
			}

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, "request completed", entry["msg"])
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.InDelta(t, float64(tt.status), entry["status"], 0)
		})
	}
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer

	router := gin.New()
	router.Use(Recovery(slog.New(slog.NewJSONHandler(&buf, nil))))
	router.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w := serve(router, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrorCodeInternal, resp.Error.Code)
	assert.NotContains(t, w.Body.String(), "kaboom")

	assert.Contains(t, buf.String(), "panic recovered")
	assert.Contains(t, buf.String(), "kaboom")
}

func TestRecovery_AfterWrite(t *testing.T) {
	router := gin.New()
	router.Use(Recovery(slog.New(slog.NewTextHandler(io.Discard, nil))))
	router.GET("/late", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		panic("too late")
	})

	w := serve(router, httptest.NewRequest(http.MethodGet, "/late", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "partial", w.Body.String())
}

func TestSimpleTimeout(t *testing.T) {
	t.Run("sets deadline", func(t *testing.T) {
		var hasDeadline bool

		router := gin.New()
		router.Use(SimpleTimeout(time.Second))
		router.GET("/q", func(c *gin.Context) {
			_, hasDeadline = c.Request.Context().Deadline()
			c.Status(http.StatusOK)
		})

		w := serve(router, httptest.NewRequest(http.MethodGet, "/q", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, hasDeadline)
	})

	t.Run("writes timeout envelope when handler gives up", func(t *testing.T) {
		router := gin.New()
		router.Use(SimpleTimeout(10 * time.Millisecond))
		router.GET("/slow", func(c *gin.Context) {
			<-c.Request.Context().Done()
		})

		w := serve(router, httptest.NewRequest(http.MethodGet, "/slow", nil))

		assert.Equal(t, http.StatusGatewayTimeout, w.Code)

		var resp dto.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrorCodeTimeout, resp.Error.Code)
	})

	t.Run("keeps a late handler response", func(t *testing.T) {
		router := gin.New()
		router.Use(SimpleTimeout(10 * time.Millisecond))
		router.GET("/late", func(c *gin.Context) {
			<-c.Request.Context().Done()
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "gave up"})
		})

		w := serve(router, httptest.NewRequest(http.MethodGet, "/late", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
