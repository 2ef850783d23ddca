package dto

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quotekeeper/internal/app"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse(ErrorCodeParse, "unexpected end of JSON input")

	assert.Equal(t, ErrorCodeParse, resp.Error.Code)
	assert.Equal(t, "unexpected end of JSON input", resp.Error.Message)
	assert.Nil(t, resp.Error.Details)
	assert.Empty(t, resp.TraceID)

	withDetails := NewErrorResponseWithDetails(ErrorCodeValidation, "bad", map[string]string{"text": "required"})
	assert.Equal(t, "required", withDetails.Error.Details["text"])

	assert.Equal(t, "abc", withDetails.WithTraceID("abc").TraceID)
}

func TestHTTPStatusFromCode(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{ErrorCodeNotFound, http.StatusNotFound},
		{ErrorCodeValidation, http.StatusBadRequest},
		{ErrorCodeFormat, http.StatusBadRequest},
		{ErrorCodeParse, http.StatusBadRequest},
		{ErrorCodeBadRequest, http.StatusBadRequest},
		{ErrorCodeUpstream, http.StatusBadGateway},
		{ErrorCodeUnavailable, http.StatusServiceUnavailable},
		{ErrorCodeTimeout, http.StatusGatewayTimeout},
		{ErrorCodeInternal, http.StatusInternalServerError},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusFromCode(tt.code))
		})
	}
}

func TestTraceIDFromContext(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)

	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)

	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", TraceIDFromContext(ctx))
}

func TestCursorRoundTrip(t *testing.T) {
	decoded, err := DecodeCursor(EncodeCursor(Cursor{Offset: 7, Total: 12}))
	require.NoError(t, err)
	assert.Equal(t, Cursor{Offset: 7, Total: 12}, decoded)

	_, err = DecodeCursor("!!not-base64!!")
	require.ErrorIs(t, err, ErrInvalidCursor)
}

func TestPageSize(t *testing.T) {
	assert.Equal(t, DefaultLimit, (&PaginationRequest{}).PageSize())
	assert.Equal(t, 5, (&PaginationRequest{Limit: 5}).PageSize())
	assert.Equal(t, MaxLimit, (&PaginationRequest{Limit: 500}).PageSize())
}

func numberedQuotes(n int) []domain.Quote {
	quotes := make([]domain.Quote, n)
	for i := range quotes {
		quotes[i] = domain.Quote{Text: strings.Repeat("q", i+1), Category: "C"}
	}

	return quotes
}

func TestPageQuotes(t *testing.T) {
	quotes := numberedQuotes(5)

	first, err := PageQuotes(quotes, &PaginationRequest{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.Equal(t, "q", first.Items[0].Text)
	assert.True(t, first.HasMore)
	require.NotEmpty(t, first.NextCursor)

	second, err := PageQuotes(quotes, &PaginationRequest{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	assert.Equal(t, "qqq", second.Items[0].Text)
	assert.True(t, second.HasMore)

	last, err := PageQuotes(quotes, &PaginationRequest{Limit: 2, Cursor: second.NextCursor})
	require.NoError(t, err)
	require.Len(t, last.Items, 1)
	assert.Equal(t, "qqqqq", last.Items[0].Text)
	assert.False(t, last.HasMore)
	assert.Empty(t, last.NextCursor)
}

func TestPageQuotes_ExactFit(t *testing.T) {
	page, err := PageQuotes(numberedQuotes(2), &PaginationRequest{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.False(t, page.HasMore)
}

func TestPageQuotes_Empty(t *testing.T) {
	page, err := PageQuotes(nil, &PaginationRequest{})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.False(t, page.HasMore)
}

func TestPageQuotes_InvalidCursor(t *testing.T) {
	quotes := numberedQuotes(3)

	tests := []struct {
		name   string
		cursor string
	}{
		{name: "garbage", cursor: "%%%"},
		{name: "not json", cursor: base64.RawURLEncoding.EncodeToString([]byte("position:1"))},
		{name: "zero offset", cursor: EncodeCursor(Cursor{Offset: 0, Total: 3})},
		{name: "negative", cursor: EncodeCursor(Cursor{Offset: -1, Total: 3})},
		{name: "out of range", cursor: EncodeCursor(Cursor{Offset: 3, Total: 3})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PageQuotes(quotes, &PaginationRequest{Cursor: tt.cursor})
			require.ErrorIs(t, err, ErrInvalidCursor)
		})
	}
}

func TestPageQuotes_StaleCursor(t *testing.T) {
	first, err := PageQuotes(numberedQuotes(5), &PaginationRequest{Limit: 2})
	require.NoError(t, err)

	// A sync shrank the collection between pages.
	_, err = PageQuotes(numberedQuotes(3), &PaginationRequest{Limit: 2, Cursor: first.NextCursor})
	require.ErrorIs(t, err, ErrStaleCursor)
}

func TestFromSelection(t *testing.T) {
	found := FromSelection(app.Selection{
		Quote:  domain.Quote{Text: "t", Category: "Life"},
		Found:  true,
		Filter: "Life",
	})

	require.NotNil(t, found.Quote)
	assert.Equal(t, "t", found.Quote.Text)
	assert.Equal(t, "\"t\" — Life", found.Display)

	missing := FromSelection(app.Selection{Filter: "Life"})

	assert.Nil(t, missing.Quote)
	assert.False(t, missing.Found)
	assert.Equal(t, domain.NoQuotesMessage, missing.Display)
}

func TestFromSyncOutcome(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	resp := FromSyncOutcome(domain.SyncOutcome{
		Replaced:  true,
		Previous:  4,
		Current:   100,
		Discarded: 4,
		Notification: &domain.Notification{
			ID:        "01J0000000000000000000000A",
			Message:   domain.SyncUpdatedMessage,
			Action:    domain.ActionRedisplay,
			CreatedAt: created,
		},
	})

	assert.True(t, resp.Replaced)
	assert.Equal(t, 4, resp.Discarded)
	require.NotNil(t, resp.Notification)
	assert.Equal(t, "redisplay", resp.Notification.Action)
	assert.Equal(t, created, resp.Notification.CreatedAt)

	assert.Nil(t, FromSyncOutcome(domain.SyncOutcome{Skipped: true}).Notification)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(&SetFilterRequest{Category: "Life"}))

	err := Validate(&SetFilterRequest{Category: "   "})
	require.ErrorIs(t, err, ErrValidation)
	assert.True(t, IsValidationError(err))
	assert.Equal(t, map[string]string{"category": "must not be empty"}, ValidationErrors(err))

	err = Validate(&PaginationRequest{Limit: 101})
	require.Error(t, err)
	assert.Equal(t, "must be less than or equal to 100", ValidationErrors(err)["limit"])
}

func TestBindAndValidate(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantErr  error
		category string
	}{
		{name: "valid", body: `{"category":"Life"}`, category: "Life"},
		{name: "malformed json", body: `{"category":`, wantErr: ErrBinding},
		{name: "empty category", body: `{"category":""}`, wantErr: ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodPut, "/api/v1/filter", strings.NewReader(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var req SetFilterRequest

			err := BindAndValidate(c, &req)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.category, req.Category)
		})
	}
}

func TestBindQueryAndValidate(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/quotes?limit=3&cursor=abc", nil)

	var req PaginationRequest
	require.NoError(t, BindQueryAndValidate(c, &req))
	assert.Equal(t, 3, req.Limit)
	assert.Equal(t, "abc", req.Cursor)

	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/quotes?limit=zero", nil)
	require.ErrorIs(t, BindQueryAndValidate(c, &PaginationRequest{}), ErrBinding)
}

func TestValidationErrors_Messages(t *testing.T) {
	type probe struct {
		Name  string `json:"name" validate:"max=3"`
		Count int    `form:"count" validate:"min=1"`
		Mode  string `json:"mode" validate:"oneof=a b"`
	}

	err := Validate(&probe{Name: "abcd", Mode: "c"})
	require.Error(t, err)

	assert.Equal(t, map[string]string{
		"name":  "must be at most 3 characters",
		"count": "must be at least 1",
		"mode":  "must be one of: a b",
	}, ValidationErrors(err))

	assert.Empty(t, ValidationErrors(errors.New("plain")))
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
		wantDetails map[string]string
	}{
		{
			name:        "validation",
			err:         domain.NewValidationErrorWithValue("text", domain.MissingFieldsMessage, ""),
			wantStatus:  http.StatusBadRequest,
			wantCode:    ErrorCodeValidation,
			wantMessage: domain.MissingFieldsMessage,
			wantDetails: map[string]string{"text": domain.MissingFieldsMessage},
		},
		{
			name:        "parse with offset",
			err:         domain.NewParseError(11, "invalid character 'x'"),
			wantStatus:  http.StatusBadRequest,
			wantCode:    ErrorCodeParse,
			wantMessage: "invalid JSON at offset 11: invalid character 'x'",
			wantDetails: map[string]string{"offset": "11"},
		},
		{
			name:        "parse without offset",
			err:         domain.NewParseError(-1, "unexpected end"),
			wantStatus:  http.StatusBadRequest,
			wantCode:    ErrorCodeParse,
			wantMessage: "invalid JSON: unexpected end",
		},
		{
			name:        "format",
			err:         domain.NewFormatError("expected a JSON array, got an object"),
			wantStatus:  http.StatusBadRequest,
			wantCode:    ErrorCodeFormat,
			wantMessage: "invalid import format: expected a JSON array, got an object",
		},
		{
			name:       "not found",
			err:        domain.NewNotFoundError("notification", "01J"),
			wantStatus: http.StatusNotFound,
			wantCode:   ErrorCodeNotFound,
		},
		{
			name:       "network",
			err:        domain.NewNetworkError("remote-quotes", "fetch quotes", "status 500"),
			wantStatus: http.StatusBadGateway,
			wantCode:   ErrorCodeUpstream,
		},
		{
			name:       "wrapped unavailable",
			err:        fmt.Errorf("writing quotes: %w", domain.NewUnavailableError("sqlite", "store closed")),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   ErrorCodeUnavailable,
		},
		{
			name:        "unknown",
			err:         errors.New("disk on fire"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    ErrorCodeInternal,
			wantMessage: "an internal error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := MapDomainError(tt.err)

			assert.Equal(t, tt.wantStatus, status)
			require.NotNil(t, resp)
			assert.Equal(t, tt.wantCode, resp.Error.Code)

			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, resp.Error.Message)
			}

			assert.Equal(t, tt.wantDetails, resp.Error.Details)
		})
	}

	status, resp := MapDomainError(nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Nil(t, resp)
}

func TestHandleError(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/quotes/last", nil)

	HandleError(c, domain.NewNotFoundError("last quote", ""))

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ErrorCodeNotFound, resp.Error.Code)
}

func TestHandleBindError(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPut, "/api/v1/filter", nil)

	HandleBindError(c, Validate(&SetFilterRequest{}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"category":"must not be empty"`)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPut, "/api/v1/filter", nil)

	HandleBindError(c, fmt.Errorf("%w: EOF", ErrBinding))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), ErrorCodeBadRequest)
}
