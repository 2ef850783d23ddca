// Package middleware provides the gin middleware chain of the quote API.
package middleware

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
)

const (
	HeaderRequestID = "X-Request-ID"

	// HeaderCorrelationID spans every call made on behalf of one client
	// action, including the remote quote calls it triggers.
	HeaderCorrelationID = "X-Correlation-ID"
)

// idKind identifies one propagated ID. The value doubles as the request
// context key and the log attribute name.
type idKind string

const (
	requestID     idKind = "request_id"
	correlationID idKind = "correlation_id"
)

// RequestID echoes X-Request-ID, minting a UUID when the client sent none.
// The ID lands on the request context and the context logger.
func RequestID() gin.HandlerFunc {
	return propagateID(HeaderRequestID, requestID)
}

// CorrelationID does the same for X-Correlation-ID.
func CorrelationID() gin.HandlerFunc {
	return propagateID(HeaderCorrelationID, correlationID)
}

func propagateID(header string, kind idKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(header)
		if id == "" {
			id = uuid.NewString()
		}

		c.Header(header, id)

		ctx := context.WithValue(c.Request.Context(), kind, id)
		ctx = logging.With(ctx, slog.String(string(kind), id))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetRequestID returns the request ID of the request being served.
func GetRequestID(c *gin.Context) string {
	return RequestIDFromContext(c.Request.Context())
}

// RequestIDFromContext returns the ID stored by RequestID. Outbound remote
// calls forward it.
func RequestIDFromContext(ctx context.Context) string {
	return idFrom(ctx, requestID)
}

func CorrelationIDFromContext(ctx context.Context) string {
	return idFrom(ctx, correlationID)
}

// ContextWithRequestID stores id as the request ID of ctx.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestID, id)
}

func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationID, id)
}

func idFrom(ctx context.Context, kind idKind) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(kind).(string)

	return id
}
