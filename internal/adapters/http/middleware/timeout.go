package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
)

// SimpleTimeout returns middleware that sets a request deadline. Handlers
// pass the context down, so store writes and remote calls observe it.
//
// If the deadline passed and the handler wrote nothing, a TIMEOUT envelope is
// written. The handler is never abandoned mid-flight: gin's context is not
// safe to share with a goroutine that outlives the request.
func SimpleTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if c.Writer.Written() || !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return
		}

		logging.FromContext(ctx).WarnContext(ctx, "request timeout",
			slog.String("path", c.Request.URL.Path),
			slog.String("method", c.Request.Method),
			slog.Duration("timeout", timeout),
		)

		c.AbortWithStatusJSON(dto.HTTPStatusFromCode(dto.ErrorCodeTimeout),
			dto.NewErrorResponse(dto.ErrorCodeTimeout, "request timeout exceeded").
				WithTraceID(dto.TraceIDFromContext(ctx)))
	}
}
