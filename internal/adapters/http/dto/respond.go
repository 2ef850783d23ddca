package dto

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
)

// internalMessage replaces the text of unmapped errors in responses.
const internalMessage = "an internal error occurred"

// MapDomainError maps a domain error to an HTTP status code and error response.
// Unknown errors are mapped to 500 with a generic message.
func MapDomainError(err error) (int, *ErrorResponse) {
	if err == nil {
		return http.StatusOK, nil
	}

	var (
		validationErr *domain.ValidationError
		parseErr      *domain.ParseError
	)

	switch {
	case errors.As(err, &validationErr):
		resp := NewErrorResponse(ErrorCodeValidation, validationErr.Message)
		if validationErr.Field != "" {
			resp.Error.Details = map[string]string{validationErr.Field: validationErr.Message}
		}

		return http.StatusBadRequest, resp

	case errors.As(err, &parseErr):
		resp := NewErrorResponse(ErrorCodeParse, err.Error())
		if parseErr.Offset >= 0 {
			resp.Error.Details = map[string]string{"offset": strconv.FormatInt(parseErr.Offset, 10)}
		}

		return http.StatusBadRequest, resp

	case domain.IsFormat(err):
		return http.StatusBadRequest, NewErrorResponse(ErrorCodeFormat, err.Error())

	case domain.IsNotFound(err):
		return http.StatusNotFound, NewErrorResponse(ErrorCodeNotFound, err.Error())

	case domain.IsNetwork(err):
		return http.StatusBadGateway, NewErrorResponse(ErrorCodeUpstream, err.Error())

	case domain.IsUnavailable(err):
		return http.StatusServiceUnavailable, NewErrorResponse(ErrorCodeUnavailable, err.Error())

	default:
		return http.StatusInternalServerError, NewErrorResponse(ErrorCodeInternal, internalMessage)
	}
}

// HandleError writes the mapped error response, tagged with the trace ID.
// Internal errors are logged with their full text since the client only
// sees the generic message.
func HandleError(c *gin.Context, err error) {
	ctx := c.Request.Context()
	status, resp := MapDomainError(err)
	resp.TraceID = TraceIDFromContext(ctx)

	if status == http.StatusInternalServerError {
		logging.FromContext(ctx).ErrorContext(ctx, "internal error",
			slog.Any("error", err),
			slog.String("trace_id", resp.TraceID),
		)
	}

	c.JSON(status, resp)
}

// HandleBindError reports a failed BindAndValidate or BindQueryAndValidate.
// Validator failures carry field details; binding failures are BAD_REQUEST.
func HandleBindError(c *gin.Context, err error) {
	if IsValidationError(err) {
		RespondWithValidationErrors(c, ValidationErrors(err))
		return
	}

	RespondWithErrorCode(c, ErrorCodeBadRequest, err.Error())
}

// RespondWithErrorCode writes an error response for adapter-level failures
// that do not originate in the domain.
func RespondWithErrorCode(c *gin.Context, code, message string) {
	resp := NewErrorResponse(code, message).WithTraceID(TraceIDFromContext(c.Request.Context()))
	c.JSON(HTTPStatusFromCode(code), resp)
}

// RespondWithValidationErrors writes a 400 with field-level validation errors.
func RespondWithValidationErrors(c *gin.Context, fieldErrors map[string]string) {
	resp := NewErrorResponseWithDetails(ErrorCodeValidation, "request validation failed", fieldErrors).
		WithTraceID(TraceIDFromContext(c.Request.Context()))
	c.JSON(http.StatusBadRequest, resp)
}
