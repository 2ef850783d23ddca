package acl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/clients"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

// maxErrorBody bounds how much of an error response is read for context.
const maxErrorBody = 4 << 10

// ErrorResponse is the error body shape external services commonly return.
// It accepts both nested (error.message) and flat (message) forms.
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorDetail is the nested form of ErrorResponse.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GetMessage returns the message from either the nested or the flat form.
func (e *ErrorResponse) GetMessage() string {
	if e.Error.Message != "" {
		return e.Error.Message
	}

	return e.Message
}

// ParseErrorResponse decodes an error body.
// Returns nil if the body is empty, not JSON or carries no message.
func ParseErrorResponse(body io.Reader) *ErrorResponse {
	if body == nil {
		return nil
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(io.LimitReader(body, maxErrorBody)).Decode(&errResp); err != nil {
		return nil
	}

	if errResp.GetMessage() == "" {
		return nil
	}

	return &errResp
}

// MapHTTPError translates a failed exchange with the remote to a domain
// NetworkError. Every failure is recoverable: the caller logs it and the next
// sync tick tries again.
//
//   - clientErr set: transport failure, open circuit or exhausted retries
//   - resp non-2xx: the status code, plus the body message if one is present
func MapHTTPError(resp *http.Response, clientErr error, serviceName, operation string) error {
	if clientErr != nil {
		return domain.NewNetworkError(serviceName, operation, clientErrorReason(clientErr))
	}

	if resp == nil {
		return domain.NewNetworkError(serviceName, operation, "no response received")
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	reason := fmt.Sprintf("status %d", resp.StatusCode)
	if errResp := ParseErrorResponse(resp.Body); errResp != nil {
		reason = fmt.Sprintf("%s: %s", reason, errResp.GetMessage())
	}

	return domain.NewNetworkError(serviceName, operation, reason)
}

func clientErrorReason(err error) string {
	switch {
	case errors.Is(err, clients.ErrCircuitOpen):
		return "circuit breaker open"
	case errors.Is(err, clients.ErrMaxRetriesExceeded):
		return "retries exhausted: " + strings.TrimPrefix(err.Error(), clients.ErrMaxRetriesExceeded.Error()+": ")
	default:
		return err.Error()
	}
}
