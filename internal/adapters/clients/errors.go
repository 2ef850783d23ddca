// Package clients provides the instrumented HTTP client used by remote adapters.
package clients

import "errors"

// Transport-level failures. Adapters translate these to domain errors.
var (
	// ErrCircuitOpen is returned without contacting the downstream while the
	// circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last failure once every attempt failed.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)
