// Package domain contains business logic types and errors.
// Domain errors describe quote-level failures, not transport ones.
// Adapters map them to HTTP statuses, CLI exit messages or MCP error results.
package domain

import (
	"errors"
	"fmt"
)

// MissingFieldsMessage is reported when an added quote lacks text or category.
const MissingFieldsMessage = "Please enter both a quote and a category."

// Sentinel errors for use with errors.Is().
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates user input was rejected.
	ErrValidation = errors.New("validation failed")

	// ErrNetwork indicates the remote quote source could not be reached
	// or answered with a non-success status.
	ErrNetwork = errors.New("network error")

	// ErrFormat indicates an import document has the wrong shape.
	ErrFormat = errors.New("format error")

	// ErrParse indicates an import document is not valid JSON.
	ErrParse = errors.New("parse error")

	// ErrUnavailable indicates a required local dependency is unavailable.
	ErrUnavailable = errors.New("unavailable")
)

// NotFoundError provides context for not found errors.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
	}

	return e.Entity + " not found"
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a not found error with context.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ValidationError provides context for validation errors.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}

	return "validation failed: " + e.Message
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a validation error with context.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewValidationErrorWithValue creates a validation error including the invalid value.
func NewValidationErrorWithValue(field, message string, value any) error {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// NetworkError reports a failed exchange with the remote quote source.
type NetworkError struct {
	Service   string
	Operation string
	Reason    string
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("%s: %s failed: %s", e.Service, e.Operation, e.Reason)
	}

	return fmt.Sprintf("%s: %s", e.Service, e.Reason)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *NetworkError) Unwrap() error {
	return ErrNetwork
}

// NewNetworkError creates a network error with context.
func NewNetworkError(service, operation, reason string) error {
	return &NetworkError{Service: service, Operation: operation, Reason: reason}
}

// FormatError reports an import document that is not a JSON array of objects.
type FormatError struct {
	Reason string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	return "invalid import format: " + e.Reason
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *FormatError) Unwrap() error {
	return ErrFormat
}

// NewFormatError creates a format error.
func NewFormatError(reason string) error {
	return &FormatError{Reason: reason}
}

// ParseError reports malformed JSON. Offset is -1 when unknown.
type ParseError struct {
	Offset int64
	Reason string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("invalid JSON at offset %d: %s", e.Offset, e.Reason)
	}

	return "invalid JSON: " + e.Reason
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ParseError) Unwrap() error {
	return ErrParse
}

// NewParseError creates a parse error.
func NewParseError(offset int64, reason string) error {
	return &ParseError{Offset: offset, Reason: reason}
}

// UnavailableError provides context for unavailable errors.
type UnavailableError struct {
	Service string
	Reason  string
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("service %q unavailable: %s", e.Service, e.Reason)
	}

	return fmt.Sprintf("service %q unavailable", e.Service)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *UnavailableError) Unwrap() error {
	return ErrUnavailable
}

// NewUnavailableError creates an unavailable error with context.
func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNetwork checks if an error is a network error.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// IsFormat checks if an error is a format error.
func IsFormat(err error) bool {
	return errors.Is(err, ErrFormat)
}

// IsParse checks if an error is a parse error.
func IsParse(err error) bool {
	return errors.Is(err, ErrParse)
}

// IsUnavailable checks if an error is an unavailable error.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
