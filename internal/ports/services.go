// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter for cancellation and deadlines
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (ErrNotFound, ErrNetwork, etc.)
package ports

import (
	"context"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

// Durable storage keys.
const (
	// KeyQuotes holds the JSON-encoded quote collection.
	KeyQuotes = "quotes"

	// KeyLastSelectedCategory holds the persisted filter choice.
	KeyLastSelectedCategory = "lastSelectedCategory"

	// KeyLastQuote holds the JSON-encoded last shown quote in the session cache.
	KeyLastQuote = "lastQuote"
)

// KeyValueStore is durable string-valued storage that survives restarts.
type KeyValueStore interface {
	// Get returns the value stored under key.
	// Returns domain.ErrNotFound if the key has never been set.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Cache defines the contract for ephemeral, per-session storage.
// Nothing stored here outlives the process.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns domain.ErrNotFound if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with optional TTL.
	// A TTL of 0 means no expiration.
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error

	// Delete removes a value from the cache.
	// Does not return an error if the key does not exist.
	Delete(ctx context.Context, key string) error
}

// RemoteQuoteSource is the remote endpoint the collection is reconciled with.
type RemoteQuoteSource interface {
	// FetchQuotes returns the remote record set mapped to quotes, in remote order.
	// Returns domain.ErrNetwork on transport failure or a non-2xx status.
	FetchQuotes(ctx context.Context) ([]domain.Quote, error)

	// PublishQuote sends a newly added quote to the remote.
	// Returns domain.ErrNetwork on failure.
	PublishQuote(ctx context.Context, quote domain.Quote) error
}
