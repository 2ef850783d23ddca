// Package cache provides the process-lifetime session cache.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory implements ports.Cache in memory. Its contents die with the process,
// which is what gives "session" semantics to the values stored in it.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemory creates an empty session cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns a copy of the value stored under key.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || m.expired(e) {
		return nil, domain.NewNotFoundError("cache key", key)
	}

	return append([]byte(nil), e.value...), nil
}

// Set stores a copy of value. ttlSeconds of 0 means no expiration.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttlSeconds int) error {
	e := entry{value: append([]byte(nil), value...)}
	if ttlSeconds > 0 {
		e.expiresAt = m.now().Add(time.Duration(ttlSeconds) * time.Second)
	}

	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()

	return nil
}

// Delete removes key.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()

	return nil
}

func (m *Memory) expired(e entry) bool {
	return !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt)
}
