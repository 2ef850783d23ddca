package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

func TestMemory_GetMissing(t *testing.T) {
	_, err := NewMemory().Get(context.Background(), "lastQuote")
	assert.True(t, domain.IsNotFound(err))
}

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	value := []byte(`{"text":"a","category":"b"}`)
	require.NoError(t, c.Set(ctx, "lastQuote", value, 0))

	value[0] = 'X'

	got, err := c.Get(ctx, "lastQuote")
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"a","category":"b"}`, string(got), "stored value is a copy")

	require.NoError(t, c.Delete(ctx, "lastQuote"))

	_, err = c.Get(ctx, "lastQuote")
	assert.True(t, domain.IsNotFound(err))
}

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	c := NewMemory()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 10))

	now = now.Add(9 * time.Second)
	_, err := c.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(time.Second)
	_, err = c.Get(ctx, "k")
	assert.True(t, domain.IsNotFound(err))
}
