package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*QuoteCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewQuoteCache(client, "CRWV", ttl), mr
}

func TestQuoteCache(t *testing.T) {
	ctx := context.Background()

	t.Run("set then get round-trips the price", func(t *testing.T) {
		c, _ := newTestCache(t, time.Minute)

		require.NoError(t, c.Set(ctx, decimal.NewFromFloat(101.25)))

		price, ok := c.Get(ctx)
		require.True(t, ok)
		assert.Equal(t, "101.25", price.String())
	})

	t.Run("empty cache is a miss", func(t *testing.T) {
		c, _ := newTestCache(t, time.Minute)

		_, ok := c.Get(ctx)
		assert.False(t, ok)
	})

	t.Run("expired entry is a miss", func(t *testing.T) {
		c, mr := newTestCache(t, time.Minute)

		require.NoError(t, c.Set(ctx, decimal.NewFromFloat(101.25)))
		mr.FastForward(2 * time.Minute)

		_, ok := c.Get(ctx)
		assert.False(t, ok)
	})

	t.Run("redis error degrades to a miss", func(t *testing.T) {
		c, mr := newTestCache(t, time.Minute)
		mr.Close()

		_, ok := c.Get(ctx)
		assert.False(t, ok)
		assert.Error(t, c.Set(ctx, decimal.NewFromFloat(101.25)))
	})

	t.Run("unparsable value is a miss", func(t *testing.T) {
		c, mr := newTestCache(t, time.Minute)
		mr.Set("quote:CRWV", "not-a-price")

		_, ok := c.Get(ctx)
		assert.False(t, ok)
	})
}
