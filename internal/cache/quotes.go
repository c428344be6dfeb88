// Package cache provides a short-TTL redis cache for the current quote,
// sitting in front of the market-data provider. Redis errors degrade to
// cache misses; the cache is never load-bearing.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const defaultQuoteTTL = 60 * time.Second

// QuoteCache caches the current price for one symbol.
type QuoteCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewQuoteCache creates a quote cache for the given symbol.
func NewQuoteCache(client *redis.Client, symbol string, ttl time.Duration) *QuoteCache {
	if ttl <= 0 {
		ttl = defaultQuoteTTL
	}
	return &QuoteCache{
		client: client,
		key:    fmt.Sprintf("quote:%s", symbol),
		ttl:    ttl,
	}
}

// Get returns the cached price, or false on a miss or any redis error.
func (c *QuoteCache) Get(ctx context.Context) (decimal.Decimal, bool) {
	value, err := c.client.Get(ctx, c.key).Result()
	if err != nil {
		return decimal.Zero, false
	}
	price, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, false
	}
	return price, true
}

// Set stores the price with the configured TTL, best-effort.
func (c *QuoteCache) Set(ctx context.Context, price decimal.Decimal) error {
	return c.client.Set(ctx, c.key, price.String(), c.ttl).Err()
}
