package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ChartCache implements usecase.ChartCache using Redis. Keys carry a
// per-account generation counter; Invalidate increments it so stale charts
// are skipped and left to expire.
type ChartCache struct {
	client *redis.Client
	prefix string
}

// NewChartCache creates a new ChartCache.
func NewChartCache(client *redis.Client) *ChartCache {
	return &ChartCache{
		client: client,
		prefix: "chart:",
	}
}

func (c *ChartCache) generationKey(factoryID string) string {
	return c.prefix + "gen:" + factoryID
}

// Generation returns the current generation of factoryID's charts.
func (c *ChartCache) Generation(ctx context.Context, factoryID string) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey(factoryID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, err
	}
	return gen, nil
}

func (c *ChartCache) key(factoryID string, generation int64, key string) string {
	return fmt.Sprintf("%s%s:%d:%s", c.prefix, factoryID, generation, key)
}

// Get retrieves a chart cached under generation.
func (c *ChartCache) Get(ctx context.Context, factoryID string, generation int64, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.key(factoryID, generation, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores a chart under generation with TTL. A chart built before an
// invalidation lands under the old generation and is never read.
func (c *ChartCache) Set(ctx context.Context, factoryID string, generation int64, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, c.key(factoryID, generation, key), value, ttl).Err()
}

// Invalidate drops every chart cached for factoryID.
func (c *ChartCache) Invalidate(ctx context.Context, factoryID string) error {
	return c.client.Incr(ctx, c.generationKey(factoryID)).Err()
}
