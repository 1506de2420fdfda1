package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// ChartCache implements usecase.ChartCache in process memory. Each account
// has a generation number in its keys; Invalidate bumps it so older
// entries are never read again and expire on their own.
type ChartCache struct {
	mu    sync.Mutex
	items *cache.Cache
}

// NewChartCache creates a ChartCache that purges expired charts every cleanup interval.
func NewChartCache(defaultTTL, cleanup time.Duration) *ChartCache {
	return &ChartCache{items: cache.New(defaultTTL, cleanup)}
}

func generationKey(factoryID string) string {
	return "gen:" + factoryID
}

// Generation returns the current generation of factoryID's charts.
func (c *ChartCache) Generation(_ context.Context, factoryID string) (int64, error) {
	if v, ok := c.items.Get(generationKey(factoryID)); ok {
		if gen, ok := v.(int64); ok {
			return gen, nil
		}
	}
	return 0, nil
}

func chartKey(factoryID string, generation int64, key string) string {
	return fmt.Sprintf("chart:%s:%d:%s", factoryID, generation, key)
}

// Get returns a chart cached under generation.
func (c *ChartCache) Get(_ context.Context, factoryID string, generation int64, key string) ([]byte, bool, error) {
	v, ok := c.items.Get(chartKey(factoryID, generation, key))
	if !ok {
		return nil, false, nil
	}
	data, ok := v.([]byte)
	return data, ok, nil
}

// Set caches a chart under generation for ttl.
func (c *ChartCache) Set(_ context.Context, factoryID string, generation int64, key string, value []byte, ttl time.Duration) error {
	c.items.Set(chartKey(factoryID, generation, key), value, ttl)
	return nil
}

// Invalidate drops every chart cached for factoryID.
func (c *ChartCache) Invalidate(_ context.Context, factoryID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	genKey := generationKey(factoryID)
	if _, err := c.items.IncrementInt64(genKey, 1); err != nil {
		c.items.Set(genKey, int64(1), cache.NoExpiration)
	}
	return nil
}
