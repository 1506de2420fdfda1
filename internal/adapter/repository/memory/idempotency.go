package memory

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

const pendingMarker = "processing"

// IdempotencyStore implements usecase.IdempotencyStore in process memory.
type IdempotencyStore struct {
	items *cache.Cache
}

// NewIdempotencyStore creates a new IdempotencyStore.
func NewIdempotencyStore(cleanup time.Duration) *IdempotencyStore {
	return &IdempotencyStore{items: cache.New(cache.NoExpiration, cleanup)}
}

// CheckAndSet claims key, or reports the value stored by an earlier claim.
func (s *IdempotencyStore) CheckAndSet(_ context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	value := []byte(pendingMarker)
	if response != nil {
		value = response
	}
	if err := s.items.Add(key, value, ttl); err == nil {
		return false, nil, nil
	}
	if existing, ok := s.items.Get(key); ok {
		return true, existing.([]byte), nil
	}
	return false, nil, nil
}

// Update stores the final response for key.
func (s *IdempotencyStore) Update(_ context.Context, key string, response []byte, ttl time.Duration) error {
	s.items.Set(key, response, ttl)
	return nil
}

// Release drops a claim.
func (s *IdempotencyStore) Release(_ context.Context, key string) error {
	s.items.Delete(key)
	return nil
}
