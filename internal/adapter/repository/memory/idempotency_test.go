package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyStore_ClaimUpdateRelease(t *testing.T) {
	store := NewIdempotencyStore(time.Minute)
	ctx := context.Background()

	exists, _, err := store.CheckAndSet(ctx, "POST /accounts k1", nil, time.Minute)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, value, err := store.CheckAndSet(ctx, "POST /accounts k1", nil, time.Minute)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "processing", string(value))

	require.NoError(t, store.Update(ctx, "POST /accounts k1", []byte(`{"id":"a"}`), time.Minute))
	_, value, err = store.CheckAndSet(ctx, "POST /accounts k1", nil, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"a"}`, string(value))

	require.NoError(t, store.Release(ctx, "POST /accounts k1"))
	exists, _, err = store.CheckAndSet(ctx, "POST /accounts k1", nil, time.Minute)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestIdempotencyStore_ClaimExpires(t *testing.T) {
	store := NewIdempotencyStore(time.Minute)
	ctx := context.Background()

	exists, _, err := store.CheckAndSet(ctx, "k", nil, 10*time.Millisecond)
	require.NoError(t, err)
	require.False(t, exists)

	time.Sleep(30 * time.Millisecond)

	exists, _, err = store.CheckAndSet(ctx, "k", nil, time.Minute)
	require.NoError(t, err)
	assert.False(t, exists)
}
