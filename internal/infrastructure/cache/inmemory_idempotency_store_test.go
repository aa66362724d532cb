package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fixflow/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_Begin(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("claims a new key", func(t *testing.T) {
		resp, err := store.Begin(ctx, "key-1", time.Minute)
		require.NoError(t, err)
		assert.Nil(t, resp)
	})

	t.Run("reports a running key as in flight", func(t *testing.T) {
		_, err := store.Begin(ctx, "key-2", time.Minute)
		require.NoError(t, err)

		_, err = store.Begin(ctx, "key-2", time.Minute)
		assert.ErrorIs(t, err, ErrInFlight)
	})

	t.Run("returns the stored response of a completed key", func(t *testing.T) {
		_, err := store.Begin(ctx, "key-3", time.Minute)
		require.NoError(t, err)
		require.NoError(t, store.Complete(ctx, "key-3", StoredResponse{
			Status:      201,
			ContentType: "application/json",
			Body:        []byte(`{"success":true}`),
		}, time.Hour))

		resp, err := store.Begin(ctx, "key-3", time.Minute)
		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, 201, resp.Status)
		assert.Equal(t, "application/json", resp.ContentType)
		assert.JSONEq(t, `{"success":true}`, string(resp.Body))
	})

	t.Run("reclaims a key whose lock expired", func(t *testing.T) {
		_, err := store.Begin(ctx, "key-4", 10*time.Millisecond)
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)

		resp, err := store.Begin(ctx, "key-4", time.Minute)
		require.NoError(t, err)
		assert.Nil(t, resp)
	})
}

func TestInMemoryIdempotencyStore_Release(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("frees a running key", func(t *testing.T) {
		_, err := store.Begin(ctx, "released", time.Minute)
		require.NoError(t, err)
		require.NoError(t, store.Release(ctx, "released"))

		resp, err := store.Begin(ctx, "released", time.Minute)
		require.NoError(t, err)
		assert.Nil(t, resp)
	})

	t.Run("keeps a completed key", func(t *testing.T) {
		_, err := store.Begin(ctx, "completed", time.Minute)
		require.NoError(t, err)
		require.NoError(t, store.Complete(ctx, "completed", StoredResponse{Status: 200}, time.Hour))
		require.NoError(t, store.Release(ctx, "completed"))

		resp, err := store.Begin(ctx, "completed", time.Minute)
		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, 200, resp.Status)
	})
}

func TestInMemoryIdempotencyStore_Sweep(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }
	ctx := context.Background()

	_, err := store.Begin(ctx, "short", time.Second)
	require.NoError(t, err)
	_, err = store.Begin(ctx, "long", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Size())

	clock = clock.Add(2 * time.Second)
	assert.Equal(t, 1, store.Size(), "expired claims stop counting at once")
	assert.Len(t, store.claims, 2, "but are only swept once the interval passed")

	clock = clock.Add(sweepInterval)
	_, err = store.Begin(ctx, "other", time.Hour)
	require.NoError(t, err)
	assert.Len(t, store.claims, 2)
	assert.NotContains(t, store.claims, "short")
}

func TestInMemoryIdempotencyStore_ConcurrentBegin(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		owners  atomic.Int32
		waiting atomic.Int32
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := store.Begin(ctx, "shared", time.Minute)
			switch {
			case err == nil && resp == nil:
				owners.Add(1)
			case assert.ErrorIs(t, err, ErrInFlight):
				waiting.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), owners.Load())
	assert.Equal(t, int32(99), waiting.Load())
}

func TestStoredResponse_Replayable(t *testing.T) {
	assert.True(t, StoredResponse{Status: 201}.Replayable())
	assert.True(t, StoredResponse{Status: 409}.Replayable())
	assert.False(t, StoredResponse{Status: 500}.Replayable())
	assert.False(t, StoredResponse{}.Replayable())
}

func TestNewIdempotencyStore(t *testing.T) {
	t.Run("uses memory when redis is not configured", func(t *testing.T) {
		store, err := NewIdempotencyStore(context.Background(), config.RedisConfig{})
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	unreachable := config.RedisConfig{Host: "127.0.0.1", Port: 1}

	t.Run("falls back to memory when redis is unreachable", func(t *testing.T) {
		store, err := NewIdempotencyStore(context.Background(), unreachable)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("fails without fallback", func(t *testing.T) {
		_, err := NewIdempotencyStore(context.Background(), unreachable, WithInMemoryFallback(false))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis required")
	})
}
