package nonce

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signature-gateway/pkg/uniqid"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("second claim fails", func(t *testing.T) {
		store, err := NewMemoryStore(time.Minute)
		require.NoError(t, err)

		ok, err := store.Claim(ctx, "c:n1", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.Claim(ctx, "c:n1", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = store.Claim(ctx, "c:n2", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("concurrent claims admit one", func(t *testing.T) {
		store, err := NewMemoryStore(time.Minute)
		require.NoError(t, err)

		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if ok, _ := store.Claim(ctx, "c:same", time.Minute); ok {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), wins.Load())
	})

	t.Run("entry expires", func(t *testing.T) {
		store, err := NewMemoryStore(time.Second)
		require.NoError(t, err)

		ok, err := store.Claim(ctx, "c:short", time.Second)
		require.NoError(t, err)
		require.True(t, ok)

		assert.Eventually(t, func() bool {
			ok, _ := store.Claim(ctx, "c:short", time.Second)
			return ok
		}, 5*time.Second, 100*time.Millisecond)
	})
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	store, err := NewRedisStore(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0, "test:nonce:")
	require.NoError(t, err)
	defer store.Close()

	key, err := uniqid.Generate(16)
	require.NoError(t, err)

	ok, err := store.Claim(ctx, key, 2*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Claim(ctx, key, 2*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Contains(t, store.Stats(), "total_conns")
}
