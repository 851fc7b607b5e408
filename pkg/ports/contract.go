package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunCacheContract verifies that a Cache implementation satisfies the interface contract.
// advance must move the implementation's notion of time forward by d.
func RunCacheContract(t *testing.T, cache Cache, advance func(d time.Duration)) {
	t.Helper()
	ctx := context.Background()
	prefix := "contract-" + time.Now().Format("20060102150405") + ":"

	t.Run("Set and Get", func(t *testing.T) {
		err := cache.Set(ctx, prefix+"a", []byte(`{"id":"089458082"}`), time.Minute)
		require.NoError(t, err, "Set should not return error")

		got, err := cache.Get(ctx, prefix+"a")
		require.NoError(t, err, "Get should not return error")
		assert.Equal(t, `{"id":"089458082"}`, string(got))
	})

	t.Run("Get Missing", func(t *testing.T) {
		_, err := cache.Get(ctx, prefix+"missing")
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, prefix+"b", []byte("one"), time.Minute))
		require.NoError(t, cache.Set(ctx, prefix+"b", []byte("two"), time.Minute))

		got, err := cache.Get(ctx, prefix+"b")
		require.NoError(t, err)
		assert.Equal(t, "two", string(got))
	})

	t.Run("Expiry", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, prefix+"short", []byte("x"), time.Second))
		require.NoError(t, cache.Set(ctx, prefix+"forever", []byte("y"), 0))

		advance(2 * time.Second)

		_, err := cache.Get(ctx, prefix+"short")
		assert.ErrorIs(t, err, ErrCacheMiss, "expired entry should be a miss")

		got, err := cache.Get(ctx, prefix+"forever")
		require.NoError(t, err, "entry without ttl should survive")
		assert.Equal(t, "y", string(got))
	})
}
