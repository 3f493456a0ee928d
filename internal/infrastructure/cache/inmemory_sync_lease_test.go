package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemorySyncLease_Acquire(t *testing.T) {
	l := NewInMemorySyncLease()
	defer l.Close()

	ctx := context.Background()

	t.Run("acquires a free key", func(t *testing.T) {
		token, err := l.Acquire(ctx, "listing-1", time.Hour)
		require.NoError(t, err)
		assert.NotEmpty(t, token)
	})

	t.Run("rejects a held key", func(t *testing.T) {
		token, err := l.Acquire(ctx, "listing-2", time.Hour)
		require.NoError(t, err)
		assert.NotEmpty(t, token)

		token, err = l.Acquire(ctx, "listing-2", time.Hour)
		require.NoError(t, err)
		assert.Empty(t, token, "held key should not be acquirable")
	})

	t.Run("allows re-acquiring after expiry", func(t *testing.T) {
		token, err := l.Acquire(ctx, "listing-3", 10*time.Millisecond)
		require.NoError(t, err)
		assert.NotEmpty(t, token)

		time.Sleep(20 * time.Millisecond)

		token, err = l.Acquire(ctx, "listing-3", time.Hour)
		require.NoError(t, err)
		assert.NotEmpty(t, token, "expired hold should be reacquirable")
	})
}

func TestInMemorySyncLease_Release(t *testing.T) {
	l := NewInMemorySyncLease()
	defer l.Close()

	ctx := context.Background()

	token, err := l.Acquire(ctx, "listing-1", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, l.Release(ctx, "listing-1", token))

	token, err = l.Acquire(ctx, "listing-1", time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, token, "released key should be acquirable")

	// Releasing a key that is not held is a no-op
	assert.NoError(t, l.Release(ctx, "never-held", "whatever"))
}

func TestInMemorySyncLease_StaleTokenDoesNotRelease(t *testing.T) {
	l := NewInMemorySyncLease()
	defer l.Close()

	ctx := context.Background()

	// First holder's lease expires before it gets around to releasing.
	stale, err := l.Acquire(ctx, "listing-1", 10*time.Millisecond)
	require.NoError(t, err)
	require.NotEmpty(t, stale)

	time.Sleep(20 * time.Millisecond)

	current, err := l.Acquire(ctx, "listing-1", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, current)

	// The late release from the first holder must not free the new hold.
	require.NoError(t, l.Release(ctx, "listing-1", stale))

	token, err := l.Acquire(ctx, "listing-1", time.Hour)
	require.NoError(t, err)
	assert.Empty(t, token, "second holder's lease should survive a stale release")

	require.NoError(t, l.Release(ctx, "listing-1", current))

	token, err = l.Acquire(ctx, "listing-1", time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestInMemorySyncLease_SingleHolderUnderContention(t *testing.T) {
	l := NewInMemorySyncLease()
	defer l.Close()

	ctx := context.Background()

	var winners atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := l.Acquire(ctx, "contended", time.Hour)
			require.NoError(t, err)
			if token != "" {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), winners.Load(), "exactly one goroutine should win the lease")
}
