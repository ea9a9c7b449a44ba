package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/godilite/activation-insights/pkg/cache"
)

type flakyCache struct {
	cache.Cacher
	getErr error
}

func (f *flakyCache) Get(ctx context.Context, key string, dest any) error {
	return f.getErr
}

func newMemory(t *testing.T) *cache.Memory {
	t.Helper()
	m, err := cache.NewMemory(16)
	require.NoError(t, err)
	return m
}

func TestFindAndCache(t *testing.T) {
	ctx := context.Background()

	t.Run("miss fetches and populates", func(t *testing.T) {
		mem := newMemory(t)
		rt := cache.NewReadThrough(mem, time.Minute, zap.NewNop())

		got, err := cache.FindAndCache(ctx, rt, "k", func(ctx context.Context) ([]string, error) {
			return []string{"a", "b"}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, got)

		assert.Eventually(t, func() bool {
			var cached []string
			return mem.Get(ctx, "k", &cached) == nil
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("hit skips the fetch", func(t *testing.T) {
		mem := newMemory(t)
		require.NoError(t, mem.Set(ctx, "k", 42, time.Minute))
		rt := cache.NewReadThrough(mem, 0, zap.NewNop())

		var calls atomic.Int32
		got, err := cache.FindAndCache(ctx, rt, "k", func(ctx context.Context) (int, error) {
			calls.Add(1)
			return 7, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, got)
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("hit past refresh window refreshes in background", func(t *testing.T) {
		mem := newMemory(t)
		require.NoError(t, mem.Set(ctx, "k", 1, time.Minute))
		rt := cache.NewReadThrough(mem, time.Minute, zap.NewNop())

		got, err := cache.FindAndCache(ctx, rt, "k", func(ctx context.Context) (int, error) {
			return 2, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, got)

		assert.Eventually(t, func() bool {
			var v int
			return mem.Get(ctx, "k", &v) == nil && v == 2
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("fetch error is returned and nothing cached", func(t *testing.T) {
		mem := newMemory(t)
		rt := cache.NewReadThrough(mem, time.Minute, zaptest.NewLogger(t))
		boom := errors.New("boom")

		_, err := cache.FindAndCache(ctx, rt, "k", func(ctx context.Context) (int, error) {
			return 0, boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 0, mem.Len())
	})

	t.Run("cache errors are treated as a miss", func(t *testing.T) {
		rt := cache.NewReadThrough(&flakyCache{Cacher: newMemory(t), getErr: errors.New("conn reset")}, time.Minute, zap.NewNop())

		got, err := cache.FindAndCache(ctx, rt, "k", func(ctx context.Context) (string, error) {
			return "fresh", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "fresh", got)
	})

	t.Run("concurrent misses share one fetch", func(t *testing.T) {
		rt := cache.NewReadThrough(newMemory(t), time.Minute, zap.NewNop())
		release := make(chan struct{})
		var calls atomic.Int32

		var wg sync.WaitGroup
		results := make([]int, 4)
		for i := range results {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := cache.FindAndCache(ctx, rt, "k", func(ctx context.Context) (int, error) {
					calls.Add(1)
					<-release
					return 5, nil
				})
				assert.NoError(t, err)
				results[i] = v
			}()
		}

		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, int32(1), calls.Load())
		assert.Equal(t, []int{5, 5, 5, 5}, results)
	})

	t.Run("cancelled caller does not fail other waiters", func(t *testing.T) {
		rt := cache.NewReadThrough(newMemory(t), time.Minute, zap.NewNop())
		started := make(chan struct{})
		release := make(chan struct{})
		var calls atomic.Int32
		fetch := func(ctx context.Context) (int, error) {
			if calls.Add(1) == 1 {
				close(started)
			}
			<-release
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			return 5, nil
		}

		leaderCtx, cancel := context.WithCancel(ctx)
		leaderErr := make(chan error, 1)
		go func() {
			_, err := cache.FindAndCache(leaderCtx, rt, "k", fetch)
			leaderErr <- err
		}()
		<-started

		type result struct {
			v   int
			err error
		}
		waiter := make(chan result, 1)
		go func() {
			v, err := cache.FindAndCache(ctx, rt, "k", fetch)
			waiter <- result{v, err}
		}()

		time.Sleep(50 * time.Millisecond)
		cancel()
		assert.ErrorIs(t, <-leaderErr, context.Canceled)

		close(release)
		got := <-waiter
		require.NoError(t, got.err)
		assert.Equal(t, 5, got.v)
		assert.Equal(t, int32(1), calls.Load())
	})
}
