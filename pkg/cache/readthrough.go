package cache

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type FetchFunc[T any] func(ctx context.Context) (T, error)

const (
	defaultFetchTimeout = 15 * time.Second
	defaultSetTimeout   = 5 * time.Second
	maxTTLJitter        = 15 * time.Second
)

// ReadThrough couples a Cacher with request coalescing and refresh-ahead.
// A hit older than RefreshAfter triggers one background refetch for that key.
type ReadThrough struct {
	cache        Cacher
	sf           singleflight.Group
	ttl          time.Duration
	refreshAfter time.Duration
	logger       *zap.Logger

	mu        sync.Mutex
	refreshed map[string]time.Time
	lastSweep time.Time
}

// NewReadThrough caches values for ttl and refreshes hits after half of it.
func NewReadThrough(c Cacher, ttl time.Duration, logger *zap.Logger) *ReadThrough {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReadThrough{
		cache:        c,
		ttl:          ttl,
		refreshAfter: ttl / 2,
		logger:       logger.Named("cache"),
		refreshed:    make(map[string]time.Time),
	}
}

// addTTLJitter adds up to ±15s random jitter to TTL to avoid mass expiration.
func addTTLJitter(ttl time.Duration) time.Duration {
	if ttl <= 2*maxTTLJitter {
		return ttl
	}
	jitter := time.Duration(rand.Intn(30)-15) * time.Second
	return ttl + jitter
}

// dueForRefresh records key as refreshed when its last refresh is older than refreshAfter.
func (rt *ReadThrough) dueForRefresh(key string) bool {
	if rt.refreshAfter <= 0 {
		return false
	}
	now := time.Now()
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if last, ok := rt.refreshed[key]; ok && now.Sub(last) < rt.refreshAfter {
		return false
	}
	rt.refreshed[key] = now
	return true
}

// markFresh records a refresh of key and drops entries whose cached value
// has expired, so keys of superseded snapshots do not accumulate.
func (rt *ReadThrough) markFresh(key string) {
	now := time.Now()
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.refreshed[key] = now
	if now.Sub(rt.lastSweep) < rt.refreshAfter {
		return
	}
	rt.lastSweep = now
	maxAge := rt.ttl
	if rt.ttl > 2*maxTTLJitter {
		maxAge += maxTTLJitter
	}
	for k, last := range rt.refreshed {
		if now.Sub(last) > maxAge {
			delete(rt.refreshed, k)
		}
	}
}

// tracked returns the number of keys with a recorded refresh time.
func (rt *ReadThrough) tracked() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.refreshed)
}

func (rt *ReadThrough) set(key string, value any) {
	setCtx, cancel := context.WithTimeout(context.Background(), defaultSetTimeout)
	defer cancel()

	ttl := addTTLJitter(rt.ttl)
	if err := rt.cache.Set(setCtx, key, value, ttl); err != nil {
		rt.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		return
	}
	rt.markFresh(key)
	rt.logger.Debug("cache populated", zap.String("key", key), zap.Duration("ttl", ttl))
}

func triggerBackgroundRefresh[T any](rt *ReadThrough, key string, fn FetchFunc[T]) {
	go func() {
		_, _, _ = rt.sf.Do(key+":refresh", func() (any, error) {
			ctx, cancel := context.WithTimeout(context.Background(), defaultFetchTimeout)
			defer cancel()

			value, err := fn(ctx)
			if err != nil {
				rt.logger.Warn("background refresh failed",
					zap.String("key", key),
					zap.Error(err))
				return nil, err
			}
			rt.set(key, value)
			return value, nil
		})
	}()
}

// FindAndCache implements read-through caching with singleflight and refresh-ahead logic.
// Cache errors other than a miss are logged and treated as a miss.
func FindAndCache[T any](ctx context.Context, rt *ReadThrough, key string, fn FetchFunc[T]) (T, error) {
	var zero T

	var cached T
	err := rt.cache.Get(ctx, key, &cached)
	switch {
	case err == nil:
		rt.logger.Debug("cache hit", zap.String("key", key))
		if rt.dueForRefresh(key) {
			triggerBackgroundRefresh(rt, key, fn)
		}
		return cached, nil

	case errors.Is(err, ErrCacheMiss):
		rt.logger.Debug("cache miss", zap.String("key", key))

	default:
		rt.logger.Warn("cache get error (treating as miss)", zap.String("key", key), zap.Error(err))
	}

	// the fetch outlives the caller that started it; every waiter shares its result
	ch := rt.sf.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultFetchTimeout)
		defer cancel()

		value, err := fn(fetchCtx)
		if err != nil {
			return nil, err
		}
		go rt.set(key, value)
		return value, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res = <-ch:
	}
	v, err, shared := res.Val, res.Err, res.Shared
	if err != nil {
		rt.logger.Error("fetch failed", zap.String("key", key), zap.Error(err))
		return zero, err
	}

	value, ok := v.(T)
	if !ok {
		rt.logger.Error("singleflight type mismatch", zap.String("key", key))
		return zero, fmt.Errorf("type mismatch for key %q", key)
	}

	if shared {
		rt.logger.Debug("singleflight shared result", zap.String("key", key))
	}

	return value, nil
}

// Close releases the underlying cache.
func (rt *ReadThrough) Close() error {
	return rt.cache.Close()
}
