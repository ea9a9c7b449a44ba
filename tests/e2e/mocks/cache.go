package mocks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/godilite/activation-insights/pkg/cache"
)

// TrackingCache is an in-memory cache.Cacher that counts lookups, hits and writes.
type TrackingCache struct {
	mu   sync.Mutex
	data map[string]cacheEntry

	GetCalls int
	Hits     int
	SetCalls int
}

type cacheEntry struct {
	value  []byte
	expiry time.Time
}

func NewTrackingCache() *TrackingCache {
	return &TrackingCache{
		data: make(map[string]cacheEntry),
	}
}

func (c *TrackingCache) Get(ctx context.Context, key string, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.GetCalls++
	entry, exists := c.data[key]
	if !exists || !time.Now().Before(entry.expiry) {
		return cache.ErrCacheMiss
	}
	c.Hits++
	return json.Unmarshal(entry.value, dest)
}

func (c *TrackingCache) Set(ctx context.Context, key string, value any, exp time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.SetCalls++
	c.data[key] = cacheEntry{
		value:  data,
		expiry: time.Now().Add(exp),
	}
	return nil
}

func (c *TrackingCache) Close() error {
	return nil
}

// Stats returns the counters under the lock.
func (c *TrackingCache) Stats() (gets, hits, sets int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.GetCalls, c.Hits, c.SetCalls
}
