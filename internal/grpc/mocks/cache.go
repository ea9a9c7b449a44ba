package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/godilite/activation-insights/pkg/cache"
)

// MockCacher is a mock implementation of cache.Cacher for testing the handler
// layer. Without GetFunc every lookup misses. Requested keys are recorded.
type MockCacher struct {
	GetFunc   func(ctx context.Context, key string, dest any) error
	SetFunc   func(ctx context.Context, key string, value any, expiration time.Duration) error
	CloseFunc func() error

	mu      sync.Mutex
	getKeys []string
}

// Get implements cache.Cacher
func (m *MockCacher) Get(ctx context.Context, key string, dest any) error {
	m.mu.Lock()
	m.getKeys = append(m.getKeys, key)
	m.mu.Unlock()

	if m.GetFunc != nil {
		return m.GetFunc(ctx, key, dest)
	}
	return cache.ErrCacheMiss
}

// Set implements cache.Cacher
func (m *MockCacher) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, expiration)
	}
	return nil
}

// Close implements cache.Cacher
func (m *MockCacher) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// GetKeys returns the keys passed to Get so far.
func (m *MockCacher) GetKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.getKeys...)
}
