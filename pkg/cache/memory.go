package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

var errMemoryClosed = errors.New("memory cache is closed")

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// Memory is an in-process Cacher bounded by entry count. Values are stored
// JSON-encoded so callers see the same copy semantics as with Redis.
type Memory struct {
	entries *lru.Cache
	now     func() time.Time

	mu     sync.Mutex
	closed bool
}

func NewMemory(size int) (*Memory, error) {
	entries, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &Memory{entries: entries, now: time.Now}, nil
}

func (m *Memory) Get(ctx context.Context, key string, dest any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v, ok := m.entries.Get(key)
	if !ok {
		return ErrCacheMiss
	}
	entry := v.(memoryEntry)
	if !entry.expires.IsZero() && !m.now().Before(entry.expires) {
		m.entries.Remove(key)
		return ErrCacheMiss
	}
	return json.Unmarshal(entry.data, dest)
}

// Set stores value until expiration elapses. A non-positive expiration never expires.
func (m *Memory) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return errMemoryClosed
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	entry := memoryEntry{data: data}
	if expiration > 0 {
		entry.expires = m.now().Add(expiration)
	}
	m.entries.Add(key, entry)
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (m *Memory) Len() int { return m.entries.Len() }

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.entries.Purge()
	return nil
}
