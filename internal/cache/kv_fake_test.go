package cache_test

import (
	"context"
	"sync"
	"time"

	"wisefido-attendance/internal/cache"
)

// memoryKV records the TTL of every write instead of expiring keys.
type memoryKV struct {
	mu     sync.Mutex
	values map[string]string
	ttls   map[string]time.Duration
	writes int
}

func newMemoryKV() *memoryKV {
	return &memoryKV{
		values: make(map[string]string),
		ttls:   make(map[string]time.Duration),
	}
}

func (m *memoryKV) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.values[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return v, nil
}

func (m *memoryKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	m.ttls[key] = ttl
	m.writes++
	return nil
}
