package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryKV keeps entries in process memory. Suitable for single-instance
// deployments and tests only.
type MemoryKV struct {
	mu    sync.Mutex
	store *gocache.Cache
}

// NewMemoryKV creates an in-memory store. cleanupInterval controls how often
// expired entries are purged from memory.
func NewMemoryKV(cleanupInterval time.Duration) *MemoryKV {
	return &MemoryKV{store: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(key)
}

func (m *MemoryKV) get(key string) ([]byte, error) {
	v, ok := m.store.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	b := v.([]byte)
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set(key, value, ttl)
	return nil
}

func (m *MemoryKV) set(key string, value []byte, ttl time.Duration) {
	b := make([]byte, len(value))
	copy(b, value)
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	m.store.Set(key, b, ttl)
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store.Delete(key)
	return nil
}

func (m *MemoryKV) Update(_ context.Context, key string, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, err := m.get(key)
	found := err == nil
	mut, err := fn(cur, found)
	if err != nil {
		return err
	}
	switch mut.Op {
	case OpPut:
		m.set(key, mut.Value, mut.TTL)
	case OpDelete:
		m.store.Delete(key)
	}
	return nil
}

func (m *MemoryKV) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.store.Items() { // Items skips expired entries
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *MemoryKV) Close() error {
	m.store.Flush()
	return nil
}
