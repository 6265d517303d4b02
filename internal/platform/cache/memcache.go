package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// memcached treats expirations above 30 days as absolute unix timestamps.
const memcacheRelativeLimit = 30 * 24 * time.Hour

// MemcacheKV stores entries in Memcached. Update uses a gets/cas loop.
// Memcached cannot enumerate keys, so Keys returns ErrKeysUnsupported and
// callers rely on per-item expiry instead.
type MemcacheKV struct {
	client *memcache.Client
}

func NewMemcacheKV(servers ...string) (*MemcacheKV, error) {
	client := memcache.New(servers...)
	if err := client.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to memcached %v: %w", servers, err)
	}
	return &MemcacheKV{client: client}, nil
}

func expiration(ttl time.Duration) int32 {
	if ttl <= 0 {
		return 0
	}
	if ttl >= memcacheRelativeLimit {
		return int32(time.Now().Add(ttl).Unix())
	}
	secs := int32(ttl / time.Second)
	if ttl%time.Second != 0 {
		secs++
	}
	return secs
}

func (m *MemcacheKV) Get(_ context.Context, key string) ([]byte, error) {
	item, err := m.client.Get(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("memcache get %s: %w", key, err)
	}
	return item.Value, nil
}

func (m *MemcacheKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if err := m.client.Set(&memcache.Item{Key: key, Value: value, Expiration: expiration(ttl)}); err != nil {
		return fmt.Errorf("memcache set %s: %w", key, err)
	}
	return nil
}

func (m *MemcacheKV) Delete(_ context.Context, key string) error {
	err := m.client.Delete(key)
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		return fmt.Errorf("memcache delete %s: %w", key, err)
	}
	return nil
}

func (m *MemcacheKV) Update(ctx context.Context, key string, fn UpdateFunc) error {
	for i := 0; i < maxUpdateRetries; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		item, err := m.client.Get(key)
		found := true
		var cur []byte
		switch {
		case errors.Is(err, memcache.ErrCacheMiss):
			found = false
		case err != nil:
			return fmt.Errorf("memcache gets %s: %w", key, err)
		default:
			cur = item.Value
		}

		mut, err := fn(cur, found)
		if err != nil {
			return err
		}

		switch mut.Op {
		case OpKeep:
			return nil
		case OpDelete:
			if !found {
				return nil
			}
			// A negative expiration expires the item at once. Going through cas
			// only removes the revision fn saw.
			item.Expiration = -1
			err = m.client.CompareAndSwap(item)
			if errors.Is(err, memcache.ErrCASConflict) || errors.Is(err, memcache.ErrNotStored) || errors.Is(err, memcache.ErrCacheMiss) {
				continue
			}
			if err != nil {
				return fmt.Errorf("memcache cas delete %s: %w", key, err)
			}
			return nil
		case OpPut:
			if found {
				item.Value = mut.Value
				item.Expiration = expiration(mut.TTL)
				err = m.client.CompareAndSwap(item)
			} else {
				err = m.client.Add(&memcache.Item{Key: key, Value: mut.Value, Expiration: expiration(mut.TTL)})
			}
			if errors.Is(err, memcache.ErrCASConflict) || errors.Is(err, memcache.ErrNotStored) || errors.Is(err, memcache.ErrCacheMiss) {
				continue
			}
			if err != nil {
				return fmt.Errorf("memcache cas %s: %w", key, err)
			}
			return nil
		}
	}
	return ErrUpdateConflict
}

func (m *MemcacheKV) Keys(context.Context, string) ([]string, error) {
	return nil, ErrKeysUnsupported
}

func (m *MemcacheKV) Close() error { return nil }
