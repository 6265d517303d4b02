package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/karlseguin/ccache/v3"
	"go.uber.org/zap"
)

// Tiered is a read-through JSON cache with a process-local ccache L1 in front
// of a shared KV L2. Entries are grouped in namespaces that can be invalidated
// as a whole by bumping the namespace generation stored in L2.
type Tiered struct {
	l1     *ccache.Cache[[]byte]
	l2     KV
	l1TTL  time.Duration
	ttl    time.Duration
	logger *zap.Logger
}

// NewTiered creates a two-level cache. ttl applies to L2 entries, and L1
// entries live for at most l1TTL.
func NewTiered(l2 KV, ttl, l1TTL time.Duration, maxLocal int64, logger *zap.Logger) *Tiered {
	if l1TTL <= 0 || l1TTL > ttl {
		l1TTL = ttl
	}
	return &Tiered{
		l1:     ccache.New(ccache.Configure[[]byte]().MaxSize(maxLocal)),
		l2:     l2,
		l1TTL:  l1TTL,
		ttl:    ttl,
		logger: logger.Named("tiered_cache"),
	}
}

func genKey(ns string) string { return "gen:" + ns }

func (t *Tiered) generation(ctx context.Context, ns string) string {
	b, err := t.l2.Get(ctx, genKey(ns))
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			t.logger.Warn("Failed to read cache generation", zap.String("namespace", ns), zap.Error(err))
		}
		return "0"
	}
	return string(b)
}

func (t *Tiered) fullKey(ctx context.Context, ns, key string) string {
	return ns + ":" + t.generation(ctx, ns) + ":" + key
}

// GetJSON looks key up in L1 then L2 and decodes it into dest.
// It reports whether the key was found.
func (t *Tiered) GetJSON(ctx context.Context, ns, key string, dest interface{}) bool {
	full := t.fullKey(ctx, ns, key)

	if item := t.l1.Get(full); item != nil && !item.Expired() {
		if err := json.Unmarshal(item.Value(), dest); err == nil {
			return true
		}
		t.l1.Delete(full)
	}

	b, err := t.l2.Get(ctx, full)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			t.logger.Warn("L2 cache read failed", zap.String("key", full), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(b, dest); err != nil {
		t.logger.Warn("Discarding undecodable cache entry", zap.String("key", full), zap.Error(err))
		return false
	}
	t.l1.Set(full, b, t.l1TTL)
	return true
}

// SetJSON stores value under key in both levels. Failures are logged only.
func (t *Tiered) SetJSON(ctx context.Context, ns, key string, value interface{}) {
	b, err := json.Marshal(value)
	if err != nil {
		t.logger.Warn("Failed to encode cache entry", zap.String("namespace", ns), zap.Error(err))
		return
	}
	full := t.fullKey(ctx, ns, key)
	t.l1.Set(full, b, t.l1TTL)
	if err := t.l2.Set(ctx, full, b, t.ttl); err != nil {
		t.logger.Warn("L2 cache write failed", zap.String("key", full), zap.Error(err))
	}
}

// Delete drops single keys of a namespace. Other processes may serve their
// L1 copy for up to l1TTL.
func (t *Tiered) Delete(ctx context.Context, ns string, keys ...string) {
	for _, key := range keys {
		full := t.fullKey(ctx, ns, key)
		t.l1.Delete(full)
		if err := t.l2.Delete(ctx, full); err != nil {
			t.logger.Warn("L2 cache delete failed", zap.String("key", full), zap.Error(err))
		}
	}
}

// Invalidate drops every entry of the namespace.
func (t *Tiered) Invalidate(ctx context.Context, ns string) {
	err := t.l2.Update(ctx, genKey(ns), func(cur []byte, found bool) (Mutation, error) {
		n, _ := strconv.ParseInt(string(cur), 10, 64)
		return Put([]byte(strconv.FormatInt(n+1, 10)), 0), nil
	})
	if err != nil {
		t.logger.Warn("Failed to bump cache generation", zap.String("namespace", ns), zap.Error(err))
	}
	t.l1.DeletePrefix(ns + ":")
}

func (t *Tiered) Stop() {
	t.l1.Stop()
}
