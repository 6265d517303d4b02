// Package cache provides the shared key-value store used for OTP state,
// token blocklisting and response caching.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"sort"
	"strings"
	"time"
)

var (
	// ErrCacheMiss is returned by Get when the key does not exist or has expired.
	ErrCacheMiss = errors.New("cache: miss")
	// ErrKeysUnsupported is returned by backends that cannot enumerate keys.
	ErrKeysUnsupported = errors.New("cache: key enumeration not supported by this backend")
	// ErrUpdateConflict is returned when an atomic update kept losing races.
	ErrUpdateConflict = errors.New("cache: too many concurrent updates")
)

// Op tells Update what to do with the key after the callback ran.
type Op int

const (
	OpKeep Op = iota
	OpPut
	OpDelete
)

// Mutation is the outcome of an UpdateFunc.
type Mutation struct {
	Op    Op
	Value []byte
	// TTL applies to OpPut. Zero means no expiry.
	TTL time.Duration
}

func Keep() Mutation                               { return Mutation{Op: OpKeep} }
func Delete() Mutation                             { return Mutation{Op: OpDelete} }
func Put(value []byte, ttl time.Duration) Mutation { return Mutation{Op: OpPut, Value: value, TTL: ttl} }

// UpdateFunc receives the current value of a key and decides its new state.
// Returning an error aborts the update without touching the key.
type UpdateFunc func(current []byte, found bool) (Mutation, error)

// KV is a byte-oriented key-value store with expiring entries.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Update runs fn and applies its Mutation atomically with respect to other
	// Update calls on the same key, across every process sharing the store.
	Update(ctx context.Context, key string, fn UpdateFunc) error
	// Keys lists the live keys starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

const maxUpdateRetries = 16

// QueryKey builds a deterministic cache key from a set of query parameters.
func QueryKey(prefix string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for i, k := range keys {
		if i > 0 {
			builder.WriteString(":")
		}
		builder.WriteString(k)
		builder.WriteString("=")
		builder.WriteString(params[k])
	}

	hash := md5.Sum([]byte(builder.String()))
	return prefix + ":" + hex.EncodeToString(hash[:])
}
