package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"realestate_backend/internal/platform/cache"
)

const blocklistPrefix = "blocklist:"

// TokenBlocklistService defines the interface for a JWT blocklist.
type TokenBlocklistService interface {
	// AddToBlocklist adds a token's JTI (JWT ID) to the blocklist until expiresAt.
	AddToBlocklist(ctx context.Context, jti string, expiresAt time.Time) error
	// IsBlocklisted checks if a token's JTI is in the blocklist.
	IsBlocklisted(ctx context.Context, jti string) (bool, error)
}

// KVBlocklistService keeps revoked token ids in the shared key-value cache so a
// logout is honoured by every API instance.
type KVBlocklistService struct {
	kv  cache.KV
	now func() time.Time
}

func NewKVBlocklistService(kv cache.KV) *KVBlocklistService {
	return &KVBlocklistService{kv: kv, now: time.Now}
}

var _ TokenBlocklistService = (*KVBlocklistService)(nil)

// AddToBlocklist stores the jti for exactly as long as the token would have been valid.
func (s *KVBlocklistService) AddToBlocklist(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.kv.Set(ctx, blocklistPrefix+jti, []byte{1}, ttl); err != nil {
		return fmt.Errorf("failed to blocklist token: %w", err)
	}
	return nil
}

func (s *KVBlocklistService) IsBlocklisted(ctx context.Context, jti string) (bool, error) {
	_, err := s.kv.Get(ctx, blocklistPrefix+jti)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, cache.ErrCacheMiss):
		return false, nil
	default:
		return false, fmt.Errorf("failed to check token blocklist: %w", err)
	}
}
