// Package otp keeps one-time passcodes for password reset and email
// verification in the shared key-value cache, so every API instance sees the
// same codes and attempt counters.
package otp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"realestate_backend/internal/common"
	"realestate_backend/internal/config"
	"realestate_backend/internal/platform/cache"
	"realestate_backend/internal/platform/crypto"

	"go.uber.org/zap"
)

const (
	PurposePasswordReset     = "password-reset"
	PurposeEmailVerification = "email-verification"

	CodeLength         = 6
	DefaultTTL         = 10 * time.Minute
	DefaultMaxAttempts = 3

	keyPrefix = "otp:"
)

var (
	ErrOTPNotFound = common.NewAPIError(http.StatusBadRequest, "OTP_NOT_FOUND", "No verification code was requested for this email, or it has already been used.")
	ErrOTPExpired  = common.NewAPIError(http.StatusBadRequest, "OTP_EXPIRED", "The verification code has expired. Please request a new one.")
	ErrMaxAttempts = common.NewAPIError(http.StatusBadRequest, "MAX_ATTEMPTS_EXCEEDED", "Too many incorrect attempts. Please request a new code.")
	ErrInvalidOTP  = common.NewAPIError(http.StatusBadRequest, "INVALID_OTP", "The verification code is incorrect.")
)

// Entry is the stored state of one code.
type Entry struct {
	OTP       string    `json:"otp"`
	ExpiresAt time.Time `json:"expiresAt"`
	Attempts  int       `json:"attempts"`
}

// Issued describes a freshly stored code.
type Issued struct {
	AttemptsRemaining int       `json:"attemptsRemaining"`
	ExpiresAt         time.Time `json:"expiresAt"`
}

// Store issues and verifies codes. Verification is atomic per email and purpose.
type Store struct {
	kv          cache.KV
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
	logger      *zap.Logger
}

type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

func WithMaxAttempts(n int) Option {
	return func(s *Store) { s.maxAttempts = n }
}

func NewStore(kv cache.KV, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		kv:          kv,
		ttl:         DefaultTTL,
		maxAttempts: DefaultMaxAttempts,
		now:         time.Now,
		logger:      logger.Named("otp"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewStoreFromConfig is the wire provider.
func NewStoreFromConfig(cfg *config.Config, kv cache.KV, logger *zap.Logger) *Store {
	opts := []Option{WithMaxAttempts(cfg.OTPMaxAttempts)}
	if cfg.OTPTTL > 0 {
		opts = append(opts, WithTTL(cfg.OTPTTL))
	}
	return NewStore(kv, logger, opts...)
}

func Key(email, purpose string) string {
	return keyPrefix + strings.ToLower(strings.TrimSpace(email)) + ":" + purpose
}

// GenerateOTP returns a uniformly random 6-digit code.
func (s *Store) GenerateOTP() (string, error) {
	return crypto.GenerateNumericCode(CodeLength)
}

// StoreOTP records code for email and purpose, replacing any earlier code.
// The cache entry expires on its own when the code does.
func (s *Store) StoreOTP(ctx context.Context, email, code, purpose string) (*Issued, error) {
	entry := Entry{
		OTP:       code,
		ExpiresAt: s.now().Add(s.ttl),
		Attempts:  0,
	}
	b, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to encode otp entry: %w", err)
	}
	if err := s.kv.Set(ctx, Key(email, purpose), b, s.ttl); err != nil {
		s.logger.Error("Failed to store OTP", zap.Error(err), zap.String("purpose", purpose))
		return nil, fmt.Errorf("failed to store otp: %w", err)
	}
	return &Issued{AttemptsRemaining: s.maxAttempts, ExpiresAt: entry.ExpiresAt}, nil
}

// VerifyOTP checks input against the stored code. The entry is deleted when
// the code matches, has expired, or has run out of attempts.
func (s *Store) VerifyOTP(ctx context.Context, email, input, purpose string) error {
	var result error

	err := s.kv.Update(ctx, Key(email, purpose), func(cur []byte, found bool) (cache.Mutation, error) {
		if !found {
			result = ErrOTPNotFound
			return cache.Keep(), nil
		}
		var entry Entry
		if err := json.Unmarshal(cur, &entry); err != nil {
			s.logger.Warn("Dropping corrupt OTP entry", zap.Error(err), zap.String("purpose", purpose))
			result = ErrOTPNotFound
			return cache.Delete(), nil
		}

		now := s.now()
		if !now.Before(entry.ExpiresAt) {
			result = ErrOTPExpired
			return cache.Delete(), nil
		}
		if entry.Attempts >= s.maxAttempts {
			result = ErrMaxAttempts
			return cache.Delete(), nil
		}

		entry.Attempts++
		if entry.OTP == input {
			result = nil
			return cache.Delete(), nil
		}

		remaining := s.maxAttempts - entry.Attempts
		result = ErrInvalidOTP.WithDetails(map[string]int{"attemptsRemaining": remaining})
		b, err := json.Marshal(entry)
		if err != nil {
			return cache.Mutation{}, fmt.Errorf("failed to encode otp entry: %w", err)
		}
		return cache.Put(b, entry.ExpiresAt.Sub(now)), nil
	})
	if err != nil {
		s.logger.Error("Failed to verify OTP", zap.Error(err), zap.String("purpose", purpose))
		return fmt.Errorf("failed to verify otp: %w", err)
	}
	return result
}

// Invalidate removes any pending code for email and purpose.
func (s *Store) Invalidate(ctx context.Context, email, purpose string) error {
	return s.kv.Delete(ctx, Key(email, purpose))
}

// Sweep removes every expired entry and returns how many were removed.
// Backends that cannot list keys rely on their own TTL handling.
func (s *Store) Sweep(ctx context.Context) (int, error) {
	keys, err := s.kv.Keys(ctx, keyPrefix)
	if errors.Is(err, cache.ErrKeysUnsupported) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to list otp keys: %w", err)
	}

	removed := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		deleted := false
		err := s.kv.Update(ctx, key, func(cur []byte, found bool) (cache.Mutation, error) {
			if !found {
				return cache.Keep(), nil
			}
			var entry Entry
			if err := json.Unmarshal(cur, &entry); err != nil || s.now().After(entry.ExpiresAt) {
				deleted = true
				return cache.Delete(), nil
			}
			return cache.Keep(), nil
		})
		if err != nil {
			s.logger.Warn("Failed to sweep OTP entry", zap.Error(err), zap.String("key", key))
			continue
		}
		if deleted {
			removed++
		}
	}
	return removed, nil
}
