package otp

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"realestate_backend/internal/common"
	"realestate_backend/internal/platform/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type StoreTestSuite struct {
	suite.Suite
	newKV func() cache.KV
	kv    cache.KV
	clock *fakeClock
	store *Store
	ctx   context.Context
}

func (s *StoreTestSuite) SetupTest() {
	s.kv = s.newKV()
	s.clock = &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	s.store = NewStore(s.kv, zap.NewNop(), WithClock(s.clock.Now))
	s.ctx = context.Background()
}

func TestStore_Memory(t *testing.T) {
	suite.Run(t, &StoreTestSuite{newKV: func() cache.KV { return cache.NewMemoryKV(time.Minute) }})
}

func TestStore_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	suite.Run(t, &StoreTestSuite{newKV: func() cache.KV {
		mr.FlushAll()
		return cache.NewRedisKVFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	}})
}

func assertAPIErrorCode(t *testing.T, err error, code string) *common.APIError {
	t.Helper()
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok, "expected APIError, got %v", err)
	assert.Equal(t, code, apiErr.Code)
	return apiErr
}

func (s *StoreTestSuite) TestGenerateOTP() {
	code, err := s.store.GenerateOTP()
	s.Require().NoError(err)
	s.Len(code, 6)
}

func (s *StoreTestSuite) TestStoreReturnsAttemptsAndExpiry() {
	issued, err := s.store.StoreOTP(s.ctx, "User@Example.com", "123456", PurposePasswordReset)
	s.Require().NoError(err)
	s.Equal(3, issued.AttemptsRemaining)
	s.Equal(s.clock.Now().Add(10*time.Minute), issued.ExpiresAt)
}

func (s *StoreTestSuite) TestVerifySuccessConsumesCode() {
	_, err := s.store.StoreOTP(s.ctx, "user@example.com", "123456", PurposePasswordReset)
	s.Require().NoError(err)

	s.NoError(s.store.VerifyOTP(s.ctx, "USER@example.com", "123456", PurposePasswordReset))

	err = s.store.VerifyOTP(s.ctx, "user@example.com", "123456", PurposePasswordReset)
	assertAPIErrorCode(s.T(), err, "OTP_NOT_FOUND")
}

func (s *StoreTestSuite) TestVerifyNotFound() {
	err := s.store.VerifyOTP(s.ctx, "nobody@example.com", "000000", PurposePasswordReset)
	assertAPIErrorCode(s.T(), err, "OTP_NOT_FOUND")
}

func (s *StoreTestSuite) TestPurposesAreSeparate() {
	_, err := s.store.StoreOTP(s.ctx, "user@example.com", "111111", PurposeEmailVerification)
	s.Require().NoError(err)

	err = s.store.VerifyOTP(s.ctx, "user@example.com", "111111", PurposePasswordReset)
	assertAPIErrorCode(s.T(), err, "OTP_NOT_FOUND")
	s.NoError(s.store.VerifyOTP(s.ctx, "user@example.com", "111111", PurposeEmailVerification))
}

func (s *StoreTestSuite) TestInvalidOTPCountsDown() {
	_, err := s.store.StoreOTP(s.ctx, "user@example.com", "123456", PurposePasswordReset)
	s.Require().NoError(err)

	err = s.store.VerifyOTP(s.ctx, "user@example.com", "000000", PurposePasswordReset)
	apiErr := assertAPIErrorCode(s.T(), err, "INVALID_OTP")
	s.Equal(map[string]int{"attemptsRemaining": 2}, apiErr.Details)

	err = s.store.VerifyOTP(s.ctx, "user@example.com", "000000", PurposePasswordReset)
	apiErr = assertAPIErrorCode(s.T(), err, "INVALID_OTP")
	s.Equal(map[string]int{"attemptsRemaining": 1}, apiErr.Details)
}

func (s *StoreTestSuite) TestThirdAttemptMayStillSucceed() {
	_, err := s.store.StoreOTP(s.ctx, "user@example.com", "123456", PurposePasswordReset)
	s.Require().NoError(err)

	for i := 0; i < 2; i++ {
		_ = s.store.VerifyOTP(s.ctx, "user@example.com", "999999", PurposePasswordReset)
	}
	s.NoError(s.store.VerifyOTP(s.ctx, "user@example.com", "123456", PurposePasswordReset))
}

func (s *StoreTestSuite) TestMaxAttemptsRejectsCorrectCode() {
	_, err := s.store.StoreOTP(s.ctx, "user@example.com", "123456", PurposePasswordReset)
	s.Require().NoError(err)

	for i := 0; i < 3; i++ {
		err = s.store.VerifyOTP(s.ctx, "user@example.com", "999999", PurposePasswordReset)
		assertAPIErrorCode(s.T(), err, "INVALID_OTP")
	}

	err = s.store.VerifyOTP(s.ctx, "user@example.com", "123456", PurposePasswordReset)
	assertAPIErrorCode(s.T(), err, "MAX_ATTEMPTS_EXCEEDED")

	err = s.store.VerifyOTP(s.ctx, "user@example.com", "123456", PurposePasswordReset)
	assertAPIErrorCode(s.T(), err, "OTP_NOT_FOUND")
}

func (s *StoreTestSuite) TestExpiredCodeIsDeleted() {
	_, err := s.store.StoreOTP(s.ctx, "user@example.com", "123456", PurposePasswordReset)
	s.Require().NoError(err)

	s.clock.Advance(10*time.Minute + time.Second)

	err = s.store.VerifyOTP(s.ctx, "user@example.com", "123456", PurposePasswordReset)
	assertAPIErrorCode(s.T(), err, "OTP_EXPIRED")

	err = s.store.VerifyOTP(s.ctx, "user@example.com", "123456", PurposePasswordReset)
	assertAPIErrorCode(s.T(), err, "OTP_NOT_FOUND")
}

func (s *StoreTestSuite) TestCodeExpiresAtDeadline() {
	issued, err := s.store.StoreOTP(s.ctx, "user@example.com", "123456", PurposePasswordReset)
	s.Require().NoError(err)

	s.clock.Advance(issued.ExpiresAt.Sub(s.clock.Now()))

	err = s.store.VerifyOTP(s.ctx, "user@example.com", "000000", PurposePasswordReset)
	assertAPIErrorCode(s.T(), err, "OTP_EXPIRED")

	_, err = s.kv.Get(s.ctx, Key("user@example.com", PurposePasswordReset))
	s.ErrorIs(err, cache.ErrCacheMiss, "an entry at its deadline is removed, not rewritten without a TTL")
}

func (s *StoreTestSuite) TestStoreReplacesPreviousCode() {
	_, err := s.store.StoreOTP(s.ctx, "user@example.com", "111111", PurposePasswordReset)
	s.Require().NoError(err)
	_ = s.store.VerifyOTP(s.ctx, "user@example.com", "000000", PurposePasswordReset)

	issued, err := s.store.StoreOTP(s.ctx, "user@example.com", "222222", PurposePasswordReset)
	s.Require().NoError(err)
	s.Equal(3, issued.AttemptsRemaining)

	err = s.store.VerifyOTP(s.ctx, "user@example.com", "111111", PurposePasswordReset)
	apiErr := assertAPIErrorCode(s.T(), err, "INVALID_OTP")
	s.Equal(map[string]int{"attemptsRemaining": 2}, apiErr.Details, "attempts restart with a new code")
	s.NoError(s.store.VerifyOTP(s.ctx, "user@example.com", "222222", PurposePasswordReset))
}

func (s *StoreTestSuite) TestSweepRemovesOnlyExpired() {
	_, err := s.store.StoreOTP(s.ctx, "old@example.com", "111111", PurposePasswordReset)
	s.Require().NoError(err)
	s.clock.Advance(6 * time.Minute)
	_, err = s.store.StoreOTP(s.ctx, "new@example.com", "222222", PurposePasswordReset)
	s.Require().NoError(err)
	s.clock.Advance(5 * time.Minute)

	removed, err := s.store.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, removed)

	s.NoError(s.store.VerifyOTP(s.ctx, "new@example.com", "222222", PurposePasswordReset))
}

func (s *StoreTestSuite) TestConcurrentVerifyHonoursAttemptLimit() {
	_, err := s.store.StoreOTP(s.ctx, "user@example.com", "123456", PurposePasswordReset)
	s.Require().NoError(err)

	var invalid int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.VerifyOTP(s.ctx, "user@example.com", "000000", PurposePasswordReset)
			if apiErr, ok := common.IsAPIError(err); ok && apiErr.Code == "INVALID_OTP" {
				atomic.AddInt32(&invalid, 1)
			}
		}()
	}
	wg.Wait()

	s.LessOrEqual(atomic.LoadInt32(&invalid), int32(3), "no more than three guesses may be evaluated")
}

func TestEntriesVanishAfterTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	kv := cache.NewRedisKVFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	store := NewStore(kv, zap.NewNop())
	ctx := context.Background()

	_, err := store.StoreOTP(ctx, "user@example.com", "123456", PurposePasswordReset)
	require.NoError(t, err)
	assert.True(t, mr.Exists(Key("user@example.com", PurposePasswordReset)))

	mr.FastForward(10*time.Minute + time.Second)

	assert.False(t, mr.Exists(Key("user@example.com", PurposePasswordReset)))
	err = store.VerifyOTP(ctx, "user@example.com", "123456", PurposePasswordReset)
	assertAPIErrorCode(t, err, "OTP_NOT_FOUND")
}

func TestKeyNormalisesEmail(t *testing.T) {
	assert.Equal(t, "otp:user@example.com:password-reset", Key(" User@Example.COM ", PurposePasswordReset))
}
