package auth

import (
	"context"
	"testing"
	"time"

	"realestate_backend/internal/config"
	"realestate_backend/internal/platform/cache"
	"realestate_backend/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecretKey:          "test-secret",
		JWTAccessTokenExpiry:  15 * time.Minute,
		JWTRefreshTokenExpiry: 24 * time.Hour,
		ResetTokenExpiry:      15 * time.Minute,
	}
}

func testUser() *user.User {
	u := &user.User{Email: "kim@example.com", Role: "admin"}
	u.ID = "user-42"
	return u
}

func TestJWTService_TokensAreScopedByPurpose(t *testing.T) {
	svc := NewJWTService(testConfig(), zap.NewNop())

	access, _, err := svc.GenerateAccessToken(testUser())
	require.NoError(t, err)
	refresh, _, err := svc.GenerateRefreshToken(testUser())
	require.NoError(t, err)
	reset, resetExp, err := svc.GenerateResetToken("kim@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), resetExp, 5*time.Second)

	claims, err := svc.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.UserID)
	assert.Equal(t, "admin", claims.Role)

	_, err = svc.ValidateToken(refresh)
	assert.Error(t, err, "refresh tokens are not access tokens")
	_, err = svc.ValidateToken(reset)
	assert.Error(t, err)
	_, err = svc.ParseRefreshToken(access)
	assert.Error(t, err)

	rc, err := svc.ParseRefreshToken(refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, rc.ID)

	rs, err := svc.ParseResetToken(reset)
	require.NoError(t, err)
	assert.Equal(t, "kim@example.com", rs.Email)
}

func TestJWTService_RejectsExpiredAndForeignTokens(t *testing.T) {
	svc := NewJWTService(testConfig(), zap.NewNop())
	token, _, err := svc.GenerateAccessToken(testUser())
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = svc.ValidateToken(token)
	assert.Error(t, err)

	other := testConfig()
	other.JWTSecretKey = "another-secret"
	_, err = NewJWTService(other, zap.NewNop()).ValidateToken(token)
	assert.Error(t, err)
}

func TestKVBlocklistService(t *testing.T) {
	ctx := context.Background()
	bl := NewKVBlocklistService(cache.NewMemoryKV(time.Minute))

	listed, err := bl.IsBlocklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, listed)

	require.NoError(t, bl.AddToBlocklist(ctx, "jti-1", time.Now().Add(time.Hour)))
	listed, err = bl.IsBlocklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, listed)

	require.NoError(t, bl.AddToBlocklist(ctx, "jti-2", time.Now().Add(-time.Minute)))
	listed, err = bl.IsBlocklisted(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, listed, "already expired tokens are not stored")
}
