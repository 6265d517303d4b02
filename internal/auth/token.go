package auth

import (
	"errors"
	"fmt"
	"time"

	"realestate_backend/internal/config"
	"realestate_backend/internal/shared"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	tokenIssuer       = "realestate_backend"
	defaultResetToken = 15 * time.Minute
)

var errWrongPurpose = errors.New("token was not issued for this purpose")

type JWTService struct {
	cfg    *config.Config
	logger *zap.Logger
	now    func() time.Time
}

// NewJWTService creates the HS256 token service.
func NewJWTService(cfg *config.Config, logger *zap.Logger) *JWTService {
	return &JWTService{cfg: cfg, logger: logger.Named("jwt"), now: time.Now}
}

var _ shared.TokenService = (*JWTService)(nil)

func (s *JWTService) GenerateAccessToken(userData shared.UserDataForToken) (string, time.Time, error) {
	return s.sign(userData.GetID(), userData.GetEmail(), userData.GetRole(), shared.PurposeAccess, s.cfg.JWTAccessTokenExpiry)
}

// GenerateRefreshToken issues a token with a unique jti so it can be revoked on logout.
func (s *JWTService) GenerateRefreshToken(userData shared.UserDataForToken) (string, time.Time, error) {
	return s.sign(userData.GetID(), userData.GetEmail(), userData.GetRole(), shared.PurposeRefresh, s.cfg.JWTRefreshTokenExpiry)
}

// GenerateResetToken issues the short-lived token that authorises a password reset.
func (s *JWTService) GenerateResetToken(email string) (string, time.Time, error) {
	ttl := s.cfg.ResetTokenExpiry
	if ttl <= 0 {
		ttl = defaultResetToken
	}
	return s.sign("", email, "", shared.PurposeReset, ttl)
}

func (s *JWTService) sign(userID, email, role, purpose string, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expirationTime := now.Add(ttl)
	claims := &shared.Claims{
		UserID:  userID,
		Email:   email,
		Role:    role,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   userID,
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecretKey))
	if err != nil {
		s.logger.Error("Failed to sign token", zap.Error(err), zap.String("purpose", purpose))
		return "", time.Time{}, fmt.Errorf("could not sign %s token: %w", purpose, err)
	}
	return tokenString, expirationTime, nil
}

// ValidateToken validates an access token and returns its claims.
func (s *JWTService) ValidateToken(tokenString string) (*shared.Claims, error) {
	return s.parse(tokenString, shared.PurposeAccess)
}

func (s *JWTService) ParseRefreshToken(tokenString string) (*shared.Claims, error) {
	return s.parse(tokenString, shared.PurposeRefresh)
}

func (s *JWTService) ParseResetToken(tokenString string) (*shared.Claims, error) {
	return s.parse(tokenString, shared.PurposeReset)
}

func (s *JWTService) parse(tokenString, purpose string) (*shared.Claims, error) {
	claims := &shared.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Purpose != purpose {
		return nil, errWrongPurpose
	}
	return claims, nil
}
