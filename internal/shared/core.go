// Package shared holds the token types that both the auth package and the
// HTTP middleware need, so neither has to import the other.
package shared

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token purposes carried in Claims.Purpose.
const (
	PurposeAccess  = "access"
	PurposeRefresh = "refresh"
	PurposeReset   = "password-reset"
)

// TokenResponse represents the response containing JWT tokens.
type TokenResponse struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken,omitempty"`
	ExpiresAt        time.Time `json:"expiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt,omitempty"`
	TokenType        string    `json:"tokenType"`
}

// UserDataForToken abstracts the user data needed for token generation.
type UserDataForToken interface {
	GetID() string
	GetEmail() string
	GetRole() string
}

// TokenService defines the interface for JWT operations.
type TokenService interface {
	GenerateAccessToken(userData UserDataForToken) (string, time.Time, error)
	GenerateRefreshToken(userData UserDataForToken) (string, time.Time, error)
	GenerateResetToken(email string) (string, time.Time, error)
	// ValidateToken accepts access tokens only.
	ValidateToken(tokenString string) (*Claims, error)
	ParseRefreshToken(tokenString string) (*Claims, error)
	ParseResetToken(tokenString string) (*Claims, error)
}

// Claims represents the JWT claims structure
type Claims struct {
	UserID  string `json:"userId,omitempty"`
	Email   string `json:"email"`
	Role    string `json:"role,omitempty"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}
