package common

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	AuthorizationHeader     = "Authorization"
	AuthorizationTypeBearer = "Bearer"

	// Gin context keys set by the auth middleware.
	UserIDKey   = "userID"
	UserRoleKey = "userRole"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// GetTokenFromContext returns the bearer token of the request, or "" when the
// Authorization header is missing or not of the form "Bearer <token>".
func GetTokenFromContext(c *gin.Context) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(c.GetHeader(AuthorizationHeader)), " ")
	if !ok || !strings.EqualFold(scheme, AuthorizationTypeBearer) {
		return ""
	}
	return strings.TrimSpace(token)
}

// GetUserIDFromContext returns the authenticated user's id, "" for anonymous requests.
func GetUserIDFromContext(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

func GetUserRoleFromContext(c *gin.Context) string {
	return c.GetString(UserRoleKey)
}

func IsAdmin(c *gin.Context) bool {
	return GetUserRoleFromContext(c) == RoleAdmin
}
