package middleware

import (
	"realestate_backend/internal/common"
	"realestate_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware rejects requests without a valid access token and stores
// the caller's id and role in the gin context.
func AuthMiddleware(tokenService shared.TokenService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := common.GetTokenFromContext(c)
		switch {
		case c.GetHeader(common.AuthorizationHeader) == "":
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authorization header is required."))
			return
		case tokenString == "":
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authorization header format must be 'Bearer <token>'."))
			return
		}

		claims, err := tokenService.ValidateToken(tokenString)
		if err != nil {
			logger.Debug("Rejected access token", zap.Error(err), zap.String("path", c.FullPath()))
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Invalid or expired token."))
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware sets the user in context when a valid access token
// is present and lets anonymous requests through otherwise.
func OptionalAuthMiddleware(tokenService shared.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := common.GetTokenFromContext(c); tokenString != "" {
			if claims, err := tokenService.ValidateToken(tokenString); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

func setClaims(c *gin.Context, claims *shared.Claims) {
	c.Set(common.UserIDKey, claims.UserID)
	c.Set(common.UserRoleKey, claims.Role)
}

// RoleAuthMiddleware must run after AuthMiddleware.
func RoleAuthMiddleware(allowedRoles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := allowed[common.GetUserRoleFromContext(c)]; !ok {
			common.RespondWithError(c, common.ErrForbidden.WithDetails("You do not have sufficient permissions for this resource."))
			return
		}
		c.Next()
	}
}

// AdminOnly is RoleAuthMiddleware for the admin role.
func AdminOnly() gin.HandlerFunc {
	return RoleAuthMiddleware(common.RoleAdmin)
}
