package middleware

import (
	"net/http"
	"strings"

	"servicely/models"
	"servicely/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JWTAuthMiddleware validates the bearer token and stores the caller's id and role.
func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.JSONError(c, http.StatusUnauthorized, "", "Missing or invalid Authorization header", "")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := utils.ParseToken(secret, tokenString)
		if err != nil {
			utils.ContextLogger(c).Debug("rejected token", zap.Error(err))
			utils.JSONError(c, http.StatusUnauthorized, "", "Invalid token", "")
			return
		}

		c.Set(utils.ActorIDKey, claims.Subject)
		c.Set(utils.ActorRoleKey, claims.Role)
		c.Next()
	}
}

// RequireRole lets only callers with the given role through. Use after JWTAuthMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(utils.ActorRoleKey) != role {
			utils.JSONError(c, http.StatusForbidden, "", "This action requires the "+role+" role", "")
			return
		}
		c.Next()
	}
}

// Actor returns the authenticated caller.
func Actor(c *gin.Context) models.Recipient {
	return models.Recipient{
		Role: c.GetString(utils.ActorRoleKey),
		ID:   c.GetString(utils.ActorIDKey),
	}
}
