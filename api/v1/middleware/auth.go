package middleware

import (
	"errors"
	"strings"

	"codeclover/internal/auth"
	"codeclover/internal/httpx"
	"codeclover/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by AuthRequired.
const (
	CtxUID  = "uid"
	CtxRole = "role"
)

// AuthRequired is a middleware that validates JWT token
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httpx.FailErr(c, httpx.ErrUnauthorized("missing authorization header"))
			c.Abort()
			return
		}

		// Check Bearer prefix
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httpx.FailErr(c, httpx.ErrUnauthorized("invalid authorization header format"))
			c.Abort()
			return
		}

		tokenString := parts[1]

		// Parse and validate token
		claims, err := auth.ParseToken(tokenString)
		if err != nil {
			// Determine error type
			if errors.Is(err, jwt.ErrTokenExpired) {
				httpx.FailErr(c, httpx.ErrTokenExpired("token expired"))
			} else {
				httpx.FailErr(c, httpx.ErrInvalidToken("invalid token"))
			}
			c.Abort()
			return
		}

		// Set user identity in context
		c.Set(CtxUID, claims.UID)
		c.Set(CtxRole, claims.Role)

		c.Next()
	}
}

// RequireRole rejects requests whose role is not in the allow-list. Must
// run after AuthRequired. Routes declare their authorization policy by
// attaching this at wiring time.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		if !allowed[c.GetString(CtxRole)] {
			httpx.FailErr(c, httpx.ErrForbidden(""))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUID returns the authenticated user id from the request context.
func CurrentUID(c *gin.Context) int {
	return c.GetInt(CtxUID)
}

// CurrentRole returns the authenticated role from the request context.
func CurrentRole(c *gin.Context) string {
	return c.GetString(CtxRole)
}

// IsOwnerOrAdmin is the shared ownership predicate: a resource may be
// modified by its owner or by any admin.
func IsOwnerOrAdmin(c *gin.Context, ownerID int) bool {
	return CurrentUID(c) == ownerID || CurrentRole(c) == model.RoleAdmin
}
