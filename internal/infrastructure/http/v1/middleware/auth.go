package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"celltrade/internal/core/apperror"
	"celltrade/internal/core/security"
)

// TokenValidator validates an access token and rebuilds the caller's scope.
type TokenValidator interface {
	ValidateToken(tokenString string) (*security.Scope, error)
}

// Auth middleware validates JWT tokens and populates the security scope.
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		scope, err := validator.ValidateToken(parts[1])
		if err != nil {
			_ = c.Error(apperror.NewUnauthorized("invalid token"))
			c.Abort()
			return
		}

		ctx := security.WithScope(c.Request.Context(), scope)
		c.Request = c.Request.WithContext(ctx)

		c.Set("user_id", scope.UserID)

		c.Next()
	}
}

// RequireCapability gates a route on one capability. The services enforce
// their own capability checks too; this keeps obviously-forbidden requests
// from reaching the transaction layer.
func RequireCapability(cap security.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope := security.GetScope(c.Request.Context())
		if scope == nil {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}

		if !scope.Can(cap) {
			_ = c.Error(
				apperror.NewForbidden("insufficient permissions").
					WithDetail("required", string(cap)),
			)
			c.Abort()
			return
		}

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
