package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"shopcore/internal/core/apperror"
	appctx "shopcore/internal/core/context"
)

// JWTValidator validates an access token and extracts the user context.
type JWTValidator interface {
	ValidateToken(tokenString string) (*appctx.UserContext, error)
}

// Auth validates the Bearer token and injects the user into the request
// context. Requests without a valid token are rejected.
func Auth(validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Error(apperror.NewUnauthorized("missing authorization token"))
			c.Abort()
			return
		}

		userCtx, err := validator.ValidateToken(token)
		if err != nil {
			c.Error(apperror.NewUnauthorized("invalid or expired token"))
			c.Abort()
			return
		}

		ctx := appctx.WithUser(c.Request.Context(), userCtx)
		c.Request = c.Request.WithContext(ctx)
		c.Set("user_id", userCtx.UserID)
		c.Next()
	}
}

// OptionalAuth injects the user context when a valid token is present but
// lets anonymous requests through.
func OptionalAuth(validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if userCtx, err := validator.ValidateToken(token); err == nil {
				ctx := appctx.WithUser(c.Request.Context(), userCtx)
				c.Request = c.Request.WithContext(ctx)
				c.Set("user_id", userCtx.UserID)
			}
		}
		c.Next()
	}
}

// RequireRole rejects authenticated users that hold none of the given roles.
// Admins always pass.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		user := appctx.GetUser(ctx)
		if user == nil {
			c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}
		if user.IsAdmin {
			c.Next()
			return
		}
		for _, role := range roles {
			if appctx.HasRole(ctx, role) {
				c.Next()
				return
			}
		}
		c.Error(apperror.NewForbidden("insufficient role"))
		c.Abort()
	}
}

// RequireCapability rejects authenticated users lacking the capability.
// Admins implicitly carry all capabilities.
func RequireCapability(capability string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if appctx.GetUser(ctx) == nil {
			c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}
		if !appctx.HasCapability(ctx, capability) {
			c.Error(apperror.NewForbidden("missing capability: " + capability))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects non-admin users.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := appctx.GetUser(c.Request.Context())
		if user == nil {
			c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}
		if !user.IsAdmin {
			c.Error(apperror.NewForbidden("admin access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
