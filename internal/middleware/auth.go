package middleware

import (
	"context"
	"errors"

	"github.com/LeBonSushi/ft-transcendence-sub000/internal/auth"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/constants"
	apierrors "github.com/LeBonSushi/ft-transcendence-sub000/internal/errors"
	"github.com/gin-gonic/gin"
)

// Authenticator resolves a bearer token to the identity of a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
}

// RequireAuth checks the Bearer token of the request
func RequireAuth(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := auth.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		identity, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				apierrors.Unauthorized(c, "Invalid or expired token")
			} else {
				apierrors.Respond(c, err)
			}
			c.Abort()
			return
		}

		// Store user ID in context for easy access in handlers
		c.Set(constants.ContextKeyUserID, identity.ID)
		c.Set(constants.ContextKeyIdentity, *identity)
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}

// GetIdentity retrieves the sanitized identity set by RequireAuth
func GetIdentity(c *gin.Context) (auth.Identity, bool) {
	v, exists := c.Get(constants.ContextKeyIdentity)
	if !exists {
		return auth.Identity{}, false
	}
	identity, ok := v.(auth.Identity)
	return identity, ok
}
