package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-portal-api/internal/models"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
	"github.com/noah-isme/student-portal-api/pkg/response"
)

// ContextIdentityKey is the gin context key storing the resolved identity.
const ContextIdentityKey = "currentIdentity"

// IdentityResolver maps a session token to an identity, or nil.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) *models.Identity
}

// TokenFromRequest reads the bearer token, falling back to the session cookie.
func TokenFromRequest(c *gin.Context, cookieName string) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookieName == "" {
		return ""
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

// Authenticate rejects requests without a resolvable identity with 401.
func Authenticate(resolver IdentityResolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := resolver.Resolve(c.Request.Context(), TokenFromRequest(c, cookieName))
		if identity == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		c.Set(ContextIdentityKey, identity)
		c.Next()
	}
}

// OptionalIdentity attaches the identity when present but does not block.
func OptionalIdentity(resolver IdentityResolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := TokenFromRequest(c, cookieName); token != "" {
			if identity := resolver.Resolve(c.Request.Context(), token); identity != nil {
				c.Set(ContextIdentityKey, identity)
			}
		}
		c.Next()
	}
}

// CurrentIdentity returns the identity attached by Authenticate or OptionalIdentity.
func CurrentIdentity(c *gin.Context) *models.Identity {
	value, exists := c.Get(ContextIdentityKey)
	if !exists {
		return nil
	}
	identity, _ := value.(*models.Identity)
	return identity
}
