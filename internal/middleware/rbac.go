package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-portal-api/internal/models"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
	"github.com/noah-isme/student-portal-api/pkg/response"
)

// RequireRoles lets the request through only when the identity holds one of
// roles. A missing identity is 401, a wrong role 403.
func RequireRoles(roles ...models.RoleName) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := CurrentIdentity(c)
		if identity == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		if !identity.HasRole(roles...) {
			response.Error(c, appErrors.ErrForbidden)
			return
		}
		c.Next()
	}
}
