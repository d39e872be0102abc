package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-records-api/internal/service"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
	"github.com/noah-isme/school-records-api/pkg/response"
)

// RequirePermission allows the request when the caller's role grants
// permission, e.g. "student:create".
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := CurrentUser(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !service.HasPermission(claims.Role, permission) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "missing permission "+permission))
			c.Abort()
			return
		}
		c.Next()
	}
}
