package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRole must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)
		if !ok || role == "" {
			abort(c, http.StatusUnauthorized, "Authentication required")
			return
		}
		if role != required {
			abort(c, http.StatusForbidden, "Access denied. Insufficient permissions")
			return
		}
		c.Next()
	}
}
