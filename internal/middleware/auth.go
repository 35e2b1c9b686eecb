package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tms-portal/internal/auth"
	"tms-portal/internal/models"
)

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentUser(c).Authenticated {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		c.Next()
	}
}

// RequireRole lets the request through only for the exact role.
func RequireRole(role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := CurrentUser(c)
		if !ident.Authenticated {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		if !auth.Authorize(ident, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		c.Next()
	}
}
