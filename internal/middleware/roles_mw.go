package middleware

import (
	"net/http"
	"slices"

	"quote_api/internal/model"

	"github.com/gin-gonic/gin"
)

// RoleMiddleware creates a middleware to check for specific user roles
func RoleMiddleware(deniedMessage string, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetString(AuthRoleKey)
		if userRole == "" {
			abortWithMessage(c, http.StatusForbidden, deniedMessage)
			return
		}

		if !slices.Contains(allowedRoles, userRole) {
			abortWithMessage(c, http.StatusForbidden, deniedMessage)
			return
		}

		c.Next()
	}
}

// AdminMiddleware checks if the user is an admin
func AdminMiddleware() gin.HandlerFunc {
	return RoleMiddleware("Access denied. Admin role required.", model.RoleAdmin)
}

// UserMiddleware admits any authenticated role
func UserMiddleware() gin.HandlerFunc {
	return RoleMiddleware("Access denied.", model.RoleUser, model.RoleAdmin)
}
