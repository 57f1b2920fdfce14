package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"quote_api/internal/logging"
	"quote_api/internal/model"
	"quote_api/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	AuthUserKey = "authUser"
	AuthRoleKey = "authRole"
)

// Authenticator resolves a bearer token to its stored user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// JWTAuthMiddleware creates a middleware for JWT authentication. The role is
// read from the stored user, not from the token.
func JWTAuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithMessage(c, http.StatusUnauthorized, "No authorization header")
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortWithMessage(c, http.StatusUnauthorized, "No token provided")
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			var authErr *service.AuthError
			if errors.As(err, &authErr) {
				abortWithMessage(c, http.StatusUnauthorized, authErr.Message)
				return
			}
			logging.FromContext(c.Request.Context()).Error("authentication failed", "error", err)
			abortWithMessage(c, http.StatusInternalServerError, "Internal server error")
			return
		}

		// Set user information in context
		c.Set(AuthUserKey, user.ID)
		c.Set(AuthRoleKey, user.Role)

		c.Next()
	}
}
