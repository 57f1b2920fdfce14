package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"quote_api/internal/logging"

	"github.com/gin-gonic/gin"
)

// Recovery turns a panic into the 500 envelope and logs the stack.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logging.FromContext(c.Request.Context()).Error("panic recovered",
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())))
				if c.Writer.Written() {
					c.Abort()
					return
				}
				abortWithMessage(c, http.StatusInternalServerError, "Internal server error")
			}
		}()
		c.Next()
	}
}
