package middleware

import (
	"quote_api/internal/model"

	"github.com/gin-gonic/gin"
)

func abortWithMessage(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, model.APIResponse{StatusCode: status, Message: message})
}
