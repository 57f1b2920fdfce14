package handler

import (
	"net/http"

	"quote_api/internal/middleware"
	"quote_api/internal/model"
	"quote_api/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler serves the caller's own profile
type UserHandler struct {
	service service.AuthService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(s service.AuthService) *UserHandler {
	return &UserHandler{service: s}
}

func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.service.GetUserByID(c.Request.Context(), c.GetString(middleware.AuthUserKey))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, "User profile retrieved successfully", user)
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req model.UpdateUserRequest
	if err := bindJSON(c, &req); err != nil {
		respondBindError(c, err, "Invalid user fields")
		return
	}

	user, err := h.service.UpdateUser(c.Request.Context(), c.GetString(middleware.AuthUserKey), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, "User updated successfully", user)
}

func (h *UserHandler) DeleteMe(c *gin.Context) {
	if err := h.service.DeleteUser(c.Request.Context(), c.GetString(middleware.AuthUserKey)); err != nil {
		handleServiceError(c, err)
		return
	}
	respond(c, http.StatusOK, "User deleted successfully", nil)
}

// RegisterUserRoutes registers the /users routes behind authMW
func (h *UserHandler) RegisterUserRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	users := rg.Group("/users", authMW)
	{
		users.GET("/me", h.GetMe)
		users.PUT("/me", h.UpdateMe)
		users.DELETE("/me", h.DeleteMe)
	}
}
