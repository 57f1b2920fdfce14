package handler

import (
	"net/http"

	"quote_api/internal/model"
	"quote_api/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	service service.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(s service.AuthService) *AuthHandler {
	return &AuthHandler{service: s}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		respondBindError(c, err, "Email, username and password are required")
		return
	}

	user, token, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusCreated, "User registered successfully", model.AuthResponse{
		User: model.UserSummary{
			ID:       user.ID,
			Email:    user.Email,
			Username: user.Username,
			Role:     user.Role,
		},
		Token: token,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		respondBindError(c, err, "Email and password are required")
		return
	}

	user, token, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respond(c, http.StatusOK, "Login successful", model.AuthResponse{
		User: model.UserSummary{
			ID:       user.ID,
			Email:    user.Email,
			Username: user.Username,
		},
		Token: token,
	})
}

// RegisterAuthRoutes registers auth routes
func (h *AuthHandler) RegisterAuthRoutes(rg *gin.RouterGroup) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}
}
