package handler

import (
	"net/http"

	"quote_api/internal/config"
	"quote_api/internal/middleware"
	"quote_api/internal/model"

	"github.com/gin-gonic/gin"
)

// RouterConfig wires handlers and middleware into the engine. Auth and
// user handlers are optional; without AuthMiddleware quote routes are open.
type RouterConfig struct {
	Quotes  *QuoteHandler
	Auth    *AuthHandler
	Users   *UserHandler
	Health  *HealthHandler
	Metrics *middleware.Metrics

	AuthMiddleware gin.HandlerFunc
	QuoteAccess    string
	MaxBodyBytes   int64
	Tracing        []gin.HandlerFunc
}

// NewRouter builds the gin engine with the full route table.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false
	router.HandleMethodNotAllowed = false

	router.Use(middleware.Recovery(), middleware.CORSMiddleware(), middleware.RequestID())
	router.Use(cfg.Tracing...)
	router.Use(middleware.Logging())
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware())
	}
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, model.APIResponse{StatusCode: http.StatusNotFound, Message: "Route not found"})
	})

	root := router.Group("/")

	readMW, writeMW := quoteMiddleware(cfg.QuoteAccess, cfg.AuthMiddleware)
	cfg.Quotes.RegisterQuoteRoutes(root, readMW, writeMW)

	if cfg.Auth != nil {
		cfg.Auth.RegisterAuthRoutes(root)
	}
	if cfg.Users != nil && cfg.AuthMiddleware != nil {
		cfg.Users.RegisterUserRoutes(root, cfg.AuthMiddleware)
	}
	if cfg.Health != nil {
		router.GET("/health", cfg.Health.Health)
	}
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	return router
}

// quoteMiddleware returns the read and write chains for the access mode.
func quoteMiddleware(access string, authMW gin.HandlerFunc) (read, write []gin.HandlerFunc) {
	if authMW == nil {
		return nil, nil
	}
	switch access {
	case config.AccessAuthenticated:
		chain := []gin.HandlerFunc{authMW, middleware.UserMiddleware()}
		return chain, chain
	case config.AccessAdmin:
		return []gin.HandlerFunc{authMW, middleware.UserMiddleware()},
			[]gin.HandlerFunc{authMW, middleware.AdminMiddleware()}
	default:
		return nil, nil
	}
}
