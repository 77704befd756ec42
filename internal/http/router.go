package http

import (
	"github.com/gin-gonic/gin"

	"github.com/containerhub/containerhub/internal/auth"
	"github.com/containerhub/containerhub/internal/entities"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply auth middleware if enabled
	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	} else {
		// No auth - every request acts as an admin of the default org
		router.Use(func(c *gin.Context) {
			c.Set(auth.ContextKeyUserID, auth.DefaultUserID)
			c.Set(auth.ContextKeyRole, entities.UserRoleAdmin)
			c.Set(auth.ContextKeyOrgID, cfg.DefaultOrgID)
			c.Next()
		})
	}

	// Create controllers with appropriate interfaces
	health := NewHealthController(cfg.Database, cfg.ImportRegistry, cfg.Version)
	itemsController := NewItemsController(cfg.ItemStore)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Catalog API endpoints
	router.GET("/api/items", itemsController.List)
	router.GET("/api/items/:id", itemsController.Get)
	router.POST("/api/items", auth.RequireWriter(), itemsController.Create)
	router.POST("/api/items/bulk", auth.RequireWriter(), itemsController.BulkCreate)
	router.PUT("/api/items/:id", auth.RequireWriter(), itemsController.Update)
	router.DELETE("/api/items/:id", auth.RequireAdmin(), itemsController.Delete)

	// Fetch proxy endpoint
	if cfg.Fetcher != nil {
		fetchProxyController := NewFetchProxyController(cfg.Fetcher)
		router.POST("/api/fetch-proxy", auth.RequireWriter(), fetchProxyController.Fetch)
	}

	// Import run endpoints
	if cfg.ImportRunner != nil && cfg.ImportRegistry != nil {
		importsController := NewImportsController(cfg.ImportRunner, cfg.ImportRegistry)
		router.POST("/api/import/runs", auth.RequireWriter(), importsController.StartRun)
		router.GET("/api/import/runs/:id", importsController.GetRun)
		router.POST("/api/import/runs/:id/cancel", auth.RequireWriter(), importsController.CancelRun)
		router.GET("/api/import/runs/:id/result", importsController.GetResult)
	}

	// User and token management endpoints
	if cfg.AuthService != nil && cfg.AuthService.IsAuthEnabled() {
		usersController := NewUsersController(cfg.AuthService)
		router.POST("/api/users", auth.RequireAdmin(), usersController.CreateUser)
		router.POST("/api/auth/token", usersController.GenerateToken)
		router.DELETE("/api/auth/token", usersController.RevokeToken)
	}

	return router
}
