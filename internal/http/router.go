package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Store, cfg.Sync, cfg.Version)
	clippings := NewClippingsController(cfg.Importer, cfg.TaskQueue)

	// Health endpoints
	router.GET("/api/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Clippings endpoints
	router.POST("/api/clippings/preview", clippings.Preview)
	router.POST("/api/clippings/import", clippings.Import)

	// Task management endpoints
	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue)
		router.POST("/api/clippings/import/async", clippings.ImportAsync)
		router.GET("/api/tasks/:id", tasksController.GetTaskStatus)
	}

	return router
}
