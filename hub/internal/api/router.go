package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func SetupRouter(handler *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	// The dashboard is served from a different origin
	router.Use(cors.Default())

	// Health check
	router.GET("/health", handler.HealthCheck)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api")
	{
		api.GET("/agents", handler.GetAgents)
		api.POST("/agents/:id/scan", handler.TriggerScan)
		api.GET("/scans", handler.GetScans)
		api.GET("/logs", handler.GetLogs)
	}

	return router
}
