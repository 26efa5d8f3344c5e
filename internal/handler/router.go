package handler

import (
	"github.com/eaglebank/ai-engine/internal/middleware"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// NewRouter registers the AI routes and the health check. Access logs are
// written through logger.
func NewRouter(ai *AIHandler, health *HealthHandler, logger *log.Entry) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.LoggingMiddleware(logger), gin.Recovery())

	router.GET("/health", health.Health)

	aiRoutes := router.Group("/ai")
	{
		aiRoutes.POST("/suggest", ai.Suggest)
		aiRoutes.POST("/fraud-check", ai.FraudCheck)
	}

	return router
}
