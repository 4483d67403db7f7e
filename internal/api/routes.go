package api

import (
	"github.com/gin-gonic/gin"
	"github.com/irfndi/finsight-ml-go/internal/api/handlers"
)

// SetupRoutes registers the service banner, health check and engine API.
func SetupRoutes(router *gin.Engine, engineHandler *handlers.EngineHandler, healthHandler *handlers.HealthHandler) {
	router.GET("/", healthHandler.Root)
	router.GET("/health", healthHandler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/anomaly/detect", engineHandler.DetectAnomalies)
		v1.POST("/forecast/generate", engineHandler.GenerateForecast)
		v1.POST("/health/score", engineHandler.CalculateHealthScore)
		v1.POST("/insights/generate", engineHandler.GenerateInsights)
		v1.POST("/goals/recommend", engineHandler.RecommendGoals)
		v1.POST("/predict/category", engineHandler.PredictCategory)
	}
}
