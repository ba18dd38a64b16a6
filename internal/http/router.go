package http

import (
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go.ngs.io/currents-tiles/internal/usecase"
)

// SetupRouter creates and configures the Gin router.
func SetupRouter(tiles *usecase.TileService) *gin.Engine {

	router := gin.Default()

	// Setup CORS middleware.
	corsConfig := cors.DefaultConfig()

	// Get allowed origins from environment variable.
	// Default to allow all origins if not specified.
	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if allowedOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(allowedOrigins, ",")
	} else {
		corsConfig.AllowAllOrigins = true
	}

	router.Use(cors.New(corsConfig))

	// Create handler.
	handler := NewHandler(tiles)

	// API v1 routes.
	v1 := router.Group("/v1")
	// Index files.
	v1.GET("/depths", handler.GetDepths)
	v1.GET("/times", handler.GetTimes)
	// Tiles.
	v1.GET("/tiles/:time/:depth", handler.GetTile)

	// Health check and metrics.
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
