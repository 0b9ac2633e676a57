// Package httpapi serves the product catalog as a browse page and a JSON
// query API.
package httpapi

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Config holds HTTP server settings.
type Config struct {
	AllowedOrigins []string
	RateLimit      float64 // requests per second across all clients; 0 disables limiting
	RateBurst      int
	Release        bool // run gin in release mode
}

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg Config, handler *Handler) *gin.Engine {
	if cfg.Release {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.AllowedOrigins))
	if cfg.RateLimit > 0 {
		burst := max(cfg.RateBurst, 1)
		router.Use(RateLimitMiddleware(rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)))
	}

	router.GET("/health", handler.HealthCheck)
	router.GET("/", handler.Index)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", handler.ListProducts)
		v1.GET("/products/:id", handler.GetProduct)
		v1.GET("/categories", handler.ListCategories)
	}

	return router
}
