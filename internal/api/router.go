package api

import (
	"net/http"

	"github.com/frostdev-ops/merchant-insights/internal/api/handlers"
	"github.com/frostdev-ops/merchant-insights/internal/api/middleware"
	"github.com/frostdev-ops/merchant-insights/internal/config"
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/tracking"
	"github.com/frostdev-ops/merchant-insights/pkg/logger"
	"github.com/frostdev-ops/merchant-insights/pkg/utils"
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the main HTTP router
func NewRouter(cfg *config.Config, deps handlers.Dependencies, sessions *tracking.SessionStore, log *logger.BatchLogger) *gin.Engine {
	switch cfg.Server.Mode {
	case "production", gin.ReleaseMode:
		gin.SetMode(gin.ReleaseMode)
	case gin.TestMode:
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true

	// Global middleware
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.ErrorHandlingMiddleware(log.Logger))
	router.Use(middleware.LoggingMiddleware(log))
	router.Use(middleware.CORSMiddleware(cfg.Security.AllowedOrigins))
	if deps.Metrics != nil {
		router.Use(middleware.MetricsMiddleware(deps.Metrics))
	}

	router.NoRoute(func(c *gin.Context) {
		utils.SendError(c, http.StatusNotFound, "Endpoint not found")
	})
	router.NoMethod(func(c *gin.Context) {
		utils.SendError(c, http.StatusMethodNotAllowed, "Method not allowed")
	})

	h := handlers.NewHandlers(cfg, deps, log.Logger)

	// Public routes
	router.GET("/health", h.Health)
	if deps.Metrics != nil && cfg.Monitoring.Prometheus.Enabled {
		router.GET(cfg.Monitoring.Prometheus.Path, gin.WrapH(deps.Metrics.Handler()))
	}

	// API v1 routes
	api := router.Group("/api/v1")
	{
		stores := api.Group("/stores/:store")
		stores.Use(middleware.SessionMiddleware(sessions))
		{
			stores.GET("/overview", h.GetOverview)
			stores.GET("/analytics", h.GetAnalytics)
			stores.GET("/views/:view/latest", h.GetLatestView)

			stores.POST("/reports", h.BuildReport)
			stores.GET("/reports/:type", h.GetLastReport)
			stores.GET("/reports/:type/export", h.ExportReport)
		}
	}

	return router
}
