package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/JustJay7/docket-dashboard/internal/config"
	"github.com/JustJay7/docket-dashboard/internal/dashboard"
	"github.com/JustJay7/docket-dashboard/pkg/logger"
)

// SetupRoutes configures all application routes
func SetupRoutes(router *gin.Engine, db *gorm.DB, dash *dashboard.Service, logger *logger.Logger, cfg *config.Config) {
	h := NewHandlers(db, dash, logger, cfg)

	api := router.Group("/api")
	{
		api.GET("/health", h.HealthCheck)
		api.GET("/options", h.Options)

		// NOS reference and counts
		api.GET("/nos/reference", h.NOSReference)
		api.GET("/nos/counts", h.NOSCounts)

		// Filing series
		api.GET("/filings", h.Filings)
		api.GET("/filings/courts", h.FilingsByCourt)
		api.GET("/filings/nos", h.FilingsByNOS)

		api.GET("/courts/counts", h.CourtCounts)
		api.GET("/courts/top", h.TopCourts)

		api.GET("/latency", h.Latency)
		api.GET("/completeness", h.Completeness)
		api.GET("/dashboard", h.Dashboard)

		// Cache stats
		api.GET("/cache/stats", h.CacheStats)
		api.DELETE("/cache", h.ClearCache)
	}
}
