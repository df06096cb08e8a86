// Package handlers contains the server-level HTTP handlers: health checks
// and route discovery.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/seasontracker/internal/database"
	"github.com/mantonx/seasontracker/internal/modules/modulemanager"
	"gorm.io/gorm"
)

// ModuleHealth reports the health of the loaded modules.
type ModuleHealth interface {
	HealthReport(ctx context.Context) []modulemanager.HealthStatus
}

// HealthHandler serves the health endpoints.
type HealthHandler struct {
	db      *gorm.DB
	modules ModuleHealth
	version string
}

// NewHealthHandler creates a HealthHandler. modules may be nil.
func NewHealthHandler(db *gorm.DB, modules ModuleHealth, version string) *HealthHandler {
	return &HealthHandler{db: db, modules: modules, version: version}
}

// HandleHealthCheck returns the basic health status of the service and its modules.
// Any unhealthy module turns the response into a 503.
func (h *HealthHandler) HandleHealthCheck(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{
		"status":  "ok",
		"service": "seasontracker",
		"version": h.version,
	}

	if h.modules != nil {
		report := h.modules.HealthReport(c.Request.Context())
		for _, m := range report {
			if m.Status == modulemanager.HealthStateUnhealthy {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
			}
		}
		body["modules"] = report
	}

	c.JSON(status, body)
}

// HandleDatabaseHealth pings the database and reports pool statistics.
func (h *HealthHandler) HandleDatabaseHealth(c *gin.Context) {
	if err := database.HealthCheck(c.Request.Context(), h.db); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	stats, err := database.Stats(h.db)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "Failed to get connection stats: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"connection_pool": stats,
	})
}
