package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/collector"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/pkg/cache"
)

// DashboardHandler serves the aggregate snapshot consumed by the dashboard.
type DashboardHandler struct {
	collector *collector.Collector
	store     cache.Store
	startedAt time.Time
}

func NewDashboardHandler(c *collector.Collector, store cache.Store) *DashboardHandler {
	return &DashboardHandler{collector: c, store: store, startedAt: time.Now()}
}

// GetDashboardData returns the full current metric snapshot.
func (h *DashboardHandler) GetDashboardData(c *gin.Context) {
	c.JSON(http.StatusOK, h.collector.Snapshot())
}

// HealthCheck reports process liveness and dependency status.
func (h *DashboardHandler) HealthCheck(c *gin.Context) {
	cacheStatus := "connected"
	if err := h.store.HealthCheck(c.Request.Context()); err != nil {
		cacheStatus = "fallback"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"uptime":  time.Since(h.startedAt).Round(time.Second).String(),
		"cache":   cacheStatus,
		"version": "1.0.0",
	})
}
