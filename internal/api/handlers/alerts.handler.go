package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/collector"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/models"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/services"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/pkg/logger"
)

// AlertsHandler exposes the alert list, the lifecycle actions and the
// threshold contract.
type AlertsHandler struct {
	collector *collector.Collector
	notifier  *services.Notifier
	settings  *services.SettingsService
	logger    logger.Logger
}

func NewAlertsHandler(c *collector.Collector, notifier *services.Notifier, settings *services.SettingsService, log logger.Logger) *AlertsHandler {
	return &AlertsHandler{collector: c, notifier: notifier, settings: settings, logger: log}
}

// ListAlerts returns the current alert list, newest first.
func (h *AlertsHandler) ListAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"alerts": h.collector.Snapshot().Alerts})
}

// AcknowledgeAlert marks an alert acknowledged.
func (h *AlertsHandler) AcknowledgeAlert(c *gin.Context) {
	h.updateStatus(c, models.ActionAck)
}

// ResolveAlert marks an alert resolved.
func (h *AlertsHandler) ResolveAlert(c *gin.Context) {
	h.updateStatus(c, models.ActionResolve)
}

func (h *AlertsHandler) updateStatus(c *gin.Context, action models.AlertAction) {
	alert, err := h.collector.UpdateAlertStatus(c.Param("id"), action)
	if errors.Is(err, collector.ErrAlertNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alert": alert})
}

// TestNotifications sends a test message to every configured channel and
// reports the per-channel outcome.
func (h *AlertsHandler) TestNotifications(c *gin.Context) {
	settings := h.settings.Get(c.Request.Context())
	results := h.notifier.Test(c.Request.Context(), settings.Alerts)
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// GetThresholds returns the current alert thresholds.
func (h *AlertsHandler) GetThresholds(c *gin.Context) {
	c.JSON(http.StatusOK, h.collector.Thresholds())
}

// SetThresholds replaces the alert thresholds. Invalid values are rejected
// without partially applying.
func (h *AlertsHandler) SetThresholds(c *gin.Context) {
	var t models.Thresholds
	if err := c.ShouldBindJSON(&t); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid thresholds payload"})
		return
	}
	if err := validateThresholds(t); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.collector.SetThresholds(t)
	c.JSON(http.StatusOK, h.collector.Thresholds())
}

func validateThresholds(t models.Thresholds) error {
	switch {
	case t.ErrorRate < 0 || t.ErrorRate > 100:
		return errors.New("errorRate must be between 0 and 100")
	case t.ResponseTime < 0:
		return errors.New("responseTime cannot be negative")
	case t.CPUUsage < 0 || t.CPUUsage > 100:
		return errors.New("cpuUsage must be between 0 and 100")
	case t.MemoryUsage < 0 || t.MemoryUsage > 100:
		return errors.New("memoryUsage must be between 0 and 100")
	case t.DatabaseQueryTime < 0:
		return errors.New("databaseQueryTime cannot be negative")
	}
	return nil
}
