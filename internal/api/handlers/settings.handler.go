package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/models"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/services"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/synthetics"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/pkg/logger"
)

// SettingsHandler reads and writes the persisted monitor settings. Saving
// restarts a running scheduler so new monitors take effect immediately.
type SettingsHandler struct {
	settings  *services.SettingsService
	scheduler *synthetics.Scheduler
	baseCtx   context.Context
	logger    logger.Logger
}

func NewSettingsHandler(settings *services.SettingsService, scheduler *synthetics.Scheduler, baseCtx context.Context, log logger.Logger) *SettingsHandler {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &SettingsHandler{settings: settings, scheduler: scheduler, baseCtx: baseCtx, logger: log}
}

// GetSettings returns the current settings, sanitized.
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.settings.Get(c.Request.Context()))
}

// SaveSettings validates, persists and applies new settings.
func (h *SettingsHandler) SaveSettings(c *gin.Context) {
	var settings models.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings payload"})
		return
	}

	saved, err := h.settings.Save(c.Request.Context(), settings)
	if err != nil {
		h.logger.Error("failed to save settings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save settings"})
		return
	}

	if h.scheduler.Running() {
		h.scheduler.Stop()
		h.scheduler.Start(h.baseCtx)
	}

	c.JSON(http.StatusOK, saved)
}
