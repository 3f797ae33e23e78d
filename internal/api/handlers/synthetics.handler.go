package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/models"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/synthetics"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/pkg/logger"
)

// SyntheticsHandler controls the probe scheduler and exposes ad-hoc runs.
type SyntheticsHandler struct {
	scheduler *synthetics.Scheduler
	baseCtx   context.Context
	logger    logger.Logger
}

// NewSyntheticsHandler builds the handler. baseCtx outlives individual
// requests and parents the scheduler loops started over the API.
func NewSyntheticsHandler(s *synthetics.Scheduler, baseCtx context.Context, log logger.Logger) *SyntheticsHandler {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &SyntheticsHandler{scheduler: s, baseCtx: baseCtx, logger: log}
}

// GetStatus reports whether the scheduler is running, the configured
// monitors and the most recent ad-hoc results.
func (h *SyntheticsHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.scheduler.Status())
}

// Start launches the background probe loops.
func (h *SyntheticsHandler) Start(c *gin.Context) {
	h.scheduler.Start(h.baseCtx)
	c.JSON(http.StatusOK, gin.H{"running": h.scheduler.Running()})
}

// Stop halts the probe loops and waits for in-flight probes.
func (h *SyntheticsHandler) Stop(c *gin.Context) {
	h.scheduler.Stop()
	c.JSON(http.StatusOK, gin.H{"running": h.scheduler.Running()})
}

// RunAll probes every configured monitor once, serially, and returns the
// full set of outcomes.
func (h *SyntheticsHandler) RunAll(c *gin.Context) {
	results := h.scheduler.RunOnce(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// RunSingle probes a caller-supplied monitor once, with full side effects.
func (h *SyntheticsHandler) RunSingle(c *gin.Context) {
	var m models.Monitor
	if err := c.ShouldBindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid monitor payload"})
		return
	}
	result, err := h.scheduler.RunSingle(c.Request.Context(), m)
	if errors.Is(err, synthetics.ErrInvalidMonitor) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// Test probes a caller-supplied monitor without recording anything.
func (h *SyntheticsHandler) Test(c *gin.Context) {
	var m models.Monitor
	if err := c.ShouldBindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid monitor payload"})
		return
	}
	result, err := h.scheduler.Test(c.Request.Context(), m)
	if errors.Is(err, synthetics.ErrInvalidMonitor) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}
