package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/models"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/storage"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/pkg/logger"
)

// SeriesHandler serves the historical time-series, SLO and incident views
// backed by the time-series store.
type SeriesHandler struct {
	store  storage.TimeSeriesStore
	logger logger.Logger
}

func NewSeriesHandler(store storage.TimeSeriesStore, log logger.Logger) *SeriesHandler {
	return &SeriesHandler{store: store, logger: log}
}

// seriesParams are the shared query parameters of the series endpoints.
type seriesParams struct {
	endpoint string
	window   models.TimeWindow
	bucket   time.Duration
}

func (h *SeriesHandler) params(c *gin.Context) seriesParams {
	hours := intQuery(c, "hours", 24)
	if hours < 1 {
		hours = 1
	}
	if hours > 24*30 {
		hours = 24 * 30
	}
	bucketMin := intQuery(c, "bucketMin", 5)
	if bucketMin < 1 {
		bucketMin = 1
	}
	now := time.Now()
	return seriesParams{
		endpoint: c.Query("endpoint"),
		window:   models.TimeWindow{From: now.Add(-time.Duration(hours) * time.Hour), To: now},
		bucket:   time.Duration(bucketMin) * time.Minute,
	}
}

// requireEndpoint rejects series queries without an endpoint, since every
// series is per-endpoint.
func requireEndpoint(c *gin.Context) (string, bool) {
	endpoint := c.Query("endpoint")
	if endpoint == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endpoint is required"})
		return "", false
	}
	return endpoint, true
}

// GetLatencySeries returns bucketed latency percentiles.
func (h *SeriesHandler) GetLatencySeries(c *gin.Context) {
	if _, ok := requireEndpoint(c); !ok {
		return
	}
	p := h.params(c)
	series, err := h.store.LatencySeries(c.Request.Context(), p.endpoint, p.window, p.bucket)
	if err != nil {
		h.fail(c, "latency series query failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"series": series})
}

// GetErrorRateSeries returns bucketed error rates.
func (h *SeriesHandler) GetErrorRateSeries(c *gin.Context) {
	if _, ok := requireEndpoint(c); !ok {
		return
	}
	p := h.params(c)
	series, err := h.store.ErrorRateSeries(c.Request.Context(), p.endpoint, p.window, p.bucket)
	if err != nil {
		h.fail(c, "error-rate series query failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"series": series})
}

// GetRequestSeries returns bucketed request counts.
func (h *SeriesHandler) GetRequestSeries(c *gin.Context) {
	if _, ok := requireEndpoint(c); !ok {
		return
	}
	p := h.params(c)
	series, err := h.store.RequestSeries(c.Request.Context(), p.endpoint, p.window, p.bucket)
	if err != nil {
		h.fail(c, "request series query failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"series": series})
}

// GetSLOSummary returns availability, error budget and latency compliance
// over the requested window.
func (h *SeriesHandler) GetSLOSummary(c *gin.Context) {
	endpoint, ok := requireEndpoint(c)
	if !ok {
		return
	}
	hours := intQuery(c, "hours", 24)
	target := floatQuery(c, "target", 99.9)
	p95 := int64(intQuery(c, "p95", 500))
	summary, err := h.store.SLOSummary(c.Request.Context(), endpoint, hours, target, p95)
	if err != nil {
		h.fail(c, "slo summary query failed", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetIncidents returns the merged alert and failed-check timeline.
func (h *SeriesHandler) GetIncidents(c *gin.Context) {
	p := h.params(c)
	limit := intQuery(c, "limit", 100)
	if limit < 1 || limit > 500 {
		limit = 100
	}
	incidents, err := h.store.Incidents(c.Request.Context(), p.window, limit)
	if err != nil {
		h.fail(c, "incidents query failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"incidents": incidents})
}

// ListErrorSnapshots returns the most recent snapshot references.
func (h *SeriesHandler) ListErrorSnapshots(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	refs, err := h.store.ErrorSnapshots(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, "snapshot list query failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": refs})
}

// GetErrorSnapshot returns one snapshot with full, redacted detail.
func (h *SeriesHandler) GetErrorSnapshot(c *gin.Context) {
	snapshot, err := h.store.ErrorSnapshotByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, storage.ErrSnapshotNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "snapshot not found"})
		return
	}
	if err != nil {
		h.fail(c, "snapshot query failed", err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *SeriesHandler) fail(c *gin.Context, msg string, err error) {
	h.logger.Error(msg, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func floatQuery(c *gin.Context, key string, fallback float64) float64 {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}
