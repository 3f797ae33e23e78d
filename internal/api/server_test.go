package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/api/websocket"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/bus"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/collector"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/config"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/models"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/services"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/simulator"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/storage"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/synthetics"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/tracing"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/pkg/cache"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/pkg/logger"
)

func newTestServer(t *testing.T) (*Server, *collector.Collector, storage.TimeSeriesStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewNop()
	eventBus := bus.New(log)
	t.Cleanup(eventBus.Close)

	coll := collector.New(eventBus, log, collector.Options{})
	cacheStore := cache.NewMemoryStore(log)
	tsStore := storage.NewMemoryTimeSeriesStore(log)
	settings := services.NewSettingsService(cacheStore, log)
	notifier := services.NewNotifier(log)
	prober := synthetics.NewProber(tracing.NewProbeTracer("test"), log)
	scheduler := synthetics.NewScheduler(prober, coll, notifier, settings, log)
	t.Cleanup(scheduler.Stop)
	sim := simulator.New(coll, 5, 3, log)
	t.Cleanup(sim.Stop)
	hub := websocket.NewHub(config.WebSocketConfig{}, log)

	cfg := &config.Config{
		Environment: "test",
		Port:        0,
		Monitoring:  config.MonitoringConfig{Enabled: false},
		WebSocket:   config.WebSocketConfig{Enabled: true},
	}

	srv := NewServer(cfg, Deps{
		Collector: coll,
		Scheduler: scheduler,
		Simulator: sim,
		Settings:  settings,
		Notifier:  notifier,
		Store:     tsStore,
		Cache:     cacheStore,
		Bus:       eventBus,
		Hub:       hub,
		BaseCtx:   context.Background(),
	}, log)
	return srv, coll, tsStore
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	// The in-memory settings store reports itself as a fallback.
	assert.Equal(t, "fallback", body["cache"])
}

func TestDashboardDataReflectsRecordedTraffic(t *testing.T) {
	srv, coll, _ := newTestServer(t)

	coll.RecordRequest("/api/users", 120, 200)
	coll.RecordRequest("/api/users", 300, 500)

	w := doJSON(t, srv, http.MethodGet, "/api/dashboard-data", "")
	require.Equal(t, http.StatusOK, w.Code)

	var snap models.MetricSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, int64(2), snap.Stats.TotalRequests)
	assert.InDelta(t, 50.0, snap.Stats.ErrorRate, 0.01)
}

func TestAlertLifecycleOverAPI(t *testing.T) {
	srv, coll, _ := newTestServer(t)

	coll.RecordRequest("/api/orders", 100, 503)

	w := doJSON(t, srv, http.MethodGet, "/api/alerts", "")
	require.Equal(t, http.StatusOK, w.Code)

	var listBody struct {
		Alerts []models.Alert `json:"alerts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listBody))
	require.NotEmpty(t, listBody.Alerts)
	id := listBody.Alerts[0].ID

	w = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/alerts/%s/acknowledge", id), "")
	require.Equal(t, http.StatusOK, w.Code)

	var ackBody struct {
		Alert models.Alert `json:"alert"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ackBody))
	assert.Equal(t, models.AlertAcknowledged, ackBody.Alert.Status)
	assert.NotNil(t, ackBody.Alert.AcknowledgedAt)

	w = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/alerts/%s/resolve", id), "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/api/alerts/no-such-id/resolve", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestThresholdsRoundTripAndValidation(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/api/alert-thresholds", "")
	require.Equal(t, http.StatusOK, w.Code)

	var current models.Thresholds
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &current))
	assert.Equal(t, models.DefaultThresholds(), current)

	w = doJSON(t, srv, http.MethodPost, "/api/alert-thresholds",
		`{"errorRate":10,"responseTime":800,"cpuUsage":90,"memoryUsage":85,"databaseQueryTime":600}`)
	require.Equal(t, http.StatusOK, w.Code)

	var updated models.Thresholds
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, 10.0, updated.ErrorRate)
	assert.Equal(t, 800.0, updated.ResponseTime)

	w = doJSON(t, srv, http.MethodPost, "/api/alert-thresholds", `{"errorRate":150}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettingsRoundTrip(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/api/settings", "")
	require.Equal(t, http.StatusOK, w.Code)

	var defaults models.Settings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &defaults))
	assert.Empty(t, defaults.Monitors)

	w = doJSON(t, srv, http.MethodPost, "/api/settings",
		`{"monitors":[{"name":"checkout","url":"https://example.com/health","method":"get"}]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var saved models.Settings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))
	require.Len(t, saved.Monitors, 1)
	assert.Equal(t, "GET", saved.Monitors[0].Method)
	assert.Equal(t, 200, saved.Monitors[0].ExpectedStatus)

	w = doJSON(t, srv, http.MethodGet, "/api/settings", "")
	require.Equal(t, http.StatusOK, w.Code)
	var reread models.Settings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reread))
	require.Len(t, reread.Monitors, 1)
}

func TestSyntheticsStatusAndValidation(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/api/synthetics/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var status synthetics.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.False(t, status.Running)

	w = doJSON(t, srv, http.MethodPost, "/api/synthetics/run", `{"name":"broken"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/api/synthetics/test", `{"name":"broken"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSyntheticsStartStop(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/api/synthetics/start", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"running":true`)

	w = doJSON(t, srv, http.MethodPost, "/api/synthetics/stop", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"running":false`)
}

func TestSimulatorStartStop(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/api/simulator/start", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"running":true`)

	w = doJSON(t, srv, http.MethodPost, "/api/simulator/stop", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"running":false`)
}

func TestSeriesEndpoints(t *testing.T) {
	srv, _, tsStore := newTestServer(t)

	ctx := context.Background()
	now := time.Now()
	for i := 0; i < 10; i++ {
		status := 200
		if i == 0 {
			status = 503
		}
		require.NoError(t, tsStore.InsertRequest(ctx, "/api/users", status, float64(100+i*10), now.Add(-time.Duration(i)*time.Minute)))
	}

	w := doJSON(t, srv, http.MethodGet, "/api/series/latency?endpoint=/api/users&hours=1&bucketMin=60", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"p95"`)

	w = doJSON(t, srv, http.MethodGet, "/api/series/error-rate?endpoint=/api/users&hours=1&bucketMin=60", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/api/series/requests?endpoint=/api/users&hours=1&bucketMin=60", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/api/slo/summary?endpoint=/api/users&hours=1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var slo models.SLOSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &slo))
	assert.InDelta(t, 90.0, slo.Availability, 0.01)
}

func TestSeriesEndpointsRequireEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	paths := []string{
		"/api/series/latency?hours=1",
		"/api/series/error-rate?hours=1",
		"/api/series/requests?hours=1",
		"/api/slo/summary?hours=1",
	}
	for _, path := range paths {
		w := doJSON(t, srv, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.Contains(t, w.Body.String(), "endpoint is required", path)
	}
}

func TestIncidentsEndpoint(t *testing.T) {
	srv, _, tsStore := newTestServer(t)

	alert := models.Alert{
		ID:        "a1",
		Type:      models.AlertError,
		Service:   "API Server",
		Message:   "something broke",
		Status:    models.AlertActive,
		CreatedAt: time.Now(),
	}
	require.NoError(t, tsStore.InsertAlert(context.Background(), alert))

	w := doJSON(t, srv, http.MethodGet, "/api/incidents?hours=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "something broke")
}

func TestErrorSnapshotEndpoints(t *testing.T) {
	srv, _, tsStore := newTestServer(t)

	snap := models.ErrorSnapshot{
		ID:        "snap-1",
		Source:    "api",
		Endpoint:  "/api/users",
		Method:    "GET",
		Status:    500,
		Timestamp: time.Now().UnixMilli(),
	}
	require.NoError(t, tsStore.InsertErrorSnapshot(context.Background(), snap))

	w := doJSON(t, srv, http.MethodGet, "/api/error-snapshots", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "snap-1")

	w = doJSON(t, srv, http.MethodGet, "/api/error-snapshots/snap-1", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/api/error-snapshots/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInstrumentationFeedsCollector(t *testing.T) {
	srv, coll, _ := newTestServer(t)

	doJSON(t, srv, http.MethodGet, "/api/dashboard-data", "")
	doJSON(t, srv, http.MethodGet, "/api/alerts", "")

	snap := coll.Snapshot()
	assert.Equal(t, int64(2), snap.Stats.TotalRequests)
}

func TestStreamSkippedFromInstrumentation(t *testing.T) {
	srv, coll, _ := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/stream", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Contains(t, w.Body.String(), "event: connected")
	assert.Equal(t, int64(0), coll.Snapshot().Stats.TotalRequests)
}
