package monitoring

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupPrometheusMetricsExposesEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupPrometheusMetrics(router)

	RecordBusPublish("stats-changed")
	RecordBusDrop("sse")
	RecordProbeRun("checkout", 120*time.Millisecond, true)
	RecordStoreWrite("request", true)
	RecordAlertRaised("warning")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "apimon_build_info"))
	assert.True(t, strings.Contains(body, "apimon_bus_events_published_total"))
	assert.True(t, strings.Contains(body, "apimon_probe_runs_total"))
}

func TestHTTPMetricsMiddlewareCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(HTTPMetricsMiddleware())
	SetupPrometheusMetrics(router)
	router.GET("/api/orders/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders/42", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.True(t, strings.Contains(w.Body.String(), `endpoint="/api/orders/:id"`))
}

func TestNormalizeEndpoint(t *testing.T) {
	assert.Equal(t, "/api/orders/:id", normalizeEndpoint("/api/orders/42"))
	assert.Equal(t, "/api/orders", normalizeEndpoint("/api/orders"))
	assert.Equal(t, "/", normalizeEndpoint("/"))
}
