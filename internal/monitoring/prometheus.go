// Package monitoring exposes the server's own Prometheus metrics.
//
// Usage:
//
//  1. Setup metrics in your main function:
//     router := gin.New()
//     monitoring.SetupPrometheusMetrics(router)
//
//  2. Add HTTP metrics middleware:
//     router.Use(monitoring.HTTPMetricsMiddleware())
//
// Available metrics:
//
//   - apimon_http_requests_total{method, endpoint, status_code}
//   - apimon_http_request_duration_seconds{method, endpoint}
//   - apimon_active_connections
//   - apimon_bus_events_published_total{event_type}
//   - apimon_bus_events_dropped_total{subscriber}
//   - apimon_probe_runs_total{monitor, result}
//   - apimon_probe_duration_seconds{monitor}
//   - apimon_store_writes_total{record, status}
//   - apimon_alerts_raised_total{type}
//   - apimon_stream_clients
//   - apimon_errors_total{type, component}
//   - apimon_build_info{version, component, go_version}
package monitoring

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apimon_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "apimon_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	activeConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "apimon_active_connections",
			Help: "Number of in-flight HTTP requests",
		},
	)

	// Event bus metrics
	busEventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apimon_bus_events_published_total",
			Help: "Total number of events published on the internal bus",
		},
		[]string{"event_type"},
	)

	busEventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apimon_bus_events_dropped_total",
			Help: "Events dropped because a subscriber's buffer was full",
		},
		[]string{"subscriber"},
	)

	// Synthetic probe metrics
	probeRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apimon_probe_runs_total",
			Help: "Total number of synthetic probe executions",
		},
		[]string{"monitor", "result"}, // result: ok, failed
	)

	probeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "apimon_probe_duration_seconds",
			Help:    "Synthetic probe round-trip duration in seconds",
			Buckets: []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"monitor"},
	)

	// Time-series store metrics
	storeWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apimon_store_writes_total",
			Help: "Total number of time-series store writes",
		},
		[]string{"record", "status"}, // record: request, log, alert, service_check, error_snapshot
	)

	// Alert metrics
	alertsRaisedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apimon_alerts_raised_total",
			Help: "Total number of alerts raised after deduplication",
		},
		[]string{"type"},
	)

	// Live stream gauge (SSE + WebSocket clients)
	streamClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "apimon_stream_clients",
			Help: "Number of connected live-stream clients",
		},
	)

	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apimon_errors_total",
			Help: "Total number of errors",
		},
		[]string{"type", "component"},
	)
)

// SetupPrometheusMetrics registers the metric vectors and exposes /metrics.
func SetupPrometheusMetrics(router gin.IRoutes) {
	_ = prometheus.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "apimon_build_info",
		Help: "Build information for the monitoring server",
		ConstLabels: prometheus.Labels{
			"version":    "v1.0.0",
			"component":  "apimon-server",
			"go_version": "1.24",
		},
	}, func() float64 { return 1 }))

	// Ignore AlreadyRegistered so tests can call setup repeatedly.
	_ = prometheus.Register(httpRequestsTotal)
	_ = prometheus.Register(httpRequestDuration)
	_ = prometheus.Register(activeConnections)
	_ = prometheus.Register(busEventsPublished)
	_ = prometheus.Register(busEventsDropped)
	_ = prometheus.Register(probeRunsTotal)
	_ = prometheus.Register(probeDuration)
	_ = prometheus.Register(storeWritesTotal)
	_ = prometheus.Register(alertsRaisedTotal)
	_ = prometheus.Register(streamClients)
	_ = prometheus.Register(errorsTotal)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// HTTPMetricsMiddleware collects HTTP request metrics.
func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		endpoint := normalizeEndpoint(c.Request.URL.Path)

		activeConnections.Inc()
		defer activeConnections.Dec()

		c.Next()

		statusCode := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		httpRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
		httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration)

		if c.Writer.Status() >= 400 {
			errorsTotal.WithLabelValues("http", endpoint).Inc()
		}
	}
}

// RecordBusPublish records one published bus event.
func RecordBusPublish(eventType string) {
	busEventsPublished.WithLabelValues(eventType).Inc()
}

// RecordBusDrop records one event dropped on a full subscriber buffer.
func RecordBusDrop(subscriber string) {
	busEventsDropped.WithLabelValues(subscriber).Inc()
}

// RecordProbeRun records one synthetic probe execution.
func RecordProbeRun(monitor string, duration time.Duration, ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
		errorsTotal.WithLabelValues("probe", monitor).Inc()
	}
	probeRunsTotal.WithLabelValues(monitor, result).Inc()
	probeDuration.WithLabelValues(monitor).Observe(duration.Seconds())
}

// RecordStoreWrite records one time-series store write.
func RecordStoreWrite(record string, success bool) {
	status := "success"
	if !success {
		status = "error"
		errorsTotal.WithLabelValues("store", record).Inc()
	}
	storeWritesTotal.WithLabelValues(record, status).Inc()
}

// RecordAlertRaised records one alert that survived deduplication.
func RecordAlertRaised(alertType string) {
	alertsRaisedTotal.WithLabelValues(alertType).Inc()
}

// StreamClientConnected adjusts the live-stream client gauge.
func StreamClientConnected()    { streamClients.Inc() }
func StreamClientDisconnected() { streamClients.Dec() }

// normalizeEndpoint replaces numeric path segments so metrics stay low
// cardinality.
func normalizeEndpoint(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if isNumeric(part) && i > 0 {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
