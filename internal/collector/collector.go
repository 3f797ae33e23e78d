// Package collector owns the live metric snapshot. Every producer (request
// instrumentation, query instrumentation, probes, the simulator, the alert
// engine) mutates it only through the operations here; a single mutex
// serializes all writers because the derived fields are read-then-written.
package collector

import (
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/bus"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/models"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/monitoring"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/pkg/logger"
)

// ErrAlertNotFound is returned by UpdateAlertStatus for an unknown alert id.
var ErrAlertNotFound = errors.New("alert not found")

const (
	maxAlerts          = 100
	maxLogs            = 1000
	maxSlowQueries     = 10
	maxRecentSnapshots = 50
	slowQueryMs        = 100
	slowRequestMs      = 500
	maxPoolConnections = 20
)

// alertMessagePath extracts the "/path" out of messages shaped like
// "Server error on /api/orders" for best-effort trace correlation.
var alertMessagePath = regexp.MustCompile(`on (/\S+)`)

// Options configures a Collector.
type Options struct {
	// DedupCooldown suppresses repeated alerts with the same
	// (type, service, message) key. Zero disables deduplication.
	DedupCooldown time.Duration
	// Ignore404Endpoints lists endpoints whose 404 responses never log
	// or alert.
	Ignore404Endpoints []string
	Thresholds         models.Thresholds
}

// Collector is the single source of truth for live metrics.
type Collector struct {
	mu         sync.Mutex
	snapshot   models.MetricSnapshot
	endpoints  map[string]int // endpoint name -> index into snapshot.Endpoints
	dedup      map[string]time.Time
	recent     []models.ErrorSnapshot // newest first, for trace correlation
	thresholds models.Thresholds
	ignore404  map[string]struct{}
	cooldown   time.Duration
	rng        *rand.Rand

	bus    *bus.Bus
	logger logger.Logger
}

func New(eventBus *bus.Bus, log logger.Logger, opts Options) *Collector {
	ignore := make(map[string]struct{}, len(opts.Ignore404Endpoints))
	for _, e := range opts.Ignore404Endpoints {
		ignore[e] = struct{}{}
	}
	thresholds := opts.Thresholds
	if thresholds == (models.Thresholds{}) {
		thresholds = models.DefaultThresholds()
	}

	return &Collector{
		snapshot: models.MetricSnapshot{
			Stats:     models.Stats{Uptime: 100},
			Endpoints: []models.EndpointMetrics{},
			DatabaseMetrics: models.DatabaseMetrics{
				Connections: models.ConnectionStats{Max: maxPoolConnections, Idle: maxPoolConnections},
				SlowQueries: []models.SlowQuery{},
			},
			ServiceHealth: []models.ServiceHealth{},
			Alerts:        []models.Alert{},
			Logs:          []models.LogEntry{},
		},
		endpoints:  make(map[string]int),
		dedup:      make(map[string]time.Time),
		thresholds: thresholds,
		ignore404:  ignore,
		cooldown:   opts.DedupCooldown,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		bus:        eventBus,
		logger:     log,
	}
}

// RecordRequest folds one observed HTTP request into the snapshot. A single
// request can raise up to two alerts: one for the status class and one for a
// slow response.
func (c *Collector) RecordRequest(endpoint string, durationMs float64, statusCode int) {
	now := time.Now()
	isError := statusCode >= 400
	ignored404 := statusCode == 404 && c.isIgnored404(endpoint)

	c.mu.Lock()

	c.snapshot.Stats.TotalRequests++

	idx, ok := c.endpoints[endpoint]
	if !ok {
		idx = len(c.snapshot.Endpoints)
		c.endpoints[endpoint] = idx
		c.snapshot.Endpoints = append(c.snapshot.Endpoints, newEndpointMetrics(endpoint))
	}
	ep := &c.snapshot.Endpoints[idx]
	ep.Requests++
	if isError {
		ep.Errors++
	}

	slot := &ep.ResponseTime[now.Hour()]
	slot.Value = slot.Value*0.8 + durationMs*0.2

	c.recomputeDerivedLocked()

	statsCopy := c.snapshot.Stats
	epCopy := copyEndpoint(*ep)

	var logEntry *models.LogEntry
	if isError && !ignored404 {
		entry := models.LogEntry{
			ID:        uuid.NewString(),
			Endpoint:  endpoint,
			Status:    statusCode,
			Message:   fmt.Sprintf("Request to %s returned %d", endpoint, statusCode),
			Timestamp: now,
			Duration:  durationMs,
		}
		c.snapshot.Logs = append([]models.LogEntry{entry}, c.snapshot.Logs...)
		if len(c.snapshot.Logs) > maxLogs {
			c.snapshot.Logs = c.snapshot.Logs[:maxLogs]
		}
		logEntry = &entry
	}

	c.mu.Unlock()

	c.bus.Publish(bus.EventAPIRequest, map[string]interface{}{
		"endpoint": endpoint,
		"status":   statusCode,
		"duration": durationMs,
		"ts":       now,
	})
	c.bus.Publish(bus.EventStatsChanged, statsCopy)
	c.bus.Publish(bus.EventEndpointChanged, epCopy)
	if logEntry != nil {
		c.bus.Publish(bus.EventLogAppended, *logEntry)
	}

	switch {
	case statusCode >= 500:
		c.RaiseAlert(models.AlertError, "API",
			fmt.Sprintf("Server error on %s", endpoint),
			fmt.Sprintf("Status %d after %.0fms", statusCode, durationMs))
	case isError && !ignored404:
		c.RaiseAlert(models.AlertWarning, "API",
			fmt.Sprintf("Client error on %s", endpoint),
			fmt.Sprintf("Status %d after %.0fms", statusCode, durationMs))
	}
	if durationMs > slowRequestMs {
		c.RaiseAlert(models.AlertWarning, "API",
			fmt.Sprintf("Slow response on %s", endpoint),
			fmt.Sprintf("%.0fms exceeds %dms budget", durationMs, slowRequestMs))
	}
}

// RecordDatabaseQuery folds one observed database query into the snapshot.
func (c *Collector) RecordDatabaseQuery(query string, durationMs float64) {
	now := time.Now()

	c.mu.Lock()
	q := &c.snapshot.DatabaseMetrics.Queries
	q.Total++
	q.Average = q.Average + (durationMs-q.Average)/float64(q.Total)

	if durationMs > slowQueryMs {
		q.Slow++
		entry := models.SlowQuery{
			Query:     truncateQuery(query),
			Duration:  durationMs,
			Timestamp: now,
		}
		c.snapshot.DatabaseMetrics.SlowQueries = append(
			[]models.SlowQuery{entry}, c.snapshot.DatabaseMetrics.SlowQueries...)
		if len(c.snapshot.DatabaseMetrics.SlowQueries) > maxSlowQueries {
			c.snapshot.DatabaseMetrics.SlowQueries =
				c.snapshot.DatabaseMetrics.SlowQueries[:maxSlowQueries]
		}
	}

	// Pool gauges are simulated until a real pool snapshot is wired in.
	active := 1 + c.rng.Intn(10)
	c.snapshot.DatabaseMetrics.Connections = models.ConnectionStats{
		Active:         active,
		Idle:           maxPoolConnections - active,
		Max:            maxPoolConnections,
		UsedPercentage: float64(active) / float64(maxPoolConnections) * 100,
	}

	dbCopy := copyDatabaseMetrics(c.snapshot.DatabaseMetrics)
	c.mu.Unlock()

	c.bus.Publish(bus.EventDBChanged, dbCopy)

	if durationMs > c.Thresholds().DatabaseQueryTime {
		c.RaiseAlert(models.AlertWarning, "Database",
			"Slow database query detected",
			fmt.Sprintf("%.0fms: %s", durationMs, truncateQuery(query)))
	}
}

// RecordServiceHealth updates the named service's record and raises a
// transition alert when the status changed.
func (c *Collector) RecordServiceHealth(name string, status models.ServiceStatus, responseTimeMs float64, uptimeLabel string) {
	now := time.Now()
	if uptimeLabel == "" {
		uptimeLabel = "100%"
	}

	c.mu.Lock()
	var prev models.ServiceStatus
	found := false
	for i := range c.snapshot.ServiceHealth {
		if c.snapshot.ServiceHealth[i].Name == name {
			prev = c.snapshot.ServiceHealth[i].Status
			found = true
			c.snapshot.ServiceHealth[i].Status = status
			c.snapshot.ServiceHealth[i].ResponseTime = responseTimeMs
			c.snapshot.ServiceHealth[i].Uptime = uptimeLabel
			c.snapshot.ServiceHealth[i].LastChecked = now
			break
		}
	}
	if !found {
		c.snapshot.ServiceHealth = append(c.snapshot.ServiceHealth, models.ServiceHealth{
			Name:         name,
			Status:       status,
			ResponseTime: responseTimeMs,
			Uptime:       uptimeLabel,
			LastChecked:  now,
		})
	}
	var svcCopy models.ServiceHealth
	for i := range c.snapshot.ServiceHealth {
		if c.snapshot.ServiceHealth[i].Name == name {
			svcCopy = c.snapshot.ServiceHealth[i]
		}
	}
	c.mu.Unlock()

	c.bus.Publish(bus.EventServiceChanged, svcCopy)

	if !found || prev == status {
		return
	}
	switch status {
	case models.StatusUnhealthy:
		c.RaiseAlert(models.AlertError, name,
			fmt.Sprintf("%s is unhealthy", name),
			fmt.Sprintf("Status changed from %s to %s", prev, status))
	case models.StatusDegraded:
		c.RaiseAlert(models.AlertWarning, name,
			fmt.Sprintf("%s is degraded", name),
			fmt.Sprintf("Status changed from %s to %s", prev, status))
	case models.StatusHealthy:
		c.RaiseAlert(models.AlertInfo, name,
			fmt.Sprintf("%s recovered", name),
			fmt.Sprintf("Status changed from %s to %s", prev, status))
	}
}

// RaiseAlert creates a new active alert unless the same (type, service,
// message) was raised within the dedup cooldown. The alert's trace id is
// correlated best-effort from recent error snapshots.
func (c *Collector) RaiseAlert(alertType models.AlertType, service, message, details string) {
	now := time.Now()
	key := string(alertType) + "|" + service + "|" + message

	c.mu.Lock()
	if last, ok := c.dedup[key]; ok && c.cooldown > 0 && now.Sub(last) < c.cooldown {
		c.mu.Unlock()
		return
	}
	c.dedup[key] = now

	alert := models.Alert{
		ID:        uuid.NewString(),
		Type:      alertType,
		Message:   message,
		Service:   service,
		Details:   details,
		Status:    models.AlertActive,
		TraceID:   c.correlateTraceLocked(message),
		CreatedAt: now,
	}
	c.snapshot.Alerts = append([]models.Alert{alert}, c.snapshot.Alerts...)
	if len(c.snapshot.Alerts) > maxAlerts {
		c.snapshot.Alerts = c.snapshot.Alerts[:maxAlerts]
	}
	c.mu.Unlock()

	monitoring.RecordAlertRaised(string(alertType))
	c.logger.Warn("alert raised", "type", string(alertType), "service", service, "message", message)
	c.bus.Publish(bus.EventAlertChanged, alert)
}

// UpdateAlertStatus applies an operator ack/resolve action. The alert moves
// to the front of the list; lifecycle timestamps are set exactly once.
func (c *Collector) UpdateAlertStatus(id string, action models.AlertAction) (models.Alert, error) {
	now := time.Now()

	c.mu.Lock()
	idx := -1
	for i := range c.snapshot.Alerts {
		if c.snapshot.Alerts[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		c.mu.Unlock()
		return models.Alert{}, ErrAlertNotFound
	}

	alert := c.snapshot.Alerts[idx]
	switch action {
	case models.ActionAck:
		if alert.Status == models.AlertActive {
			alert.Status = models.AlertAcknowledged
			t := now
			alert.AcknowledgedAt = &t
		}
	case models.ActionResolve:
		if alert.Status != models.AlertResolved {
			alert.Status = models.AlertResolved
			t := now
			alert.ResolvedAt = &t
		}
	default:
		c.mu.Unlock()
		return models.Alert{}, fmt.Errorf("unknown alert action: %s", action)
	}

	c.snapshot.Alerts = append(c.snapshot.Alerts[:idx], c.snapshot.Alerts[idx+1:]...)
	c.snapshot.Alerts = append([]models.Alert{alert}, c.snapshot.Alerts...)
	c.mu.Unlock()

	c.bus.Publish(bus.EventAlertChanged, alert)
	return alert, nil
}

// RecordErrorSnapshot retains the snapshot for trace correlation and emits
// it on the bus for persistence.
func (c *Collector) RecordErrorSnapshot(snap models.ErrorSnapshot) {
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.Timestamp == 0 {
		snap.Timestamp = time.Now().UnixMilli()
	}

	c.mu.Lock()
	c.recent = append([]models.ErrorSnapshot{snap}, c.recent...)
	if len(c.recent) > maxRecentSnapshots {
		c.recent = c.recent[:maxRecentSnapshots]
	}
	c.mu.Unlock()

	c.bus.Publish(bus.EventErrorSnapshot, snap)
}

// Snapshot refreshes the resource gauges and returns a deep copy of the
// aggregate.
func (c *Collector) Snapshot() models.MetricSnapshot {
	c.refreshResources()

	c.mu.Lock()
	defer c.mu.Unlock()
	return copySnapshot(c.snapshot)
}

// Thresholds returns the current alert thresholds.
func (c *Collector) Thresholds() models.Thresholds {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.thresholds
}

// SetThresholds replaces the alert thresholds. Takes effect on the engine's
// next evaluation tick.
func (c *Collector) SetThresholds(t models.Thresholds) {
	c.mu.Lock()
	c.thresholds = t
	c.mu.Unlock()
	c.logger.Info("alert thresholds updated",
		"errorRate", t.ErrorRate, "responseTime", t.ResponseTime,
		"cpuUsage", t.CPUUsage, "memoryUsage", t.MemoryUsage,
		"databaseQueryTime", t.DatabaseQueryTime)
}

func (c *Collector) isIgnored404(endpoint string) bool {
	_, ok := c.ignore404[endpoint]
	return ok
}

// correlateTraceLocked parses an endpoint path out of the alert message and
// returns the trace id of the newest matching error snapshot, if any. Best
// effort; callers must not depend on it.
func (c *Collector) correlateTraceLocked(message string) string {
	m := alertMessagePath.FindStringSubmatch(message)
	if m == nil {
		return ""
	}
	for _, snap := range c.recent {
		if snap.Endpoint == m[1] && snap.TraceID != "" {
			return snap.TraceID
		}
	}
	return ""
}

func (c *Collector) recomputeDerivedLocked() {
	var totalErrors int64
	var sum float64
	var slots int
	for i := range c.snapshot.Endpoints {
		ep := &c.snapshot.Endpoints[i]
		totalErrors += ep.Errors
		for _, p := range ep.ResponseTime {
			sum += p.Value
			slots++
		}
	}
	if c.snapshot.Stats.TotalRequests > 0 {
		c.snapshot.Stats.ErrorRate =
			float64(totalErrors) / float64(c.snapshot.Stats.TotalRequests) * 100
	}
	if slots > 0 {
		c.snapshot.Stats.AvgResponseTime = sum / float64(slots)
	}
	c.snapshot.Stats.Uptime = 100 - c.snapshot.Stats.ErrorRate
}

func newEndpointMetrics(name string) models.EndpointMetrics {
	series := make([]models.TimePoint, models.HourSlots)
	for h := range series {
		series[h] = models.TimePoint{Time: fmt.Sprintf("%02d:00", h)}
	}
	return models.EndpointMetrics{Name: name, ResponseTime: series}
}

func truncateQuery(q string) string {
	if len(q) > 100 {
		return q[:100]
	}
	return q
}

func copyEndpoint(ep models.EndpointMetrics) models.EndpointMetrics {
	out := ep
	out.ResponseTime = append([]models.TimePoint(nil), ep.ResponseTime...)
	return out
}

func copyDatabaseMetrics(db models.DatabaseMetrics) models.DatabaseMetrics {
	out := db
	out.SlowQueries = append([]models.SlowQuery(nil), db.SlowQueries...)
	return out
}

func copySnapshot(s models.MetricSnapshot) models.MetricSnapshot {
	out := s
	out.Endpoints = make([]models.EndpointMetrics, len(s.Endpoints))
	for i, ep := range s.Endpoints {
		out.Endpoints[i] = copyEndpoint(ep)
	}
	out.DatabaseMetrics = copyDatabaseMetrics(s.DatabaseMetrics)
	out.ServiceHealth = append([]models.ServiceHealth(nil), s.ServiceHealth...)
	out.Alerts = append([]models.Alert(nil), s.Alerts...)
	out.Logs = append([]models.LogEntry(nil), s.Logs...)
	return out
}
