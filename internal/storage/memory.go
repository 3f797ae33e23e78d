package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/models"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/pkg/logger"
)

const (
	memMaxRequests  = 20000
	memMaxLogs      = 5000
	memMaxAlerts    = 1000
	memMaxChecks    = 5000
	memMaxSnapshots = 200
)

type requestRow struct {
	endpoint string
	status   int
	duration float64
	ts       int64
}

type checkRow struct {
	id       int64
	service  string
	status   models.ServiceStatus
	response float64
	ts       int64
}

// memoryTimeSeriesStore is the bounded in-memory fallback used when the
// SQLite store cannot be opened. Oldest rows are evicted at the caps.
type memoryTimeSeriesStore struct {
	mu        sync.RWMutex
	requests  []requestRow
	logs      []models.LogEntry
	alerts    []models.Alert
	checks    []checkRow
	snapshots []models.ErrorSnapshot
	checkSeq  int64
	logger    logger.Logger
}

// NewMemoryTimeSeriesStore returns the in-memory TimeSeriesStore fallback.
func NewMemoryTimeSeriesStore(log logger.Logger) TimeSeriesStore {
	log.Warn("durable store unavailable; using bounded in-memory time-series store")
	return &memoryTimeSeriesStore{logger: log}
}

func (m *memoryTimeSeriesStore) InsertRequest(ctx context.Context, endpoint string, status int, durationMs float64, ts time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, requestRow{endpoint, status, durationMs, ts.UnixMilli()})
	if len(m.requests) > memMaxRequests {
		m.requests = m.requests[len(m.requests)-memMaxRequests:]
	}
	return nil
}

func (m *memoryTimeSeriesStore) InsertLog(ctx context.Context, entry models.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, entry)
	if len(m.logs) > memMaxLogs {
		m.logs = m.logs[len(m.logs)-memMaxLogs:]
	}
	return nil
}

func (m *memoryTimeSeriesStore) InsertAlert(ctx context.Context, alert models.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.alerts {
		if m.alerts[i].ID == alert.ID {
			m.alerts[i] = alert
			return nil
		}
	}
	m.alerts = append(m.alerts, alert)
	if len(m.alerts) > memMaxAlerts {
		m.alerts = m.alerts[len(m.alerts)-memMaxAlerts:]
	}
	return nil
}

func (m *memoryTimeSeriesStore) InsertServiceCheck(ctx context.Context, service string, status models.ServiceStatus, responseMs float64, ts time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkSeq++
	m.checks = append(m.checks, checkRow{m.checkSeq, service, status, responseMs, ts.UnixMilli()})
	if len(m.checks) > memMaxChecks {
		m.checks = m.checks[len(m.checks)-memMaxChecks:]
	}
	return nil
}

func (m *memoryTimeSeriesStore) InsertErrorSnapshot(ctx context.Context, snap models.ErrorSnapshot) error {
	snap.RequestHeaders = models.RedactHeaders(snap.RequestHeaders)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, snap)
	if len(m.snapshots) > memMaxSnapshots {
		m.snapshots = m.snapshots[len(m.snapshots)-memMaxSnapshots:]
	}
	return nil
}

func (m *memoryTimeSeriesStore) LatencySeries(ctx context.Context, endpoint string, window models.TimeWindow, bucket time.Duration) ([]models.LatencyBucket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ts []int64
	var durations []float64
	for _, r := range m.requests {
		if r.endpoint == endpoint && inWindow(r.ts, window) {
			ts = append(ts, r.ts)
			durations = append(durations, r.duration)
		}
	}
	return latencyBucketsFromSamples(ts, durations, bucket), nil
}

func (m *memoryTimeSeriesStore) ErrorRateSeries(ctx context.Context, endpoint string, window models.TimeWindow, bucket time.Duration) ([]models.ErrorRateBucket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	type agg struct{ total, errors int64 }
	grouped := map[int64]*agg{}
	for _, r := range m.requests {
		if r.endpoint != endpoint || !inWindow(r.ts, window) {
			continue
		}
		b := bucketStart(r.ts, bucket)
		a := grouped[b]
		if a == nil {
			a = &agg{}
			grouped[b] = a
		}
		a.total++
		if r.status >= 400 {
			a.errors++
		}
	}

	out := make([]models.ErrorRateBucket, 0, len(grouped))
	for b, a := range grouped {
		rate := 0.0
		if a.total > 0 {
			rate = round1(float64(a.errors) / float64(a.total) * 100)
		}
		out = append(out, models.ErrorRateBucket{Timestamp: b, Total: a.total, Errors: a.errors, Rate: rate})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

func (m *memoryTimeSeriesStore) RequestSeries(ctx context.Context, endpoint string, window models.TimeWindow, bucket time.Duration) ([]models.RequestBucket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	grouped := map[int64]int64{}
	for _, r := range m.requests {
		if r.endpoint == endpoint && inWindow(r.ts, window) {
			grouped[bucketStart(r.ts, bucket)]++
		}
	}
	out := make([]models.RequestBucket, 0, len(grouped))
	for b, n := range grouped {
		out = append(out, models.RequestBucket{Timestamp: b, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

func (m *memoryTimeSeriesStore) SLOSummary(ctx context.Context, endpoint string, windowHours int, availabilityTarget float64, targetP95 int64) (models.SLOSummary, error) {
	if windowHours < 1 {
		windowHours = 24
	}
	from := time.Now().Add(-time.Duration(windowHours) * time.Hour).UnixMilli()

	m.mu.RLock()
	defer m.mu.RUnlock()
	var total, errors int64
	var durations []float64
	for _, r := range m.requests {
		if r.endpoint != endpoint || r.ts < from {
			continue
		}
		total++
		if r.status >= 500 {
			errors++
		}
		durations = append(durations, r.duration)
	}
	return buildSLOSummary(endpoint, windowHours, availabilityTarget, targetP95, total, errors, durations), nil
}

func (m *memoryTimeSeriesStore) Incidents(ctx context.Context, window models.TimeWindow, limit int) ([]models.Incident, error) {
	if limit < 1 {
		limit = 50
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Incident
	for _, a := range m.alerts {
		ts := a.CreatedAt.UnixMilli()
		if !inWindow(ts, window) {
			continue
		}
		out = append(out, models.Incident{
			Kind:      "alert",
			ID:        a.ID,
			Service:   a.Service,
			Severity:  string(a.Type),
			Message:   a.Message,
			Details:   a.Details,
			Status:    string(a.Status),
			Timestamp: ts,
		})
	}
	for _, c := range m.checks {
		if c.status == models.StatusHealthy || !inWindow(c.ts, window) {
			continue
		}
		out = append(out, models.Incident{
			Kind:       "service_check",
			ID:         fmt.Sprintf("check-%d", c.id),
			Service:    c.service,
			Status:     string(c.status),
			ResponseMs: int64(c.response),
			Timestamp:  c.ts,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryTimeSeriesStore) ErrorSnapshots(ctx context.Context, limit int) ([]models.SnapshotRef, error) {
	if limit < 1 {
		limit = 50
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.SnapshotRef, 0, limit)
	for i := len(m.snapshots) - 1; i >= 0 && len(out) < limit; i-- {
		s := m.snapshots[i]
		out = append(out, models.SnapshotRef{
			ID:        s.ID,
			Source:    s.Source,
			Endpoint:  s.Endpoint,
			Method:    s.Method,
			Status:    s.Status,
			TraceID:   s.TraceID,
			Timestamp: s.Timestamp,
		})
	}
	return out, nil
}

func (m *memoryTimeSeriesStore) ErrorSnapshotByID(ctx context.Context, id string) (models.ErrorSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.snapshots) - 1; i >= 0; i-- {
		if m.snapshots[i].ID == id {
			return m.snapshots[i], nil
		}
	}
	return models.ErrorSnapshot{}, ErrSnapshotNotFound
}

func (m *memoryTimeSeriesStore) Close() error { return nil }

// inWindow bounds are inclusive on both ends, matching the SQL BETWEEN
// semantics of the sqlite store.
func inWindow(tsMillis int64, w models.TimeWindow) bool {
	return tsMillis >= w.From.UnixMilli() && tsMillis <= w.To.UnixMilli()
}
