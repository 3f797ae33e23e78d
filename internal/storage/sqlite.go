package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/models"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/pkg/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS requests (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	endpoint TEXT NOT NULL,
	status INTEGER NOT NULL,
	duration_ms REAL NOT NULL,
	ts INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_requests_endpoint_ts ON requests(endpoint, ts);

CREATE TABLE IF NOT EXISTS logs (
	id TEXT PRIMARY KEY,
	endpoint TEXT NOT NULL,
	status INTEGER NOT NULL,
	message TEXT NOT NULL,
	duration_ms REAL NOT NULL,
	ts INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS alerts (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	service TEXT NOT NULL,
	message TEXT NOT NULL,
	details TEXT,
	status TEXT NOT NULL,
	trace_id TEXT,
	ts INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_alerts_ts ON alerts(ts);

CREATE TABLE IF NOT EXISTS service_checks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	service TEXT NOT NULL,
	status TEXT NOT NULL,
	response_ms REAL NOT NULL,
	ts INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_service_checks_ts ON service_checks(ts);

CREATE TABLE IF NOT EXISTS error_snapshots (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	endpoint TEXT NOT NULL,
	method TEXT NOT NULL,
	status INTEGER NOT NULL,
	request_headers TEXT,
	request_body TEXT,
	response_snippet TEXT,
	trace_id TEXT,
	ts INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_error_snapshots_ts ON error_snapshots(ts);
`

// sqliteStore is the durable TimeSeriesStore backed by SQLite.
type sqliteStore struct {
	db     *sql.DB
	logger logger.Logger
}

// NewSQLiteStore opens (creating if needed) the database at path and applies
// the schema.
func NewSQLiteStore(path string, log logger.Logger) (TimeSeriesStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &sqliteStore{db: db, logger: log}, nil
}

func (s *sqliteStore) InsertRequest(ctx context.Context, endpoint string, status int, durationMs float64, ts time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO requests (endpoint, status, duration_ms, ts) VALUES (?, ?, ?, ?)`,
		endpoint, status, durationMs, ts.UnixMilli())
	return err
}

func (s *sqliteStore) InsertLog(ctx context.Context, entry models.LogEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO logs (id, endpoint, status, message, duration_ms, ts) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Endpoint, entry.Status, entry.Message, entry.Duration, entry.Timestamp.UnixMilli())
	return err
}

func (s *sqliteStore) InsertAlert(ctx context.Context, alert models.Alert) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alerts (id, type, service, message, details, status, trace_id, ts)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET status = excluded.status`,
		alert.ID, string(alert.Type), alert.Service, alert.Message, alert.Details,
		string(alert.Status), alert.TraceID, alert.CreatedAt.UnixMilli())
	return err
}

func (s *sqliteStore) InsertServiceCheck(ctx context.Context, service string, status models.ServiceStatus, responseMs float64, ts time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO service_checks (service, status, response_ms, ts) VALUES (?, ?, ?, ?)`,
		service, string(status), responseMs, ts.UnixMilli())
	return err
}

func (s *sqliteStore) InsertErrorSnapshot(ctx context.Context, snap models.ErrorSnapshot) error {
	headers, err := json.Marshal(models.RedactHeaders(snap.RequestHeaders))
	if err != nil {
		headers = []byte("{}")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO error_snapshots
		 (id, source, endpoint, method, status, request_headers, request_body, response_snippet, trace_id, ts)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Source, snap.Endpoint, snap.Method, snap.Status,
		string(headers), snap.RequestBody, snap.ResponseSnippet, snap.TraceID, snap.Timestamp)
	return err
}

func (s *sqliteStore) LatencySeries(ctx context.Context, endpoint string, window models.TimeWindow, bucket time.Duration) ([]models.LatencyBucket, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, duration_ms FROM requests WHERE endpoint = ? AND ts BETWEEN ? AND ? ORDER BY ts`,
		endpoint, window.From.UnixMilli(), window.To.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ts []int64
	var durations []float64
	for rows.Next() {
		var t int64
		var d float64
		if err := rows.Scan(&t, &d); err != nil {
			return nil, err
		}
		ts = append(ts, t)
		durations = append(durations, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return latencyBucketsFromSamples(ts, durations, bucket), nil
}

func (s *sqliteStore) ErrorRateSeries(ctx context.Context, endpoint string, window models.TimeWindow, bucket time.Duration) ([]models.ErrorRateBucket, error) {
	size := bucket.Milliseconds()
	if size <= 0 {
		size = time.Minute.Milliseconds()
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT (ts / ?) * ? AS bucket,
		        COUNT(*) AS total,
		        SUM(CASE WHEN status >= 400 THEN 1 ELSE 0 END) AS errors
		 FROM requests
		 WHERE endpoint = ? AND ts BETWEEN ? AND ?
		 GROUP BY bucket ORDER BY bucket`,
		size, size, endpoint, window.From.UnixMilli(), window.To.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ErrorRateBucket
	for rows.Next() {
		var b models.ErrorRateBucket
		if err := rows.Scan(&b.Timestamp, &b.Total, &b.Errors); err != nil {
			return nil, err
		}
		if b.Total > 0 {
			b.Rate = round1(float64(b.Errors) / float64(b.Total) * 100)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *sqliteStore) RequestSeries(ctx context.Context, endpoint string, window models.TimeWindow, bucket time.Duration) ([]models.RequestBucket, error) {
	size := bucket.Milliseconds()
	if size <= 0 {
		size = time.Minute.Milliseconds()
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT (ts / ?) * ? AS bucket, COUNT(*) AS total
		 FROM requests
		 WHERE endpoint = ? AND ts BETWEEN ? AND ?
		 GROUP BY bucket ORDER BY bucket`,
		size, size, endpoint, window.From.UnixMilli(), window.To.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RequestBucket
	for rows.Next() {
		var b models.RequestBucket
		if err := rows.Scan(&b.Timestamp, &b.Count); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *sqliteStore) SLOSummary(ctx context.Context, endpoint string, windowHours int, availabilityTarget float64, targetP95 int64) (models.SLOSummary, error) {
	if windowHours < 1 {
		windowHours = 24
	}
	from := time.Now().Add(-time.Duration(windowHours) * time.Hour)

	var total, errors int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN status >= 500 THEN 1 ELSE 0 END), 0)
		 FROM requests WHERE endpoint = ? AND ts >= ?`,
		endpoint, from.UnixMilli()).Scan(&total, &errors)
	if err != nil {
		return models.SLOSummary{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT duration_ms FROM requests WHERE endpoint = ? AND ts >= ? ORDER BY duration_ms`,
		endpoint, from.UnixMilli())
	if err != nil {
		return models.SLOSummary{}, err
	}
	defer rows.Close()

	var durations []float64
	for rows.Next() {
		var d float64
		if err := rows.Scan(&d); err != nil {
			return models.SLOSummary{}, err
		}
		durations = append(durations, d)
	}
	if err := rows.Err(); err != nil {
		return models.SLOSummary{}, err
	}

	return buildSLOSummary(endpoint, windowHours, availabilityTarget, targetP95, total, errors, durations), nil
}

func (s *sqliteStore) Incidents(ctx context.Context, window models.TimeWindow, limit int) ([]models.Incident, error) {
	if limit < 1 {
		limit = 50
	}
	var out []models.Incident

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, service, message, details, status, ts FROM alerts
		 WHERE ts BETWEEN ? AND ? ORDER BY ts DESC LIMIT ?`,
		window.From.UnixMilli(), window.To.UnixMilli(), limit)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		inc := models.Incident{Kind: "alert"}
		if err := rows.Scan(&inc.ID, &inc.Severity, &inc.Service, &inc.Message, &inc.Details, &inc.Status, &inc.Timestamp); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, inc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT id, service, status, response_ms, ts FROM service_checks
		 WHERE status != 'Healthy' AND ts BETWEEN ? AND ? ORDER BY ts DESC LIMIT ?`,
		window.From.UnixMilli(), window.To.UnixMilli(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		inc := models.Incident{Kind: "service_check"}
		var rowID int64
		if err := rows.Scan(&rowID, &inc.Service, &inc.Status, &inc.ResponseMs, &inc.Timestamp); err != nil {
			return nil, err
		}
		inc.ID = fmt.Sprintf("check-%d", rowID)
		out = append(out, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *sqliteStore) ErrorSnapshots(ctx context.Context, limit int) ([]models.SnapshotRef, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, endpoint, method, status, trace_id, ts
		 FROM error_snapshots ORDER BY ts DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SnapshotRef
	for rows.Next() {
		var ref models.SnapshotRef
		var traceID sql.NullString
		if err := rows.Scan(&ref.ID, &ref.Source, &ref.Endpoint, &ref.Method, &ref.Status, &traceID, &ref.Timestamp); err != nil {
			return nil, err
		}
		ref.TraceID = traceID.String
		out = append(out, ref)
	}
	return out, rows.Err()
}

func (s *sqliteStore) ErrorSnapshotByID(ctx context.Context, id string) (models.ErrorSnapshot, error) {
	var snap models.ErrorSnapshot
	var headers, body, snippet, traceID sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source, endpoint, method, status, request_headers, request_body, response_snippet, trace_id, ts
		 FROM error_snapshots WHERE id = ?`, id).
		Scan(&snap.ID, &snap.Source, &snap.Endpoint, &snap.Method, &snap.Status,
			&headers, &body, &snippet, &traceID, &snap.Timestamp)
	if err == sql.ErrNoRows {
		return models.ErrorSnapshot{}, ErrSnapshotNotFound
	}
	if err != nil {
		return models.ErrorSnapshot{}, err
	}
	if headers.Valid && headers.String != "" {
		_ = json.Unmarshal([]byte(headers.String), &snap.RequestHeaders)
	}
	snap.RequestBody = body.String
	snap.ResponseSnippet = snippet.String
	snap.TraceID = traceID.String
	return snap, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// buildSLOSummary derives the availability and error-budget report from raw
// window totals. Shared by both store implementations.
func buildSLOSummary(endpoint string, windowHours int, availabilityTarget float64, targetP95 int64, total, errors int64, durations []float64) models.SLOSummary {
	if availabilityTarget <= 0 || availabilityTarget > 100 {
		availabilityTarget = 99.9
	}
	if targetP95 <= 0 {
		targetP95 = 500
	}

	availability := 100.0
	if total > 0 {
		availability = float64(total-errors) / float64(total) * 100
	}

	budgetUsed := 0.0
	allowedErrors := float64(total) * (100 - availabilityTarget) / 100
	if allowedErrors > 0 {
		budgetUsed = float64(errors) / allowedErrors * 100
	} else if errors > 0 {
		budgetUsed = 100
	}
	remaining := math.Max(0, 100-budgetUsed)

	sort.Float64s(durations)
	p95 := int64(math.Round(percentile(durations, 95)))
	p99 := int64(math.Round(percentile(durations, 99)))

	return models.SLOSummary{
		Endpoint:             endpoint,
		WindowHours:          windowHours,
		Totals:               models.SLOTotals{Total: total, Errors: errors},
		Availability:         round1(availability),
		AvailabilityTarget:   availabilityTarget,
		ErrorBudgetRemaining: round1(remaining),
		ErrorBudgetUsedPct:   round1(budgetUsed),
		Latency: models.SLOLatency{
			P95:       p95,
			P99:       p99,
			TargetP95: targetP95,
			Compliant: p95 <= targetP95,
		},
	}
}
