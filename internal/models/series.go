package models

import "time"

// LatencyBucket is one time bucket of a percentile latency series.
type LatencyBucket struct {
	Timestamp int64 `json:"ts"` // bucket start, unix millis
	P50       int64 `json:"p50"`
	P95       int64 `json:"p95"`
	P99       int64 `json:"p99"`
	Count     int64 `json:"count"`
}

// ErrorRateBucket is one time bucket of an error-rate series.
type ErrorRateBucket struct {
	Timestamp int64   `json:"ts"`
	Total     int64   `json:"total"`
	Errors    int64   `json:"errors"`
	Rate      float64 `json:"rate"` // percent, 0.1 precision
}

// RequestBucket is one time bucket of a request-volume series.
type RequestBucket struct {
	Timestamp int64 `json:"ts"`
	Count     int64 `json:"count"`
}

// SLOLatency carries the latency half of an SLO summary.
type SLOLatency struct {
	P95       int64 `json:"p95"`
	P99       int64 `json:"p99"`
	TargetP95 int64 `json:"targetP95"`
	Compliant bool  `json:"compliant"`
}

// SLOTotals carries raw request totals for an SLO window.
type SLOTotals struct {
	Total  int64 `json:"total"`
	Errors int64 `json:"errors"`
}

// SLOSummary is the availability / error-budget report for one endpoint over
// a time window.
type SLOSummary struct {
	Endpoint             string     `json:"endpoint"`
	WindowHours          int        `json:"windowHours"`
	Totals               SLOTotals  `json:"totals"`
	Availability         float64    `json:"availability"`
	AvailabilityTarget   float64    `json:"availabilityTarget"`
	ErrorBudgetRemaining float64    `json:"errorBudgetRemaining"`
	ErrorBudgetUsedPct   float64    `json:"errorBudgetUsedPct"`
	Latency              SLOLatency `json:"latency"`
}

// Incident is one entry in the merged alerts + service-check timeline.
type Incident struct {
	Kind       string `json:"kind"` // alert | service_check
	ID         string `json:"id"`
	Service    string `json:"service"`
	Severity   string `json:"severity,omitempty"`
	Message    string `json:"message,omitempty"`
	Details    string `json:"details,omitempty"`
	Status     string `json:"status,omitempty"`
	ResponseMs int64  `json:"response_ms,omitempty"`
	Timestamp  int64  `json:"ts"`
}

// ErrorSnapshot is the forensic record emitted when a request or probe fails.
// Request headers are redacted before persistence.
type ErrorSnapshot struct {
	ID              string            `json:"id"`
	Source          string            `json:"source"` // api | synthetics
	Endpoint        string            `json:"endpoint"`
	Method          string            `json:"method"`
	Status          int               `json:"status"`
	RequestHeaders  map[string]string `json:"request_headers,omitempty"`
	RequestBody     string            `json:"request_body,omitempty"`
	ResponseSnippet string            `json:"response_snippet,omitempty"`
	TraceID         string            `json:"traceId,omitempty"`
	Timestamp       int64             `json:"ts"` // unix millis
}

// SnapshotRef is the listing view of an error snapshot (no payloads).
type SnapshotRef struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Endpoint  string `json:"endpoint"`
	Method    string `json:"method"`
	Status    int    `json:"status"`
	TraceID   string `json:"traceId,omitempty"`
	Timestamp int64  `json:"ts"`
}

// TimeWindow bounds a store query.
type TimeWindow struct {
	From time.Time
	To   time.Time
}
