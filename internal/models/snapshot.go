package models

import "time"

// ServiceStatus classifies a monitored service's health.
type ServiceStatus string

const (
	StatusHealthy   ServiceStatus = "Healthy"
	StatusDegraded  ServiceStatus = "Degraded"
	StatusUnhealthy ServiceStatus = "Unhealthy"
)

// HourSlots is the number of response-time slots kept per endpoint, one per
// hour of day.
const HourSlots = 24

// Stats holds the global derived request statistics.
type Stats struct {
	TotalRequests   int64   `json:"totalRequests"`
	ErrorRate       float64 `json:"errorRate"`       // percent
	AvgResponseTime float64 `json:"avgResponseTime"` // milliseconds
	Uptime          float64 `json:"uptime"`          // percent
}

// TimePoint is one hour-of-day slot in an endpoint's response-time series.
type TimePoint struct {
	Time  string  `json:"time"` // "HH:00"
	Value float64 `json:"value"`
}

// EndpointMetrics tracks per-endpoint counters and the 24-slot response-time
// ring keyed by hour of day. Samples recorded after midnight land in the same
// slot as samples from the previous day's matching hour; that bucketing
// trade-off is accepted.
type EndpointMetrics struct {
	Name         string      `json:"name"`
	Requests     int64       `json:"requests"`
	Errors       int64       `json:"errors"`
	ResponseTime []TimePoint `json:"responseTime"`
}

// SlowQuery is one entry in the bounded slow-query list, newest first.
type SlowQuery struct {
	Query     string    `json:"query"` // truncated to 100 chars
	Duration  float64   `json:"duration"`
	Timestamp time.Time `json:"timestamp"`
}

// QueryStats aggregates database query counters.
type QueryStats struct {
	Total   int64   `json:"total"`
	Slow    int64   `json:"slow"`
	Average float64 `json:"average"` // milliseconds, running mean
}

// ConnectionStats is the (simulated) connection-pool gauge.
type ConnectionStats struct {
	Active         int     `json:"active"`
	Idle           int     `json:"idle"`
	Max            int     `json:"max"`
	UsedPercentage float64 `json:"usedPercentage"`
}

// DatabaseMetrics groups query statistics, pool gauges and the slow-query list.
type DatabaseMetrics struct {
	Queries     QueryStats      `json:"queries"`
	Connections ConnectionStats `json:"connections"`
	SlowQueries []SlowQuery     `json:"slowQueries"`
}

// ServiceHealth is the latest observed state of a named service.
type ServiceHealth struct {
	Name         string        `json:"name"`
	Status       ServiceStatus `json:"status"`
	ResponseTime float64       `json:"responseTime"`
	Uptime       string        `json:"uptime"`
	LastChecked  time.Time     `json:"lastChecked"`
}

// CPUMetrics holds host CPU gauges sampled from the OS.
type CPUMetrics struct {
	Current float64 `json:"current"` // percent
	Peak    float64 `json:"peak"`
	Average float64 `json:"average"` // EMA, same 0.8/0.2 weighting as slots
	Cores   int     `json:"cores"`
}

// MemoryMetrics holds host memory gauges in whole gigabytes.
type MemoryMetrics struct {
	Total          uint64  `json:"total"`
	Used           uint64  `json:"used"`
	Free           uint64  `json:"free"`
	UsedPercentage float64 `json:"usedPercentage"`
}

// ResourceMetrics groups host telemetry gauges.
type ResourceMetrics struct {
	CPU    CPUMetrics    `json:"cpu"`
	Memory MemoryMetrics `json:"memory"`
}

// MetricSnapshot is the root aggregate served to the dashboard. The collector
// owns the single live instance; Snapshot() hands out deep copies.
type MetricSnapshot struct {
	Stats           Stats             `json:"stats"`
	Endpoints       []EndpointMetrics `json:"endpoints"`
	DatabaseMetrics DatabaseMetrics   `json:"databaseMetrics"`
	ServiceHealth   []ServiceHealth   `json:"serviceHealth"`
	Alerts          []Alert           `json:"alerts"`
	Logs            []LogEntry        `json:"logs"`
	ResourceMetrics ResourceMetrics   `json:"resourceMetrics"`
}
