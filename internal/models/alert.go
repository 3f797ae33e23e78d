package models

import "time"

// AlertType classifies an alert's severity.
type AlertType string

const (
	AlertError   AlertType = "error"
	AlertWarning AlertType = "warning"
	AlertInfo    AlertType = "info"
)

// AlertStatus is the lifecycle state of an alert. Transitions only move
// forward: active -> acknowledged -> resolved, or active -> resolved.
type AlertStatus string

const (
	AlertActive       AlertStatus = "active"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertResolved     AlertStatus = "resolved"
)

// AlertAction is an operator request against an alert's lifecycle.
type AlertAction string

const (
	ActionAck     AlertAction = "ack"
	ActionResolve AlertAction = "resolve"
)

// Alert is a raised condition held in the bounded alert list.
type Alert struct {
	ID             string      `json:"id"`
	Type           AlertType   `json:"type"`
	Message        string      `json:"message"`
	Service        string      `json:"service"`
	Details        string      `json:"details"`
	Status         AlertStatus `json:"status"`
	TraceID        string      `json:"traceId,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	AcknowledgedAt *time.Time  `json:"acknowledgedAt,omitempty"`
	ResolvedAt     *time.Time  `json:"resolvedAt,omitempty"`
}

// LogEntry is one record in the bounded error-log ring, newest first.
type LogEntry struct {
	ID        string    `json:"id"`
	Endpoint  string    `json:"endpoint"`
	Status    int       `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Duration  float64   `json:"duration"` // milliseconds
}

// Thresholds holds the alert-engine limits. All fields are independently
// settable at runtime and take effect on the next evaluation tick.
type Thresholds struct {
	ErrorRate         float64 `json:"errorRate" mapstructure:"error_rate"`                  // percent
	ResponseTime      float64 `json:"responseTime" mapstructure:"response_time"`            // milliseconds
	CPUUsage          float64 `json:"cpuUsage" mapstructure:"cpu_usage"`                    // percent
	MemoryUsage       float64 `json:"memoryUsage" mapstructure:"memory_usage"`              // percent
	DatabaseQueryTime float64 `json:"databaseQueryTime" mapstructure:"database_query_time"` // milliseconds
}

// DefaultThresholds mirrors the stock dashboard limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ErrorRate:         5,
		ResponseTime:      500,
		CPUUsage:          80,
		MemoryUsage:       75,
		DatabaseQueryTime: 500,
	}
}
