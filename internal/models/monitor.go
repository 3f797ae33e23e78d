package models

import (
	"strings"
	"time"
)

// Monitor is one synthetic-probe definition from settings. The scheduler
// treats it as immutable for the duration of a run cycle.
type Monitor struct {
	Name                 string            `json:"name"`
	URL                  string            `json:"url"`
	Method               string            `json:"method"`
	ExpectedStatus       int               `json:"expectedStatus"`
	MaxLatencyMs         int               `json:"maxLatencyMs"`
	IntervalMs           int               `json:"intervalMs"`
	Headers              map[string]string `json:"headers,omitempty"`
	Body                 string            `json:"body,omitempty"`
	UseDevKey            bool              `json:"useDevKey"`
	BearerToken          string            `json:"bearerToken,omitempty"`
	ExpectedBodyContains string            `json:"expectedBodyContains,omitempty"`
	JitterPct            *float64          `json:"jitterPct,omitempty"` // nil = use global default
	Backoff              bool              `json:"backoff"`
}

// ProbeResult is the outcome of one synthetic probe. Ephemeral; only the
// last few are retained for status reporting.
type ProbeResult struct {
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	OK          bool      `json:"ok"`
	Status      int       `json:"status"`
	ResponseMs  int64     `json:"responseMs"`
	Timestamp   time.Time `json:"ts"`
	Error       string    `json:"error,omitempty"`
	BodyPreview string    `json:"bodyPreview,omitempty"`
}

// APIKeys are the shared probe credentials; UseDevKey on a monitor selects
// the development key.
type APIKeys struct {
	Production  string `json:"production"`
	Development string `json:"development"`
}

// AlertChannels holds the outbound notification webhook URLs.
type AlertChannels struct {
	SlackWebhookURL string `json:"slackWebhookUrl"`
	WebhookURL      string `json:"webhookUrl"`
}

// SyntheticsSettings are the global scheduling knobs.
type SyntheticsSettings struct {
	JitterPct     float64 `json:"jitterPct"`
	SpreadStartMs int     `json:"spreadStartMs"`
}

// TracingSettings configures the optional OTLP trace exporter.
type TracingSettings struct {
	OTLPEndpoint string `json:"otlpEndpoint"`
}

// Settings is the config blob persisted in the settings store as JSON.
type Settings struct {
	SchemaVersion string             `json:"schemaVersion"`
	APIKeys       APIKeys            `json:"apiKeys"`
	Monitors      []Monitor          `json:"monitors"`
	Alerts        AlertChannels      `json:"alerts"`
	Synthetics    SyntheticsSettings `json:"synthetics"`
	Tracing       TracingSettings    `json:"tracing"`
}

// DefaultSettings returns the blob used when the store has nothing saved.
func DefaultSettings() Settings {
	return Settings{
		SchemaVersion: "1.0",
		Monitors:      []Monitor{},
		Synthetics:    SyntheticsSettings{JitterPct: 0.2, SpreadStartMs: 2000},
	}
}

// Sanitize normalizes a settings blob before it is persisted: monitors
// without a URL are dropped, methods are upper-cased, and numeric fields are
// clamped to usable ranges.
func (s Settings) Sanitize() Settings {
	out := s
	if out.SchemaVersion == "" {
		out.SchemaVersion = "1.0"
	}
	out.Synthetics.JitterPct = clampJitter(out.Synthetics.JitterPct)
	if out.Synthetics.SpreadStartMs < 0 {
		out.Synthetics.SpreadStartMs = 0
	}

	monitors := make([]Monitor, 0, len(s.Monitors))
	for _, m := range s.Monitors {
		if m.URL == "" {
			continue
		}
		monitors = append(monitors, m.sanitize())
	}
	out.Monitors = monitors
	return out
}

func (m Monitor) sanitize() Monitor {
	out := m
	if out.Name == "" {
		out.Name = "Monitor"
	}
	out.Method = strings.ToUpper(out.Method)
	if out.Method == "" {
		out.Method = "GET"
	}
	if out.ExpectedStatus == 0 {
		out.ExpectedStatus = 200
	}
	if out.MaxLatencyMs < 1 {
		out.MaxLatencyMs = 1000
	}
	if out.IntervalMs < 1000 {
		out.IntervalMs = 60000
	}
	if out.JitterPct != nil {
		j := clampJitter(*out.JitterPct)
		out.JitterPct = &j
	}
	return out
}

// RedactHeaders copies a header map, masking credential-bearing values so
// they never reach logs or persistence.
func RedactHeaders(h map[string]string) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		switch strings.ToLower(k) {
		case "authorization", "x-api-key":
			out[k] = "***"
		default:
			out[k] = v
		}
	}
	return out
}

func clampJitter(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 0.9 {
		return 0.9
	}
	return v
}
