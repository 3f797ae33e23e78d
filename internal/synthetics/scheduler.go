// Package synthetics runs the synthetic probe scheduler. Every monitor gets
// its own goroutine owning its timer and failure counter; the scheduler only
// coordinates start/stop and ad-hoc runs.
package synthetics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/collector"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/models"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/services"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/pkg/logger"
)

const (
	maxFailures         = 5
	maxBackoffFactor    = 5
	minDelay            = time.Second
	maxSpreadFallbackMs = 5000
	maxLastResults      = 20
)

// ErrInvalidMonitor is returned for ad-hoc probes of malformed definitions.
var ErrInvalidMonitor = errors.New("monitor validation failed: url is required")

// Status is the scheduler's state report.
type Status struct {
	Running     bool                 `json:"running"`
	Monitors    int                  `json:"monitors"`
	LastResults []models.ProbeResult `json:"lastResults"`
}

// Scheduler owns the per-monitor probe loops.
type Scheduler struct {
	prober    *Prober
	collector *collector.Collector
	notifier  *services.Notifier
	settings  *services.SettingsService
	logger    logger.Logger

	mu          sync.Mutex
	running     bool
	monitors    int
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	lastResults []models.ProbeResult
}

func NewScheduler(prober *Prober, c *collector.Collector, notifier *services.Notifier, settings *services.SettingsService, log logger.Logger) *Scheduler {
	return &Scheduler{
		prober:    prober,
		collector: c,
		notifier:  notifier,
		settings:  settings,
		logger:    log,
	}
}

// Start loads the current settings and launches one probe loop per monitor.
// An empty monitor list is not an error. Idempotent.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	settings := s.settings.Get(ctx)
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true
	s.monitors = len(settings.Monitors)

	for _, m := range settings.Monitors {
		s.wg.Add(1)
		go s.runMonitor(runCtx, m, settings)
	}
	s.logger.Info("synthetic scheduler started", "monitors", len(settings.Monitors))
}

// Stop cancels all pending timers and waits for in-flight probes to return.
// Idempotent; results of in-flight probes do not schedule new timers.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.monitors = 0
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.logger.Info("synthetic scheduler stopped")
}

// Running reports whether the probe loops are active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Status returns the current scheduler state and recent ad-hoc results.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Running:     s.running,
		Monitors:    s.monitors,
		LastResults: append([]models.ProbeResult(nil), s.lastResults...),
	}
}

// RunOnce probes every configured monitor serially and returns all results.
// The persistent schedule and failure counters are untouched.
func (s *Scheduler) RunOnce(ctx context.Context) []models.ProbeResult {
	settings := s.settings.Get(ctx)
	results := make([]models.ProbeResult, 0, len(settings.Monitors))
	for _, m := range settings.Monitors {
		result := s.prober.Probe(ctx, m, settings.APIKeys)
		s.handleResult(ctx, m, result, settings.Alerts)
		results = append(results, result)
	}

	if len(results) > 0 {
		s.mu.Lock()
		s.lastResults = append(append([]models.ProbeResult(nil), results...), s.lastResults...)
		if len(s.lastResults) > maxLastResults {
			s.lastResults = s.lastResults[:maxLastResults]
		}
		s.mu.Unlock()
	}
	return results
}

// RunSingle probes one ad-hoc monitor definition without altering the
// schedule and retains the result for status reporting.
func (s *Scheduler) RunSingle(ctx context.Context, m models.Monitor) (models.ProbeResult, error) {
	if m.URL == "" {
		return models.ProbeResult{}, ErrInvalidMonitor
	}
	settings := s.settings.Get(ctx)
	result := s.prober.Probe(ctx, sanitizeAdHoc(m), settings.APIKeys)

	s.mu.Lock()
	s.lastResults = append([]models.ProbeResult{result}, s.lastResults...)
	if len(s.lastResults) > maxLastResults {
		s.lastResults = s.lastResults[:maxLastResults]
	}
	s.mu.Unlock()
	return result, nil
}

// Test probes one ad-hoc monitor definition with no side effects at all,
// for a "test before saving" workflow.
func (s *Scheduler) Test(ctx context.Context, m models.Monitor) (models.ProbeResult, error) {
	if m.URL == "" {
		return models.ProbeResult{}, ErrInvalidMonitor
	}
	settings := s.settings.Get(ctx)
	return s.prober.Probe(ctx, sanitizeAdHoc(m), settings.APIKeys), nil
}

func (s *Scheduler) runMonitor(ctx context.Context, m models.Monitor, settings models.Settings) {
	defer s.wg.Done()

	rng := rand.New(rand.NewSource(time.Now().UnixNano() ^ int64(len(m.Name))))
	jitter := effectiveJitter(m, settings.Synthetics)
	failures := 0

	// First run is spread out so monitors starting together don't all
	// probe at once.
	timer := time.NewTimer(firstDelay(m.IntervalMs, settings.Synthetics.SpreadStartMs, rng))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		result := s.prober.Probe(ctx, m, settings.APIKeys)
		if ctx.Err() != nil {
			return
		}
		s.handleResult(ctx, m, result, settings.Alerts)

		if result.OK {
			failures = 0
		} else if failures < maxFailures {
			failures++
		}

		timer.Reset(nextDelay(m.IntervalMs, jitter, failures, m.Backoff, rng))
	}
}

// handleResult classifies the probe outcome, updates service health and
// raises alerts. Failure and slow-success paths also emit a forensic
// snapshot.
func (s *Scheduler) handleResult(ctx context.Context, m models.Monitor, result models.ProbeResult, channels models.AlertChannels) {
	overBudget := result.ResponseMs > int64(m.MaxLatencyMs)

	status := models.StatusHealthy
	switch {
	case !result.OK:
		status = models.StatusUnhealthy
	case overBudget:
		status = models.StatusDegraded
	}
	s.collector.RecordServiceHealth(m.Name, status, float64(result.ResponseMs), "")

	switch {
	case !result.OK:
		s.collector.RaiseAlert(models.AlertError, m.Name,
			fmt.Sprintf("Probe failed for %s", m.Name),
			fmt.Sprintf("%s %s: %s", m.Method, m.URL, result.Error))
		go s.notifier.Notify(context.Background(), channels, "error",
			fmt.Sprintf("Probe failed: %s", m.Name), result.Error)
	case overBudget:
		s.collector.RaiseAlert(models.AlertWarning, m.Name,
			fmt.Sprintf("Slow probe for %s", m.Name),
			fmt.Sprintf("%dms exceeds %dms budget", result.ResponseMs, m.MaxLatencyMs))
		go s.notifier.Notify(context.Background(), channels, "warning",
			fmt.Sprintf("Slow probe: %s", m.Name),
			fmt.Sprintf("%dms exceeds %dms budget", result.ResponseMs, m.MaxLatencyMs))
	}

	if !result.OK || overBudget {
		s.collector.RecordErrorSnapshot(models.ErrorSnapshot{
			Source:          "synthetics",
			Endpoint:        m.URL,
			Method:          m.Method,
			Status:          result.Status,
			RequestHeaders:  models.RedactHeaders(m.Headers),
			RequestBody:     m.Body,
			ResponseSnippet: result.BodyPreview,
			Timestamp:       result.Timestamp.UnixMilli(),
		})
	}
}

// nextDelay computes the wait before a monitor's next probe:
// max(1s, base * jitterFactor * backoffFactor).
func nextDelay(baseMs int, jitterPct float64, failures int, backoff bool, rng *rand.Rand) time.Duration {
	jitterFactor := 1 + (rng.Float64()*2-1)*jitterPct
	backoffFactor := 1.0
	if backoff && failures > 0 {
		backoffFactor = math.Min(maxBackoffFactor, math.Pow(2, float64(failures)))
	}
	delay := float64(baseMs) * jitterFactor * backoffFactor
	d := time.Duration(delay) * time.Millisecond
	if d < minDelay {
		d = minDelay
	}
	return d
}

// firstDelay spreads initial probes over the configured window, falling back
// to min(base, 5s).
func firstDelay(baseMs, spreadMs int, rng *rand.Rand) time.Duration {
	window := spreadMs
	if window <= 0 {
		window = baseMs
		if window > maxSpreadFallbackMs {
			window = maxSpreadFallbackMs
		}
	}
	if window <= 0 {
		return 0
	}
	return time.Duration(rng.Intn(window)) * time.Millisecond
}

func effectiveJitter(m models.Monitor, global models.SyntheticsSettings) float64 {
	pct := global.JitterPct
	if m.JitterPct != nil {
		pct = *m.JitterPct
	}
	if pct < 0 {
		return 0
	}
	if pct > 0.9 {
		return 0.9
	}
	return pct
}

func sanitizeAdHoc(m models.Monitor) models.Monitor {
	clean := models.Settings{Monitors: []models.Monitor{m}}.Sanitize()
	return clean.Monitors[0]
}
