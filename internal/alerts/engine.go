// Package alerts evaluates the live metrics against configurable thresholds
// on a fixed interval.
package alerts

import (
	"fmt"
	"sync"
	"time"

	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/collector"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/models"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/pkg/logger"
)

// Engine periodically compares derived stats and resource gauges against the
// collector's thresholds and raises alerts for each breach. Threshold updates
// take effect on the next tick without a restart.
type Engine struct {
	collector *collector.Collector
	interval  time.Duration
	logger    logger.Logger

	mu      sync.Mutex
	stopCh  chan struct{}
	running bool
}

func NewEngine(c *collector.Collector, interval time.Duration, log logger.Logger) *Engine {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Engine{
		collector: c,
		interval:  interval,
		logger:    log,
	}
}

// Start launches the evaluation loop. Idempotent.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	e.running = true
	e.stopCh = make(chan struct{})

	go e.loop(e.stopCh)
	e.logger.Info("alert engine started", "interval", e.interval.String())
}

// Stop halts the evaluation loop. Idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.running = false
	close(e.stopCh)
	e.logger.Info("alert engine stopped")
}

// Running reports whether the loop is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (e *Engine) loop(stopCh chan struct{}) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			e.EvaluateOnce()
		case <-stopCh:
			return
		}
	}
}

// EvaluateOnce runs a single evaluation pass. Each check is independent; a
// breach in one never suppresses the others.
func (e *Engine) EvaluateOnce() {
	snap := e.collector.Snapshot()
	thresholds := e.collector.Thresholds()

	if t := thresholds.ErrorRate; t > 0 && snap.Stats.ErrorRate > t {
		e.collector.RaiseAlert(models.AlertError, "API",
			"Error rate threshold exceeded",
			fmt.Sprintf("Error rate %.1f%% exceeds %.1f%% threshold", snap.Stats.ErrorRate, t))
	}
	if t := thresholds.ResponseTime; t > 0 && snap.Stats.AvgResponseTime > t {
		e.collector.RaiseAlert(models.AlertWarning, "API",
			"Response time threshold exceeded",
			fmt.Sprintf("Average response time %.0fms exceeds %.0fms threshold", snap.Stats.AvgResponseTime, t))
	}
	if t := thresholds.CPUUsage; t > 0 && snap.ResourceMetrics.CPU.Current > t {
		e.collector.RaiseAlert(models.AlertWarning, "System",
			"CPU usage threshold exceeded",
			fmt.Sprintf("CPU at %.1f%% exceeds %.1f%% threshold", snap.ResourceMetrics.CPU.Current, t))
	}
	if t := thresholds.MemoryUsage; t > 0 && snap.ResourceMetrics.Memory.UsedPercentage > t {
		e.collector.RaiseAlert(models.AlertWarning, "System",
			"Memory usage threshold exceeded",
			fmt.Sprintf("Memory at %.1f%% exceeds %.1f%% threshold", snap.ResourceMetrics.Memory.UsedPercentage, t))
	}
	if t := thresholds.DatabaseQueryTime; t > 0 && snap.DatabaseMetrics.Queries.Average > t {
		e.collector.RaiseAlert(models.AlertWarning, "Database",
			"Database query time threshold exceeded",
			fmt.Sprintf("Average query time %.0fms exceeds %.0fms threshold", snap.DatabaseMetrics.Queries.Average, t))
	}
}
