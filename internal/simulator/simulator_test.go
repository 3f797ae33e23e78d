package simulator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/bus"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/collector"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/pkg/logger"
)

func newTestSimulator(t *testing.T) (*Simulator, *collector.Collector) {
	t.Helper()
	b := bus.New(logger.NewNop())
	t.Cleanup(b.Close)
	c := collector.New(b, logger.NewNop(), collector.Options{})
	return New(c, 5, 3, logger.NewNop()), c
}

func TestTickFeedsCollector(t *testing.T) {
	s, c := newTestSimulator(t)

	s.tick()
	s.tick()

	snap := c.Snapshot()
	assert.Equal(t, int64(10), snap.Stats.TotalRequests)
	assert.Equal(t, int64(6), snap.DatabaseMetrics.Queries.Total)
	assert.NotEmpty(t, snap.Endpoints)
}

func TestStartStopIdempotent(t *testing.T) {
	s, _ := newTestSimulator(t)

	s.Start()
	s.Start()
	assert.True(t, s.Status().Running)

	s.Stop()
	s.Stop()
	assert.False(t, s.Status().Running)

	s.Start()
	assert.True(t, s.Status().Running)
	s.Stop()
}

func TestStatusReportsRates(t *testing.T) {
	s, _ := newTestSimulator(t)
	status := s.Status()
	assert.Equal(t, 5, status.RPS)
	assert.Equal(t, 3, status.DBQPS)
}

func TestDistributions(t *testing.T) {
	s, _ := newTestSimulator(t)

	for i := 0; i < 1000; i++ {
		d := s.requestDuration()
		assert.GreaterOrEqual(t, d, 50.0)
		assert.Less(t, d, 650.0)

		q := s.queryDuration()
		assert.GreaterOrEqual(t, q, 20.0)
		assert.Less(t, q, 800.0)

		status := s.requestStatus()
		assert.Contains(t, []int{200, 401, 404, 500}, status)
	}
}
