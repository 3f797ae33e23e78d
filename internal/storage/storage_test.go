package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/models"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/pkg/logger"
)

func openStores(t *testing.T) map[string]TimeSeriesStore {
	t.Helper()
	sqlite, err := NewSQLiteStore(":memory:", logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })
	return map[string]TimeSeriesStore{
		"sqlite": sqlite,
		"memory": NewMemoryTimeSeriesStore(logger.NewNop()),
	}
}

func TestLatencySeriesPercentiles(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Now().Truncate(time.Minute)
			for i := 1; i <= 10; i++ {
				require.NoError(t, store.InsertRequest(ctx, "/api/orders", 200, float64(i*100), base))
			}

			window := models.TimeWindow{From: base.Add(-time.Minute), To: base.Add(time.Minute)}
			buckets, err := store.LatencySeries(ctx, "/api/orders", window, time.Minute)
			require.NoError(t, err)
			require.Len(t, buckets, 1)

			b := buckets[0]
			assert.Equal(t, int64(10), b.Count)
			assert.Equal(t, int64(550), b.P50)
			assert.Equal(t, int64(955), b.P95)
			assert.Equal(t, int64(991), b.P99)
		})
	}
}

func TestErrorRateAndRequestSeries(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Now().Truncate(time.Minute)
			for i := 0; i < 8; i++ {
				require.NoError(t, store.InsertRequest(ctx, "/api/a", 200, 100, base))
			}
			for i := 0; i < 2; i++ {
				require.NoError(t, store.InsertRequest(ctx, "/api/a", 500, 100, base))
			}
			// A different endpoint never leaks into the series.
			require.NoError(t, store.InsertRequest(ctx, "/api/b", 500, 100, base))

			window := models.TimeWindow{From: base.Add(-time.Minute), To: base.Add(time.Minute)}
			rates, err := store.ErrorRateSeries(ctx, "/api/a", window, time.Minute)
			require.NoError(t, err)
			require.Len(t, rates, 1)
			assert.Equal(t, int64(10), rates[0].Total)
			assert.Equal(t, int64(2), rates[0].Errors)
			assert.InDelta(t, 20.0, rates[0].Rate, 1e-9)

			counts, err := store.RequestSeries(ctx, "/api/a", window, time.Minute)
			require.NoError(t, err)
			require.Len(t, counts, 1)
			assert.Equal(t, int64(10), counts[0].Count)
		})
	}
}

func TestWindowBoundsInclusive(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			to := time.Now().Truncate(time.Minute)
			from := to.Add(-time.Hour)

			// Rows exactly on both window edges count; one past does not.
			require.NoError(t, store.InsertRequest(ctx, "/api/edge", 200, 100, from))
			require.NoError(t, store.InsertRequest(ctx, "/api/edge", 200, 100, to))
			require.NoError(t, store.InsertRequest(ctx, "/api/edge", 200, 100, to.Add(time.Millisecond)))

			counts, err := store.RequestSeries(ctx, "/api/edge", models.TimeWindow{From: from, To: to}, 2*time.Hour)
			require.NoError(t, err)

			var total int64
			for _, b := range counts {
				total += b.Count
			}
			assert.Equal(t, int64(2), total)
		})
	}
}

func TestSLOSummary(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Now()
			for i := 0; i < 9; i++ {
				require.NoError(t, store.InsertRequest(ctx, "/api/pay", 200, 100, now))
			}
			require.NoError(t, store.InsertRequest(ctx, "/api/pay", 503, 100, now))

			slo, err := store.SLOSummary(ctx, "/api/pay", 24, 99.9, 500)
			require.NoError(t, err)

			assert.Equal(t, int64(10), slo.Totals.Total)
			assert.Equal(t, int64(1), slo.Totals.Errors)
			assert.InDelta(t, 90.0, slo.Availability, 1e-9)
			assert.InDelta(t, 0.0, slo.ErrorBudgetRemaining, 1e-9)
			assert.True(t, slo.Latency.Compliant)
			assert.Equal(t, int64(500), slo.Latency.TargetP95)
		})
	}
}

func TestSLOSummaryEmptyWindow(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			slo, err := store.SLOSummary(context.Background(), "/api/none", 24, 99.9, 500)
			require.NoError(t, err)
			assert.Equal(t, int64(0), slo.Totals.Total)
			assert.InDelta(t, 100.0, slo.Availability, 1e-9)
			assert.InDelta(t, 100.0, slo.ErrorBudgetRemaining, 1e-9)
		})
	}
}

func TestIncidentsMergedNewestFirst(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Now()

			require.NoError(t, store.InsertAlert(ctx, models.Alert{
				ID: "a1", Type: models.AlertError, Service: "API",
				Message: "boom", Status: models.AlertActive, CreatedAt: now.Add(-2 * time.Minute),
			}))
			require.NoError(t, store.InsertServiceCheck(ctx, "checkout", models.StatusUnhealthy, 0, now.Add(-time.Minute)))
			// Healthy checks are not incidents.
			require.NoError(t, store.InsertServiceCheck(ctx, "checkout", models.StatusHealthy, 100, now))

			window := models.TimeWindow{From: now.Add(-time.Hour), To: now.Add(time.Minute)}
			incidents, err := store.Incidents(ctx, window, 50)
			require.NoError(t, err)
			require.Len(t, incidents, 2)
			assert.Equal(t, "service_check", incidents[0].Kind)
			assert.Equal(t, "alert", incidents[1].Kind)
		})
	}
}

func TestErrorSnapshotsRedactAndFetch(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.InsertErrorSnapshot(ctx, models.ErrorSnapshot{
				ID: "s1", Source: "synthetics", Endpoint: "/health", Method: "GET", Status: 502,
				RequestHeaders: map[string]string{
					"Authorization": "Bearer secret",
					"x-api-key":     "key",
					"Accept":        "application/json",
				},
				RequestBody: `{"a":1}`,
				TraceID:     "t1",
				Timestamp:   time.Now().UnixMilli(),
			}))

			refs, err := store.ErrorSnapshots(ctx, 10)
			require.NoError(t, err)
			require.Len(t, refs, 1)
			assert.Equal(t, "s1", refs[0].ID)
			assert.Equal(t, "t1", refs[0].TraceID)

			snap, err := store.ErrorSnapshotByID(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, "***", snap.RequestHeaders["Authorization"])
			assert.Equal(t, "***", snap.RequestHeaders["x-api-key"])
			assert.Equal(t, "application/json", snap.RequestHeaders["Accept"])

			_, err = store.ErrorSnapshotByID(ctx, "nope")
			assert.ErrorIs(t, err, ErrSnapshotNotFound)
		})
	}
}

func TestMemorySnapshotCap(t *testing.T) {
	store := NewMemoryTimeSeriesStore(logger.NewNop())
	ctx := context.Background()
	for i := 0; i < 250; i++ {
		require.NoError(t, store.InsertErrorSnapshot(ctx, models.ErrorSnapshot{
			ID: fmt.Sprintf("s%d", i), Source: "api", Endpoint: "/x", Method: "GET",
			Status: 500, Timestamp: int64(i),
		}))
	}
	refs, err := store.ErrorSnapshots(ctx, 500)
	require.NoError(t, err)
	assert.Len(t, refs, 200)
	assert.Equal(t, "s249", refs[0].ID)
}

func TestPercentileInterpolation(t *testing.T) {
	assert.InDelta(t, 0, percentile(nil, 95), 1e-9)
	assert.InDelta(t, 42, percentile([]float64{42}, 50), 1e-9)
	assert.InDelta(t, 150, percentile([]float64{100, 200}, 50), 1e-9)
	assert.InDelta(t, 955, percentile([]float64{100, 200, 300, 400, 500, 600, 700, 800, 900, 1000}, 95), 1e-9)
}
