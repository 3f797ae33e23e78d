// Package storage persists the metric event stream and answers time-series
// queries over it. Two implementations exist: a durable SQLite store and a
// bounded in-memory fallback. Callers are agnostic to which is active.
package storage

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/models"
)

// ErrSnapshotNotFound is returned when an error snapshot id is unknown.
var ErrSnapshotNotFound = errors.New("error snapshot not found")

// TimeSeriesStore is the persistence contract for the metric event stream.
type TimeSeriesStore interface {
	InsertRequest(ctx context.Context, endpoint string, status int, durationMs float64, ts time.Time) error
	InsertLog(ctx context.Context, entry models.LogEntry) error
	InsertAlert(ctx context.Context, alert models.Alert) error
	InsertServiceCheck(ctx context.Context, service string, status models.ServiceStatus, responseMs float64, ts time.Time) error
	InsertErrorSnapshot(ctx context.Context, snap models.ErrorSnapshot) error

	LatencySeries(ctx context.Context, endpoint string, window models.TimeWindow, bucket time.Duration) ([]models.LatencyBucket, error)
	ErrorRateSeries(ctx context.Context, endpoint string, window models.TimeWindow, bucket time.Duration) ([]models.ErrorRateBucket, error)
	RequestSeries(ctx context.Context, endpoint string, window models.TimeWindow, bucket time.Duration) ([]models.RequestBucket, error)
	SLOSummary(ctx context.Context, endpoint string, windowHours int, availabilityTarget float64, targetP95 int64) (models.SLOSummary, error)
	Incidents(ctx context.Context, window models.TimeWindow, limit int) ([]models.Incident, error)
	ErrorSnapshots(ctx context.Context, limit int) ([]models.SnapshotRef, error)
	ErrorSnapshotByID(ctx context.Context, id string) (models.ErrorSnapshot, error)

	Close() error
}

// percentile computes the p-th percentile of a sorted sample using linear
// interpolation between adjacent ranks.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// bucketStart floors a unix-millis timestamp to its bucket boundary.
func bucketStart(tsMillis int64, bucket time.Duration) int64 {
	size := bucket.Milliseconds()
	if size <= 0 {
		size = time.Minute.Milliseconds()
	}
	return tsMillis / size * size
}

// latencyBucketsFromSamples groups (tsMillis, durationMs) samples into
// percentile buckets, ordered by bucket start.
func latencyBucketsFromSamples(ts []int64, durations []float64, bucket time.Duration) []models.LatencyBucket {
	grouped := map[int64][]float64{}
	for i := range ts {
		b := bucketStart(ts[i], bucket)
		grouped[b] = append(grouped[b], durations[i])
	}

	starts := make([]int64, 0, len(grouped))
	for b := range grouped {
		starts = append(starts, b)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	out := make([]models.LatencyBucket, 0, len(starts))
	for _, b := range starts {
		samples := grouped[b]
		sort.Float64s(samples)
		out = append(out, models.LatencyBucket{
			Timestamp: b,
			P50:       int64(math.Round(percentile(samples, 50))),
			P95:       int64(math.Round(percentile(samples, 95))),
			P99:       int64(math.Round(percentile(samples, 99))),
			Count:     int64(len(samples)),
		})
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
