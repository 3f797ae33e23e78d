// Package simulator generates synthetic API and database traffic so the
// dashboard has data to show in development environments.
package simulator

import (
	"math/rand"
	"sync"
	"time"

	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/collector"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/pkg/logger"
)

var simulatedEndpoints = []string{
	"/api/users",
	"/api/orders",
	"/api/products",
	"/api/payments",
	"/api/auth/login",
}

var simulatedQueries = []string{
	"SELECT * FROM users WHERE id = ?",
	"SELECT * FROM orders WHERE status = 'pending'",
	"UPDATE products SET stock = stock - 1 WHERE id = ?",
	"INSERT INTO payments (order_id, amount) VALUES (?, ?)",
	"SELECT COUNT(*) FROM sessions WHERE expires_at > NOW()",
}

// Status is the simulator's state report.
type Status struct {
	Running bool `json:"running"`
	RPS     int  `json:"rps"`
	DBQPS   int  `json:"dbQps"`
}

// Simulator feeds randomized requests and queries into the collector at a
// fixed rate.
type Simulator struct {
	collector *collector.Collector
	logger    logger.Logger
	rps       int
	dbQPS     int

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	rng     *rand.Rand
}

func New(c *collector.Collector, rps, dbQPS int, log logger.Logger) *Simulator {
	if rps < 1 {
		rps = 5
	}
	if dbQPS < 1 {
		dbQPS = 3
	}
	return &Simulator{
		collector: c,
		logger:    log,
		rps:       rps,
		dbQPS:     dbQPS,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start launches the traffic loops. Idempotent.
func (s *Simulator) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})

	go s.loop(s.stopCh)
	s.logger.Info("traffic simulator started", "rps", s.rps, "dbQps", s.dbQPS)
}

// Stop halts the traffic loops. Idempotent; immediately prevents further
// simulated traffic.
func (s *Simulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stopCh)
	s.logger.Info("traffic simulator stopped")
}

// Status returns the current simulator state.
func (s *Simulator) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{Running: s.running, RPS: s.rps, DBQPS: s.dbQPS}
}

func (s *Simulator) loop(stopCh chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-stopCh:
			return
		}
	}
}

func (s *Simulator) tick() {
	for i := 0; i < s.rps; i++ {
		endpoint := simulatedEndpoints[s.rng.Intn(len(simulatedEndpoints))]
		s.collector.RecordRequest(endpoint, s.requestDuration(), s.requestStatus())
	}
	for i := 0; i < s.dbQPS; i++ {
		query := simulatedQueries[s.rng.Intn(len(simulatedQueries))]
		s.collector.RecordDatabaseQuery(query, s.queryDuration())
	}
}

// requestStatus draws a status code: 3% server errors, 7% not-found,
// 4% unauthorized, the rest 200.
func (s *Simulator) requestStatus() int {
	r := s.rng.Float64()
	switch {
	case r < 0.03:
		return 500
	case r < 0.10:
		return 404
	case r < 0.14:
		return 401
	default:
		return 200
	}
}

// requestDuration draws a response time between 50 and 650ms.
func (s *Simulator) requestDuration() float64 {
	return 50 + s.rng.Float64()*600
}

// queryDuration draws a query time: 15% slow (300-800ms), rest 20-140ms.
func (s *Simulator) queryDuration() float64 {
	if s.rng.Float64() < 0.15 {
		return 300 + s.rng.Float64()*500
	}
	return 20 + s.rng.Float64()*120
}
