package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Rajkumar7633/API-Monitoring-Dashboard/pkg/logger"
)

// memoryStore is a process-local fallback that satisfies Store when the
// external cache is unavailable. Data is not shared across replicas and is
// lost on restart. TTLs are honored lazily on read.
type memoryStore struct {
	mu     sync.RWMutex
	m      map[string]memoryEntry
	logger logger.Logger
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time // zero = no expiry
}

func NewMemoryStore(log logger.Logger) Store {
	log.Warn("Valkey cache unavailable; using in-memory settings store")
	return &memoryStore{m: make(map[string]memoryEntry), logger: log}
}

func (s *memoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.m[key]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("key not found: %s", key)
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		s.mu.Lock()
		delete(s.m, key)
		s.mu.Unlock()
		return nil, fmt.Errorf("key not found: %s", key)
	}
	return e.data, nil
}

func (s *memoryStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		jb, err := json.Marshal(v)
		if err != nil {
			return err
		}
		b = jb
	}
	e := memoryEntry{data: b}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	s.mu.Lock()
	s.m[key] = e
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
	return nil
}

// HealthCheck reports that no external cache is connected.
func (s *memoryStore) HealthCheck(ctx context.Context) error {
	return fmt.Errorf("in-memory settings store in use (external cache not connected)")
}
