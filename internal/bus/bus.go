// Package bus is the in-process event fabric between the collector, the
// persistence listener and the live-stream endpoints. Publish never blocks;
// a subscriber that cannot keep up loses the newest events.
package bus

import (
	"sync"
	"time"

	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/monitoring"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/pkg/logger"
)

// EventType names a bus topic.
type EventType string

const (
	EventAPIRequest       EventType = "api-request"
	EventStatsChanged     EventType = "stats-changed"
	EventEndpointChanged  EventType = "endpoint-changed"
	EventDBChanged        EventType = "db-changed"
	EventServiceChanged   EventType = "service-changed"
	EventAlertChanged     EventType = "alert-changed"
	EventLogAppended      EventType = "log-appended"
	EventResourcesChanged EventType = "resources-changed"
	EventErrorSnapshot    EventType = "error-snapshot"
)

// Event is one message on the bus. Payload is event-type specific and must be
// treated as read-only by subscribers.
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload"`
	At      time.Time   `json:"at"`
}

// Subscription is one subscriber's bounded event feed.
type Subscription struct {
	name string
	ch   chan Event
}

// C returns the receive channel. It is closed when the subscription is
// cancelled or the bus shuts down.
func (s *Subscription) C() <-chan Event { return s.ch }

// Name returns the subscriber name used in drop accounting.
func (s *Subscription) Name() string { return s.name }

// Bus fans events out to subscribers.
type Bus struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	closed bool
	logger logger.Logger
}

func New(log logger.Logger) *Bus {
	return &Bus{
		subs:   make(map[*Subscription]struct{}),
		logger: log,
	}
}

// Subscribe registers a subscriber with the given buffer size. A buffer of at
// least 1 is enforced so a slow reader never stalls Publish.
func (b *Bus) Subscribe(name string, buffer int) *Subscription {
	if buffer < 1 {
		buffer = 1
	}
	sub := &Subscription{name: name, ch: make(chan Event, buffer)}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(sub.ch)
		return sub
	}
	b.subs[sub] = struct{}{}
	return sub
}

// Unsubscribe removes the subscription and closes its channel. Safe to call
// more than once.
func (b *Bus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub]; !ok {
		return
	}
	delete(b.subs, sub)
	close(sub.ch)
}

// Publish delivers the event to every subscriber without blocking. Events for
// subscribers with full buffers are dropped and counted.
func (b *Bus) Publish(eventType EventType, payload interface{}) {
	event := Event{Type: eventType, Payload: payload, At: time.Now()}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	monitoring.RecordBusPublish(string(eventType))
	for sub := range b.subs {
		select {
		case sub.ch <- event:
		default:
			monitoring.RecordBusDrop(sub.name)
			b.logger.Debug("event dropped on full subscriber buffer",
				"subscriber", sub.name, "event", string(eventType))
		}
	}
}

// Close shuts the bus down and closes every subscriber channel. Idempotent.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		close(sub.ch)
	}
	b.subs = make(map[*Subscription]struct{})
}
