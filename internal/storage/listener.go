package storage

import (
	"context"
	"time"

	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/bus"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/models"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/monitoring"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/pkg/logger"
)

const listenerBuffer = 512

// Listener subscribes to the event bus and persists the metric event stream.
// Write failures are logged and counted, never propagated back to producers.
type Listener struct {
	store  TimeSeriesStore
	bus    *bus.Bus
	logger logger.Logger
}

func NewListener(store TimeSeriesStore, eventBus *bus.Bus, log logger.Logger) *Listener {
	return &Listener{store: store, bus: eventBus, logger: log}
}

// Run consumes events until the context is cancelled or the bus closes.
func (l *Listener) Run(ctx context.Context) {
	sub := l.bus.Subscribe("persistence", listenerBuffer)
	defer l.bus.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sub.C():
			if !ok {
				return
			}
			l.handle(ctx, event)
		}
	}
}

func (l *Listener) handle(ctx context.Context, event bus.Event) {
	switch event.Type {
	case bus.EventAPIRequest:
		payload, ok := event.Payload.(map[string]interface{})
		if !ok {
			return
		}
		endpoint, _ := payload["endpoint"].(string)
		status, _ := payload["status"].(int)
		duration, _ := payload["duration"].(float64)
		ts, _ := payload["ts"].(time.Time)
		if ts.IsZero() {
			ts = event.At
		}
		l.record("request", l.store.InsertRequest(ctx, endpoint, status, duration, ts))

	case bus.EventLogAppended:
		if entry, ok := event.Payload.(models.LogEntry); ok {
			l.record("log", l.store.InsertLog(ctx, entry))
		}

	case bus.EventAlertChanged:
		if alert, ok := event.Payload.(models.Alert); ok {
			l.record("alert", l.store.InsertAlert(ctx, alert))
		}

	case bus.EventServiceChanged:
		if svc, ok := event.Payload.(models.ServiceHealth); ok {
			l.record("service_check", l.store.InsertServiceCheck(ctx, svc.Name, svc.Status, svc.ResponseTime, svc.LastChecked))
		}

	case bus.EventErrorSnapshot:
		if snap, ok := event.Payload.(models.ErrorSnapshot); ok {
			l.record("error_snapshot", l.store.InsertErrorSnapshot(ctx, snap))
		}
	}
}

func (l *Listener) record(record string, err error) {
	monitoring.RecordStoreWrite(record, err == nil)
	if err != nil {
		l.logger.Error("time-series write failed", "record", record, "error", err)
	}
}
