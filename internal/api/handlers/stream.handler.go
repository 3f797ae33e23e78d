package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/bus"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/monitoring"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/pkg/logger"
)

const (
	streamBuffer      = 128
	heartbeatInterval = 25 * time.Second
)

// StreamHandler pushes live metric events to dashboard clients over SSE.
type StreamHandler struct {
	bus    *bus.Bus
	logger logger.Logger
}

func NewStreamHandler(b *bus.Bus, log logger.Logger) *StreamHandler {
	return &StreamHandler{bus: b, logger: log}
}

// Stream subscribes the client to the event bus and forwards every event as
// a named SSE message until the client disconnects. A periodic heartbeat
// comment detects dead connections.
func (h *StreamHandler) Stream(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	sub := h.bus.Subscribe("sse", streamBuffer)
	defer h.bus.Unsubscribe(sub)

	monitoring.StreamClientConnected()
	defer monitoring.StreamClientDisconnected()

	fmt.Fprintf(c.Writer, "event: connected\ndata: {\"ts\":%d}\n\n", time.Now().UnixMilli())
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case event, ok := <-sub.C():
			if !ok {
				return
			}
			payload, err := json.Marshal(event.Payload)
			if err != nil {
				h.logger.Error("failed to marshal stream event", "event", string(event.Type), "error", err)
				continue
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event.Type, payload)
			flusher.Flush()

		case <-heartbeat.C:
			fmt.Fprint(c.Writer, ": ping\n\n")
			flusher.Flush()

		case <-ctx.Done():
			return
		}
	}
}
