// Package websocket streams live metric events to dashboard clients over a
// WebSocket connection, as an alternative to the SSE endpoint.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/bus"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/config"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/monitoring"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/pkg/logger"
)

const (
	clientSendBuffer = 64
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
)

// Message is the wire envelope for one streamed event.
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub fans bus events out to connected WebSocket clients. Slow clients are
// disconnected rather than allowed to block the broadcast.
type Hub struct {
	clients      map[*Client]bool
	register     chan *Client
	unregister   chan *Client
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	maxClients   int
	logger       logger.Logger
	mu           sync.RWMutex
}

// Client is one connected dashboard.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func NewHub(cfg config.WebSocketConfig, log logger.Logger) *Hub {
	ping := time.Duration(cfg.PingInterval) * time.Second
	if ping <= 0 {
		ping = 30 * time.Second
	}
	maxClients := cfg.MaxConnections
	if maxClients <= 0 {
		maxClients = 1000
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingInterval: ping,
		maxClients:   maxClients,
		logger:       log,
	}
}

// Run forwards bus events to all clients until the context is cancelled.
func (h *Hub) Run(ctx context.Context, eventBus *bus.Bus) {
	sub := eventBus.Subscribe("websocket", 256)
	defer eventBus.Unsubscribe(sub)

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if len(h.clients) >= h.maxClients {
				h.mu.Unlock()
				close(client.send)
				continue
			}
			h.clients[client] = true
			h.mu.Unlock()
			monitoring.StreamClientConnected()
			h.logger.Info("websocket client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				monitoring.StreamClientDisconnected()
			}
			h.mu.Unlock()

		case event, ok := <-sub.C():
			if !ok {
				return
			}
			h.broadcast(event)

		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) broadcast(event bus.Event) {
	payload, err := json.Marshal(Message{
		Type:      string(event.Type),
		Data:      event.Payload,
		Timestamp: event.At,
	})
	if err != nil {
		h.logger.Error("failed to marshal stream message", "event", string(event.Type), "error", err)
		return
	}

	h.mu.Lock()
	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			// Client cannot keep up; drop it.
			delete(h.clients, client)
			close(client.send)
			monitoring.StreamClientDisconnected()
		}
	}
	h.mu.Unlock()
}

// Handle upgrades the request and services the client until it disconnects.
func (h *Hub) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{hub: h, conn: conn, send: make(chan []byte, clientSendBuffer)}
	h.register <- client

	go client.writePump()
	client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		// The stream is one-way; inbound frames are only read to detect
		// disconnects.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
