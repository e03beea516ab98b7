// Package websocket pushes dataset lifecycle events to connected dashboard
// pages so they can refetch their views after an upload replaces the active
// source.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"revboard/internal/infrastructure"
)

// Message type constants
const (
	TypeConnection      = "connection"
	TypeDatasetReloaded = "dataset:reloaded"
)

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger *slog.Logger

	totalConnections int64
	messagesSent     int64

	quit    chan struct{}
	running bool
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		quit:       make(chan struct{}),
	}
}

// Start runs the hub loop in its own goroutine.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.totalConnections++
			h.mu.Unlock()
			h.logger.Info("client connected",
				slog.String("client_id", client.id),
				slog.Int("active", h.ClientCount()))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("client disconnected",
				slog.String("client_id", client.id),
				slog.Int("active", h.ClientCount()))

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					h.messagesSent++
				default:
					// Slow consumer; drop it rather than block the hub.
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.mu.Unlock()

		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.running = false
			h.mu.Unlock()
			return
		}
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastDatasetReloaded tells every connected page that the active
// dataset changed and views should be refetched.
func (h *Hub) BroadcastDatasetReloaded(source string, records int) {
	h.BroadcastJSON(map[string]interface{}{
		"type":      TypeDatasetReloaded,
		"source":    source,
		"records":   records,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// BroadcastJSON marshals and broadcasts an arbitrary message.
func (h *Hub) BroadcastJSON(message map[string]interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal broadcast message",
			slog.String("error", err.Error()))
		return
	}

	h.mu.RLock()
	running := h.running
	h.mu.RUnlock()
	if !running {
		return
	}

	select {
	case h.broadcast <- data:
	case <-time.After(time.Second):
		h.logger.Warn("broadcast dropped, hub busy")
	}
}

// Stop shuts down the hub and disconnects all clients.
func (h *Hub) Stop() {
	h.mu.RLock()
	running := h.running
	h.mu.RUnlock()
	if running {
		close(h.quit)
	}
}
