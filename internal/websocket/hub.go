package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vikasavnish/parentportal/internal/models"
)

// Hub fans domain events out to connected WebSocket clients
type Hub struct {
	mu sync.Mutex
	// Registered clients
	connections map[*websocket.Conn]bool
	closed      bool

	// Messages to be broadcast to all connected clients
	broadcast chan models.Message
	quit      chan struct{}

	// Upgrader for HTTP connections to WebSocket
	upgrader websocket.Upgrader
	// writeWait bounds each write so a client that stops reading is dropped
	writeWait time.Duration
	logger    *zap.Logger
}

const defaultWriteWait = 10 * time.Second

// NewHub creates a new hub for managing WebSocket connections
func NewHub(logger *zap.Logger) *Hub {
	upgrader := websocket.Upgrader{
		// Allow all origins for WebSocket connections
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	return &Hub{
		connections: make(map[*websocket.Conn]bool),
		broadcast:   make(chan models.Message, 64),
		quit:        make(chan struct{}),
		upgrader:    upgrader,
		writeWait:   defaultWriteWait,
		logger:      logger,
	}
}

// Run starts listening for messages to broadcast until Close is called
func (h *Hub) Run() {
	for {
		select {
		case msg := <-h.broadcast:
			h.send(msg)
		case <-h.quit:
			return
		}
	}
}

// send writes msg to a snapshot of the clients so the lock is never held
// across network writes.
func (h *Hub) send(msg models.Message) {
	h.mu.Lock()
	clients := make([]*websocket.Conn, 0, len(h.connections))
	for client := range h.connections {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	for _, client := range clients {
		client.SetWriteDeadline(time.Now().Add(h.writeWait))
		if err := client.WriteJSON(msg); err != nil {
			h.logger.Warn("websocket send failed", zap.Error(err))
			h.drop(client)
		}
	}
}

func (h *Hub) drop(client *websocket.Conn) {
	h.mu.Lock()
	delete(h.connections, client)
	h.mu.Unlock()
	client.Close()
}

// Close stops Run, disconnects every client and refuses later upgrades.
// Calling it more than once is a no-op.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.quit)
	for client := range h.connections {
		client.Close()
		delete(h.connections, client)
	}
}

// HandleWebSocket upgrades an HTTP connection to WebSocket
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		http.Error(w, "websocket hub closed", http.StatusServiceUnavailable)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		ws.Close()
		return
	}
	h.connections[ws] = true
	h.mu.Unlock()

	// Read messages from the client (to keep the connection alive)
	go func() {
		defer h.drop(ws)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Publish queues an event for broadcast. The event is dropped when the
// buffer is full so publishers never block.
func (h *Hub) Publish(eventType string, content interface{}) {
	select {
	case h.broadcast <- models.Message{Type: eventType, Content: content}:
	default:
		h.logger.Warn("websocket broadcast buffer full, event dropped", zap.String("type", eventType))
	}
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.connections)
}
