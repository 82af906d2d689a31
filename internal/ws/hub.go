package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"salehero-chat/internal/models"
	"salehero-chat/internal/observability"
)

// RoutingKey is the exchange routing key for chat topic lifecycle events.
const RoutingKey = "ws_events.chat"

// Hub maintains the single broadcast topic: every registered connection
// receives every message published to it.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*websocket.Conn]ConnInfo
	guestSeq int
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]ConnInfo)}
}

// AddClient registers a websocket connection on the topic.
func (h *Hub) AddClient(conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = info
}

// RemoveClient drops a connection from the topic.
func (h *Hub) RemoveClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}

// ClientCount reports the number of subscribed connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NextGuestName hands out broker-assigned display names for anonymous
// participants.
func (h *Hub) NextGuestName() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.guestSeq++
	return fmt.Sprintf("Guest-%d", h.guestSeq)
}

// Broadcast sends one frame to every subscriber. Dead connections are closed,
// removed and reported.
func (h *Hub) Broadcast(msg models.Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("broadcast marshal error: %v", err)
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			conn.Close()
			h.publishWSError(conn, err)
			h.RemoveClient(conn)
		}
	}
}

func (h *Hub) publishWSError(conn *websocket.Conn, err error) {
	h.mu.RLock()
	info, ok := h.clients[conn]
	h.mu.RUnlock()
	if !ok {
		return
	}

	observability.IncWSEvent("ws_error")
	_ = observability.PublishEvent(context.Background(), RoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		RequestID: info.RequestID,
		TraceID:   info.TraceID,
		Payload: map[string]interface{}{
			"conn_id":      info.ConnID,
			"display_name": info.DisplayName,
			"ip":           info.IP,
			"duration_ms":  time.Since(info.ConnectedAt).Milliseconds(),
			"reason":       err.Error(),
		},
	})
}
