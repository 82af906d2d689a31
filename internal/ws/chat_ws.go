package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"salehero-chat/internal/auth"
	"salehero-chat/internal/models"
	"salehero-chat/internal/observability"
	"salehero-chat/internal/repositories"
)

// ChatWebSocketHandler owns the chat topic endpoint: handshake, display-name
// assignment, relay and persistence of inbound frames.
type ChatWebSocketHandler struct {
	hub         *Hub
	messageRepo repositories.MessageRepository
	validator   *auth.Validator
}

// NewChatWebSocketHandler constructs a ChatWebSocketHandler.
func NewChatWebSocketHandler(hub *Hub, messageRepo repositories.MessageRepository, validator *auth.Validator) *ChatWebSocketHandler {
	return &ChatWebSocketHandler{hub: hub, messageRepo: messageRepo, validator: validator}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection, announces the participant and starts the
// relay loop. Without a valid bearer token the broker assigns a guest name;
// the client discovers that name from its own echoed traffic.
func (h *ChatWebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("salehero-chat/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.GetHeader("Authorization")
	if token == "" {
		if q := c.Query("token"); q != "" {
			token = "Bearer " + q
		}
	}

	name, guest := h.resolveName(token)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		DisplayName: name,
		Guest:       guest,
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.AddClient(conn, info)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	_ = observability.PublishEvent(ctx, RoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		RequestID: info.RequestID,
		TraceID:   info.TraceID,
		Payload: map[string]interface{}{
			"conn_id":      info.ConnID,
			"display_name": info.DisplayName,
			"guest":        info.Guest,
			"ip":           info.IP,
		},
	})

	now := time.Now().UTC()
	h.hub.Broadcast(models.Message{
		Type:      models.KindJoin,
		Sender:    name,
		Content:   name + " joined",
		CreatedAt: &now,
	})

	go h.readLoop(conn, info)
}

func (h *ChatWebSocketHandler) resolveName(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) == 2 && h.validator != nil {
		if name, err := h.validator.DisplayName(parts[1]); err == nil {
			return name, false
		}
	}
	return h.hub.NextGuestName(), true
}

func (h *ChatWebSocketHandler) readLoop(conn *websocket.Conn, info ConnInfo) {
	var closeReason string
	defer func() {
		h.hub.RemoveClient(conn)
		conn.Close()

		now := time.Now().UTC()
		h.hub.Broadcast(models.Message{
			Type:      models.KindLeave,
			Sender:    info.DisplayName,
			Content:   info.DisplayName + " left",
			CreatedAt: &now,
		})

		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		_ = observability.PublishEvent(context.Background(), RoutingKey, observability.EventEnvelope{
			EventType: "ws_events",
			EventName: "ws_disconnect",
			RequestID: info.RequestID,
			TraceID:   info.TraceID,
			Payload: map[string]interface{}{
				"conn_id":      info.ConnID,
				"display_name": info.DisplayName,
				"ip":           info.IP,
				"duration_ms":  time.Since(info.ConnectedAt).Milliseconds(),
				"reason":       closeReason,
			},
		})
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
			}
			return
		}

		var msg models.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("chat ws: dropping malformed frame from %s: %v", info.ConnID, err)
			continue
		}
		if msg.Type != models.KindChat {
			continue
		}

		// The sender field is broker-assigned, whatever the client put there
		// is overwritten. Content is relayed and stored verbatim, correlation
		// marker included.
		msg.Sender = info.DisplayName
		now := time.Now().UTC()
		msg.CreatedAt = &now

		if h.messageRepo != nil {
			if _, err := h.messageRepo.InsertMessage(context.Background(), string(msg.Type), msg.Sender, msg.Content); err != nil {
				log.Printf("chat ws: persist failed: %v", err)
			}
		}

		h.hub.Broadcast(msg)
	}
}
