package realtime

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medtrack/medtrack/internal/platform/auth"
)

// ClientMessage represents an inbound message from a WebSocket client.
type ClientMessage struct {
	Type  string `json:"type"`
	Token string `json:"token,omitempty"`
}

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; tighten in production.
	},
}

// Handler handles HTTP-to-WebSocket upgrades and the authenticate handshake.
// Clients connect unauthenticated, then send {"type":"authenticate","token":…}
// to join their per-user topic.
type Handler struct {
	hub    *Hub
	tokens *auth.TokenManager
	log    zerolog.Logger
}

// NewHandler creates a new handler bound to the given Hub.
func NewHandler(hub *Hub, tokens *auth.TokenManager, log zerolog.Logger) *Handler {
	return &Handler{hub: hub, tokens: tokens, log: log}
}

// RegisterRoutes registers the WebSocket endpoint on the provided Echo group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws", h.HandleConnect)
}

// HandleConnect upgrades an HTTP connection to WebSocket, registers the
// client with the hub, and starts read/write pumps.
func (h *Handler) HandleConnect(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		ID:     uuid.New().String(),
		Topics: []string{},
		Send:   make(chan []byte, 256),
	}

	h.hub.Register(client)

	go h.writePump(client, ws)
	go h.readPump(client, ws)

	return nil
}

// readPump reads messages from the WebSocket connection and processes them.
func (h *Handler) readPump(client *Client, ws *gorillawebsocket.Conn) {
	defer func() {
		h.hub.Unregister(client)
		ws.Close()
	}()

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue // Ignore malformed messages.
		}

		if msg.Type == "authenticate" {
			h.authenticate(client, msg.Token)
		}
	}
}

// authenticate verifies the token and subscribes the client to its user topic.
func (h *Handler) authenticate(client *Client, token string) {
	id, err := h.tokens.Verify(token)
	if err != nil {
		h.send(client, Event{Type: "authentication_error"})
		return
	}

	h.hub.Subscribe(client, UserTopic(id.ID))
	h.send(client, Event{Type: "authenticated"})

	h.log.Debug().
		Str("client_id", client.ID).
		Int64("user_id", id.ID).
		Msg("websocket client authenticated")
}

func (h *Handler) send(client *Client, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case client.Send <- data:
	default:
	}
}

// writePump writes messages from the Send channel to the WebSocket connection.
func (h *Handler) writePump(client *Client, ws *gorillawebsocket.Conn) {
	defer ws.Close()

	for message := range client.Send {
		if err := ws.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
			break
		}
	}
}
