package handlers

import (
	"net/http"

	"chat-relay/internal/auth"
	"chat-relay/internal/models"
	"chat-relay/internal/relay"
	"chat-relay/pkg/logger"

	"github.com/gorilla/websocket"
)

type WebSocketHandlers struct {
	authService *auth.Service
	dispatcher  *relay.Dispatcher
	upgrader    websocket.Upgrader
}

func NewWebSocketHandlers(authService *auth.Service, dispatcher *relay.Dispatcher) *WebSocketHandlers {
	return &WebSocketHandlers{
		authService: authService,
		dispatcher:  dispatcher,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // Configure for production
		},
	}
}

// HandleWebSocket upgrades the connection and hands it to the dispatcher.
// A token is optional: with one, the session carries a stable UID across
// reconnects; without one, the client authenticates purely in-band.
func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	var identity *auth.Identity
	if tokenStr := r.URL.Query().Get("token"); tokenStr != "" {
		var err error
		identity, err = h.authService.ValidateToken(tokenStr)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Upgrade error: %v", err)
		return
	}

	session := relay.NewSession(models.NewID(), conn)
	if identity != nil {
		session.UID = identity.UID
	}

	if !h.dispatcher.Attach(session) {
		conn.Close()
		return
	}

	go session.WritePump()
	go session.ReadPump(h.dispatcher)
}
