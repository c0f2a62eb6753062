package handlers

import (
	"context"
	"errors"
	"net/http"

	"roomchat/internal/auth"
	"roomchat/internal/chat"
	"roomchat/internal/database"
	ws "roomchat/internal/websocket"
	"roomchat/pkg/logger"

	"github.com/gorilla/websocket"
)

type WebSocketHandlers struct {
	authService  *auth.Service
	registry     *chat.Registry
	presence     *chat.Tracker
	dispatcher   *chat.Dispatcher
	store        database.Store
	mailboxSize  int
	historyLimit int
	upgrader     websocket.Upgrader
}

func NewWebSocketHandlers(authService *auth.Service, registry *chat.Registry, presence *chat.Tracker, dispatcher *chat.Dispatcher, store database.Store, mailboxSize, historyLimit int) *WebSocketHandlers {
	return &WebSocketHandlers{
		authService:  authService,
		registry:     registry,
		presence:     presence,
		dispatcher:   dispatcher,
		store:        store,
		mailboxSize:  mailboxSize,
		historyLimit: historyLimit,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // Configure for production
		},
	}
}

func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Get JWT token from query parameters
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	// Validate token and get user
	user, err := h.authService.GetUserFromToken(r.Context(), tokenStr)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	roomSlug := r.URL.Query().Get("room")
	if roomSlug == "" {
		http.Error(w, "missing room", http.StatusBadRequest)
		return
	}

	// Upgrade connection to WebSocket
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Upgrade error: %v", err)
		return
	}

	chatConn := chat.NewConnection(user.ID, user.Username, h.mailboxSize)
	session := chat.NewSession(h.registry, h.presence, h.dispatcher, h.store, chatConn)

	// The registry performs the authoritative membership check; on
	// rejection the session closes without ever joining.
	if err := session.Join(context.Background(), roomSlug); err != nil {
		if errors.Is(err, chat.ErrNotAuthorized) {
			logger.Info("User %s rejected from room %s", user.Username, roomSlug)
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "not authorized"))
		} else {
			logger.Error("Join error for %s: %v", user.Username, err)
		}
		conn.Close()
		return
	}

	client := ws.NewClient(conn, session, h.store)

	// Replay recent history before live traffic lands.
	client.SendRecentMessages(roomSlug, h.historyLimit)

	go client.WritePump()
	go client.ReadPump()
}
