package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"roomchat/internal/auth"
	"roomchat/internal/chat"
	"roomchat/internal/config"
	"roomchat/internal/database"
	"roomchat/internal/handlers"
	"roomchat/internal/services"
	"roomchat/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	store, err := database.NewPostgresStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer store.Close()

	// Initialize services
	authService := auth.NewService(store, cfg)
	roomService := services.NewRoomService(store)
	invitationService := services.NewInvitationService(store)

	// Initialize the chat core: registry gated by the room service's
	// membership predicate, dispatcher fanning out over the registry,
	// presence derived from live connections.
	registry := chat.NewRegistry(roomService)
	dispatcher := chat.NewDispatcher(registry)
	presence := chat.NewTracker(dispatcher)

	// Initialize handlers
	authHandlers := handlers.NewAuthHandlers(authService)
	roomHandlers := handlers.NewRoomHandlers(roomService, authService, presence, cfg.Chat.HistoryLimit)
	invitationHandlers := handlers.NewInvitationHandlers(invitationService, authService)
	wsHandlers := handlers.NewWebSocketHandlers(authService, registry, presence, dispatcher, store, cfg.Chat.MailboxSize, cfg.Chat.HistoryLimit)

	// Setup routes
	mux := http.NewServeMux()
	setupRoutes(mux, authHandlers, roomHandlers, invitationHandlers, wsHandlers)

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      corsMiddleware(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	logger.Info("🚀 Server started on http://localhost%s", cfg.Server.Port)
	logger.Info("📡 WebSocket endpoint: ws://localhost%s/ws", cfg.Server.Port)
	printAPIEndpoints()

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Server shutting down...")

	// Stop accepting new connections and drain in-flight requests
	// before the process exits.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown: %v", err)
	}
	logger.Info("Server stopped")
}

func setupRoutes(mux *http.ServeMux, authHandlers *handlers.AuthHandlers, roomHandlers *handlers.RoomHandlers, invitationHandlers *handlers.InvitationHandlers, wsHandlers *handlers.WebSocketHandlers) {
	// Auth routes
	mux.HandleFunc("/login", authHandlers.Login)
	mux.HandleFunc("/register", authHandlers.Register)

	// Room routes
	mux.HandleFunc("/rooms", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rooms" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		switch r.Method {
		case http.MethodGet:
			roomHandlers.ListRooms(w, r)
		case http.MethodPost:
			roomHandlers.CreateRoom(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Room sub-routes
	mux.HandleFunc("/rooms/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) < 2 || parts[1] == "" {
			http.Error(w, "invalid path", http.StatusBadRequest)
			return
		}

		// /rooms/{slug}
		if len(parts) == 2 {
			switch r.Method {
			case http.MethodGet:
				roomHandlers.GetRoom(w, r)
			case http.MethodDelete:
				roomHandlers.DeleteRoom(w, r)
			default:
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			}
			return
		}

		// /rooms/{slug}/{action}
		if len(parts) == 3 {
			switch {
			case parts[2] == "invite" && r.Method == http.MethodPost:
				invitationHandlers.InviteUser(w, r)
			case parts[2] == "invite-link" && r.Method == http.MethodPost:
				invitationHandlers.CreateInviteLink(w, r)
			case parts[2] == "invite-from-room" && r.Method == http.MethodPost:
				invitationHandlers.InviteFromRoom(w, r)
			case parts[2] == "members" && r.Method == http.MethodGet:
				roomHandlers.GetRoomMembers(w, r)
			case parts[2] == "messages" && r.Method == http.MethodGet:
				roomHandlers.GetRecentMessages(w, r)
			case parts[2] == "active" && r.Method == http.MethodGet:
				roomHandlers.GetActiveUsers(w, r)
			case parts[2] == "leave" && r.Method == http.MethodDelete:
				roomHandlers.LeaveRoom(w, r)
			default:
				http.Error(w, "endpoint not found", http.StatusNotFound)
			}
			return
		}

		http.Error(w, "endpoint not found", http.StatusNotFound)
	})

	// Invitation routes
	mux.HandleFunc("/invitations", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		invitationHandlers.ListInvitations(w, r)
	})
	mux.HandleFunc("/invitations/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		invitationHandlers.DeclineInvitation(w, r)
	})
	mux.HandleFunc("/join/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		invitationHandlers.JoinByCode(w, r)
	})

	// WebSocket route
	mux.HandleFunc("/ws", wsHandlers.HandleWebSocket)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func printAPIEndpoints() {
	logger.Info("🔗 API endpoints:")
	logger.Info("   POST /login")
	logger.Info("   POST /register")
	logger.Info("   GET  /rooms")
	logger.Info("   POST /rooms")
	logger.Info("   GET  /rooms/{slug}")
	logger.Info("   GET  /rooms/{slug}/members")
	logger.Info("   GET  /rooms/{slug}/messages")
	logger.Info("   GET  /rooms/{slug}/active")
	logger.Info("   POST /rooms/{slug}/invite")
	logger.Info("   POST /rooms/{slug}/invite-link")
	logger.Info("   POST /rooms/{slug}/invite-from-room")
	logger.Info("   DELETE /rooms/{slug}/leave")
	logger.Info("   DELETE /rooms/{slug}")
	logger.Info("   GET  /invitations")
	logger.Info("   DELETE /invitations/{id}")
	logger.Info("   POST /join/{code}")
}
