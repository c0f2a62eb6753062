package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"roomchat/internal/auth"
	"roomchat/internal/chat"
	"roomchat/internal/models"
	"roomchat/internal/services"
	"roomchat/pkg/logger"
)

type RoomHandlers struct {
	roomService  *services.RoomService
	authService  *auth.Service
	presence     *chat.Tracker
	historyLimit int
}

func NewRoomHandlers(roomService *services.RoomService, authService *auth.Service, presence *chat.Tracker, historyLimit int) *RoomHandlers {
	return &RoomHandlers{
		roomService:  roomService,
		authService:  authService,
		presence:     presence,
		historyLimit: historyLimit,
	}
}

func (h *RoomHandlers) CreateRoom(w http.ResponseWriter, r *http.Request) {
	user, err := h.getUserFromToken(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	room, err := h.roomService.CreateRoom(r.Context(), &req, user.ID)
	if err != nil {
		logger.Error("Create room error: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(room)
}

func (h *RoomHandlers) ListRooms(w http.ResponseWriter, r *http.Request) {
	user, err := h.getUserFromToken(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	rooms, err := h.roomService.ListUserRooms(r.Context(), user.ID)
	if err != nil {
		logger.Error("List rooms error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rooms)
}

func (h *RoomHandlers) GetRoom(w http.ResponseWriter, r *http.Request) {
	user, err := h.getUserFromToken(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	slug, err := getRoomSlugFromPath(r)
	if err != nil {
		http.Error(w, "invalid room", http.StatusBadRequest)
		return
	}

	ok, err := h.roomService.IsAuthorized(r.Context(), slug, user.ID)
	if err != nil || !ok {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	room, err := h.roomService.GetRoom(r.Context(), slug)
	if err != nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(room)
}

func (h *RoomHandlers) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	user, err := h.getUserFromToken(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	slug, err := getRoomSlugFromPath(r)
	if err != nil {
		http.Error(w, "invalid room", http.StatusBadRequest)
		return
	}

	if err := h.roomService.DeleteRoom(r.Context(), slug, user.ID); err != nil {
		logger.Error("Delete room error: %v", err)
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *RoomHandlers) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	user, err := h.getUserFromToken(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	slug, err := getRoomSlugFromPath(r)
	if err != nil {
		http.Error(w, "invalid room", http.StatusBadRequest)
		return
	}

	if err := h.roomService.LeaveRoom(r.Context(), user.ID, slug); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *RoomHandlers) GetRoomMembers(w http.ResponseWriter, r *http.Request) {
	user, err := h.getUserFromToken(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	slug, err := getRoomSlugFromPath(r)
	if err != nil {
		http.Error(w, "invalid room", http.StatusBadRequest)
		return
	}

	members, err := h.roomService.GetRoomMembers(r.Context(), slug, user.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(members)
}

func (h *RoomHandlers) GetRecentMessages(w http.ResponseWriter, r *http.Request) {
	user, err := h.getUserFromToken(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	slug, err := getRoomSlugFromPath(r)
	if err != nil {
		http.Error(w, "invalid room", http.StatusBadRequest)
		return
	}

	messages, err := h.roomService.GetRecentMessages(r.Context(), slug, user.ID, h.historyLimit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(messages)
}

// GetActiveUsers reports live presence straight from the tracker; no
// database round trip.
func (h *RoomHandlers) GetActiveUsers(w http.ResponseWriter, r *http.Request) {
	user, err := h.getUserFromToken(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	slug, err := getRoomSlugFromPath(r)
	if err != nil {
		http.Error(w, "invalid room", http.StatusBadRequest)
		return
	}

	ok, err := h.roomService.IsAuthorized(r.Context(), slug, user.ID)
	if err != nil || !ok {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	online := h.presence.Online(slug)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"users": online,
		"count": len(online),
	})
}

func (h *RoomHandlers) getUserFromToken(r *http.Request) (*models.User, error) {
	return userFromRequest(r, h.authService)
}

func userFromRequest(r *http.Request, authService *auth.Service) (*models.User, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, fmt.Errorf("missing authorization header")
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		return nil, fmt.Errorf("malformed authorization header")
	}
	return authService.GetUserFromToken(r.Context(), token)
}

// getRoomSlugFromPath extracts the slug from /rooms/{slug}/... paths.
func getRoomSlugFromPath(r *http.Request) (string, error) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != "rooms" || parts[1] == "" {
		return "", fmt.Errorf("invalid path")
	}
	return parts[1], nil
}
