package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"roomchat/internal/auth"
	"roomchat/internal/models"
	"roomchat/internal/services"
	"roomchat/pkg/logger"
)

type InvitationHandlers struct {
	invitations *services.InvitationService
	authService *auth.Service
}

func NewInvitationHandlers(invitations *services.InvitationService, authService *auth.Service) *InvitationHandlers {
	return &InvitationHandlers{
		invitations: invitations,
		authService: authService,
	}
}

// InviteUser handles POST /rooms/{slug}/invite with the invitee's
// email in the body.
func (h *InvitationHandlers) InviteUser(w http.ResponseWriter, r *http.Request) {
	user, err := userFromRequest(r, h.authService)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	slug, err := getRoomSlugFromPath(r)
	if err != nil {
		http.Error(w, "invalid room", http.StatusBadRequest)
		return
	}

	var req models.InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	inv, err := h.invitations.InviteUser(r.Context(), slug, user.ID, req.Email)
	if err != nil {
		logger.Error("Invite error: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(inv)
}

// CreateInviteLink handles POST /rooms/{slug}/invite-link and returns
// a shareable join URL.
func (h *InvitationHandlers) CreateInviteLink(w http.ResponseWriter, r *http.Request) {
	user, err := userFromRequest(r, h.authService)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	slug, err := getRoomSlugFromPath(r)
	if err != nil {
		http.Error(w, "invalid room", http.StatusBadRequest)
		return
	}

	inv, err := h.invitations.CreateInviteLink(r.Context(), slug, user.ID)
	if err != nil {
		logger.Error("Invite link error: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	resp := models.InviteLinkResponse{
		InviteCode: inv.InviteCode,
		InviteLink: fmt.Sprintf("%s://%s/join/%s", scheme, r.Host, inv.InviteCode),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// InviteFromRoom handles POST /rooms/{slug}/invite-from-room: bulk
// invitation of selected members of another room the caller is in.
func (h *InvitationHandlers) InviteFromRoom(w http.ResponseWriter, r *http.Request) {
	user, err := userFromRequest(r, h.authService)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	slug, err := getRoomSlugFromPath(r)
	if err != nil {
		http.Error(w, "invalid room", http.StatusBadRequest)
		return
	}

	var req models.InviteFromRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SourceRoom == "" || len(req.UserIDs) == 0 {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	invited, alreadyMember, err := h.invitations.InviteFromRoom(r.Context(), slug, req.SourceRoom, user.ID, req.UserIDs)
	if err != nil {
		logger.Error("Invite from room error: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.InviteFromRoomResponse{
		Invited:       invited,
		AlreadyMember: alreadyMember,
	})
}

// JoinByCode handles POST /join/{code}.
func (h *InvitationHandlers) JoinByCode(w http.ResponseWriter, r *http.Request) {
	user, err := userFromRequest(r, h.authService)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 2 || parts[1] == "" {
		http.Error(w, "invalid invite code", http.StatusBadRequest)
		return
	}
	code := parts[1]

	room, err := h.invitations.JoinByCode(r.Context(), code, user.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(room)
}

// ListInvitations handles GET /invitations: the caller's pending
// direct invitations.
func (h *InvitationHandlers) ListInvitations(w http.ResponseWriter, r *http.Request) {
	user, err := userFromRequest(r, h.authService)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	invitations, err := h.invitations.ListPending(r.Context(), user.ID)
	if err != nil {
		logger.Error("List invitations error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(invitations)
}

// DeclineInvitation handles DELETE /invitations/{id}.
func (h *InvitationHandlers) DeclineInvitation(w http.ResponseWriter, r *http.Request) {
	user, err := userFromRequest(r, h.authService)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 2 {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}
	id, err := strconv.Atoi(parts[1])
	if err != nil {
		http.Error(w, "invalid invitation ID", http.StatusBadRequest)
		return
	}

	if err := h.invitations.Decline(r.Context(), id, user.ID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
