package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"roomchat/internal/database"
	"roomchat/internal/models"
)

type RoomService struct {
	store database.Store
}

func NewRoomService(store database.Store) *RoomService {
	return &RoomService{store: store}
}

func (s *RoomService) CreateRoom(ctx context.Context, req *models.CreateRoomRequest, ownerID int) (*models.Room, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("room name is required")
	}

	slug, err := s.generateUniqueSlug(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to generate slug: %w", err)
	}

	return s.store.CreateRoom(ctx, name, slug, req.IsPrivate, ownerID)
}

func (s *RoomService) GetRoom(ctx context.Context, slug string) (*models.Room, error) {
	return s.store.GetRoomBySlug(ctx, slug)
}

func (s *RoomService) ListUserRooms(ctx context.Context, userID int) ([]*models.Room, error) {
	return s.store.ListUserRooms(ctx, userID)
}

func (s *RoomService) DeleteRoom(ctx context.Context, slug string, ownerID int) error {
	return s.store.DeleteRoom(ctx, slug, ownerID)
}

func (s *RoomService) LeaveRoom(ctx context.Context, userID int, slug string) error {
	isMember, err := s.store.IsMember(ctx, userID, slug)
	if err != nil {
		return fmt.Errorf("database error")
	}
	if !isMember {
		return fmt.Errorf("not a member of this room")
	}

	return s.store.RemoveMembership(ctx, userID, slug)
}

func (s *RoomService) GetRoomMembers(ctx context.Context, slug string, userID int) ([]*models.Member, error) {
	ok, err := s.IsAuthorized(ctx, slug, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("forbidden")
	}

	return s.store.GetRoomMembers(ctx, slug)
}

func (s *RoomService) GetRecentMessages(ctx context.Context, slug string, userID, limit int) ([]*models.Message, error) {
	ok, err := s.IsAuthorized(ctx, slug, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("forbidden")
	}

	return s.store.LoadRecentMessages(ctx, slug, limit)
}

// IsAuthorized is the membership predicate the chat core consults
// before letting a connection subscribe: private rooms require
// membership, open rooms admit any authenticated user.
func (s *RoomService) IsAuthorized(ctx context.Context, slug string, userID int) (bool, error) {
	room, err := s.store.GetRoomBySlug(ctx, slug)
	if err != nil {
		return false, err
	}

	if !room.IsPrivate {
		return true, nil
	}

	return s.store.IsMember(ctx, userID, slug)
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = nonSlugChars.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "room"
	}
	return slug
}

// generateUniqueSlug appends a numeric suffix until the slug is free.
func (s *RoomService) generateUniqueSlug(ctx context.Context, name string) (string, error) {
	base := slugify(name)
	slug := base

	for counter := 1; ; counter++ {
		exists, err := s.store.SlugExists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
	}
}
