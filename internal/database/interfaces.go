package database

import (
	"context"

	"roomchat/internal/models"
)

type UserRepository interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	CreateUser(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
}

type RoomRepository interface {
	CreateRoom(ctx context.Context, name, slug string, isPrivate bool, ownerID int) (*models.Room, error)
	GetRoomBySlug(ctx context.Context, slug string) (*models.Room, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	ListUserRooms(ctx context.Context, userID int) ([]*models.Room, error)
	DeleteRoom(ctx context.Context, slug string, ownerID int) error
}

type MembershipRepository interface {
	AddMembership(ctx context.Context, userID int, roomSlug string) error
	RemoveMembership(ctx context.Context, userID int, roomSlug string) error
	IsMember(ctx context.Context, userID int, roomSlug string) (bool, error)
	GetRoomMembers(ctx context.Context, roomSlug string) ([]*models.Member, error)
}

type MessageRepository interface {
	// CreateMessage assigns the authoritative message ID and timestamp;
	// callers must not broadcast a message before this returns.
	CreateMessage(ctx context.Context, roomSlug string, userID int, content string) (*models.Message, error)
	LoadRecentMessages(ctx context.Context, roomSlug string, limit int) ([]*models.Message, error)
}

type InvitationRepository interface {
	CreateInvitation(ctx context.Context, roomSlug string, invitedBy int, invitedUser *int) (*models.Invitation, error)
	GetInvitationByCode(ctx context.Context, code string) (*models.Invitation, error)
	AcceptInvitation(ctx context.Context, invitationID, userID int) error
	DeclineInvitation(ctx context.Context, invitationID, userID int) error
	ListPendingInvitations(ctx context.Context, userID int) ([]*models.Invitation, error)
}

type Store interface {
	UserRepository
	RoomRepository
	MembershipRepository
	MessageRepository
	InvitationRepository
	Close() error
}
