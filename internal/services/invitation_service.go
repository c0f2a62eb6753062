package services

import (
	"context"
	"errors"
	"fmt"

	"roomchat/internal/database"
	"roomchat/internal/models"
)

type InvitationService struct {
	store database.Store
}

func NewInvitationService(store database.Store) *InvitationService {
	return &InvitationService{store: store}
}

// InviteUser creates a direct invitation for the user behind the given
// email. Only room members may invite.
func (s *InvitationService) InviteUser(ctx context.Context, slug string, inviterID int, email string) (*models.Invitation, error) {
	isMember, err := s.store.IsMember(ctx, inviterID, slug)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, fmt.Errorf("not a participant of this room")
	}

	invited, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}

	alreadyMember, err := s.store.IsMember(ctx, invited.ID, slug)
	if err != nil {
		return nil, err
	}
	if alreadyMember {
		return nil, fmt.Errorf("user is already a participant")
	}

	return s.store.CreateInvitation(ctx, slug, inviterID, &invited.ID)
}

// InviteFromRoom bulk-invites selected members of a source room into a
// target room. The inviter must be a participant of both rooms; users
// who are already members of the target, or who do not exist, are
// skipped and counted rather than failing the batch.
func (s *InvitationService) InviteFromRoom(ctx context.Context, targetSlug, sourceSlug string, inviterID int, userIDs []int) (invited, alreadyMember int, err error) {
	isMember, err := s.store.IsMember(ctx, inviterID, targetSlug)
	if err != nil {
		return 0, 0, err
	}
	if !isMember {
		return 0, 0, fmt.Errorf("not a participant of the target room")
	}

	isMember, err = s.store.IsMember(ctx, inviterID, sourceSlug)
	if err != nil {
		return 0, 0, err
	}
	if !isMember {
		return 0, 0, fmt.Errorf("not a participant of the source room")
	}

	for _, userID := range userIDs {
		if _, err := s.store.GetUserByID(ctx, userID); err != nil {
			continue
		}

		member, err := s.store.IsMember(ctx, userID, targetSlug)
		if err != nil {
			return invited, alreadyMember, err
		}
		if member {
			alreadyMember++
			continue
		}

		uid := userID
		if _, err := s.store.CreateInvitation(ctx, targetSlug, inviterID, &uid); err != nil {
			return invited, alreadyMember, err
		}
		invited++
	}
	return invited, alreadyMember, nil
}

// CreateInviteLink creates an open invitation not bound to any user;
// whoever redeems the code first claims it.
func (s *InvitationService) CreateInviteLink(ctx context.Context, slug string, inviterID int) (*models.Invitation, error) {
	isMember, err := s.store.IsMember(ctx, inviterID, slug)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, fmt.Errorf("not a participant of this room")
	}

	return s.store.CreateInvitation(ctx, slug, inviterID, nil)
}

// JoinByCode redeems an invite code: marks the invitation accepted and
// adds the user to the room. A direct invitation can only be redeemed
// by its addressee; an open one is single-use.
func (s *InvitationService) JoinByCode(ctx context.Context, code string, userID int) (*models.Room, error) {
	inv, err := s.store.GetInvitationByCode(ctx, code)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("invitation not found")
		}
		return nil, err
	}
	if inv.Accepted {
		return nil, fmt.Errorf("invitation has already been used")
	}
	if inv.InvitedUser != nil && *inv.InvitedUser != userID {
		return nil, fmt.Errorf("invitation was issued to another user")
	}

	if err := s.store.AcceptInvitation(ctx, inv.ID, userID); err != nil {
		return nil, err
	}
	if err := s.store.AddMembership(ctx, userID, inv.RoomSlug); err != nil {
		return nil, err
	}

	return s.store.GetRoomBySlug(ctx, inv.RoomSlug)
}

func (s *InvitationService) Decline(ctx context.Context, invitationID, userID int) error {
	return s.store.DeclineInvitation(ctx, invitationID, userID)
}

func (s *InvitationService) ListPending(ctx context.Context, userID int) ([]*models.Invitation, error) {
	return s.store.ListPendingInvitations(ctx, userID)
}
