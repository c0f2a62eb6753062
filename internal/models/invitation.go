package models

import "time"

// Invitation covers both variants from the invite flow: a direct
// invitation carries the invited user's ID, an open invite link leaves
// it nil until someone redeems the code.
type Invitation struct {
	ID          int       `json:"id"`
	RoomSlug    string    `json:"room_slug"`
	RoomName    string    `json:"room_name,omitempty"`
	InvitedBy   int       `json:"invited_by"`
	InvitedUser *int      `json:"invited_user,omitempty"`
	InviteCode  string    `json:"invite_code"`
	Accepted    bool      `json:"accepted"`
	CreatedAt   time.Time `json:"created_at"`
}

type InviteRequest struct {
	Email string `json:"email"`
}

type InviteLinkResponse struct {
	InviteCode string `json:"invite_code"`
	InviteLink string `json:"invite_link"`
}

type InviteFromRoomRequest struct {
	SourceRoom string `json:"source_room"`
	UserIDs    []int  `json:"user_ids"`
}

type InviteFromRoomResponse struct {
	Invited       int `json:"invited"`
	AlreadyMember int `json:"already_member"`
}
