package services

import (
	"context"
	"testing"

	"roomchat/internal/database"
	"roomchat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore embeds the Store interface so only the methods a test
// exercises need real implementations.
type fakeStore struct {
	database.Store
	rooms       map[string]*models.Room
	memberships map[string]map[int]bool // slug -> userID set
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rooms:       make(map[string]*models.Room),
		memberships: make(map[string]map[int]bool),
	}
}

func (f *fakeStore) CreateRoom(ctx context.Context, name, slug string, isPrivate bool, ownerID int) (*models.Room, error) {
	room := &models.Room{
		ID:        len(f.rooms) + 1,
		Name:      name,
		Slug:      slug,
		IsPrivate: isPrivate,
		OwnerID:   ownerID,
	}
	f.rooms[slug] = room
	f.addMember(slug, ownerID)
	return room, nil
}

func (f *fakeStore) GetRoomBySlug(ctx context.Context, slug string) (*models.Room, error) {
	room, ok := f.rooms[slug]
	if !ok {
		return nil, database.ErrNotFound
	}
	return room, nil
}

func (f *fakeStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	_, ok := f.rooms[slug]
	return ok, nil
}

func (f *fakeStore) IsMember(ctx context.Context, userID int, roomSlug string) (bool, error) {
	return f.memberships[roomSlug][userID], nil
}

func (f *fakeStore) AddMembership(ctx context.Context, userID int, roomSlug string) error {
	if _, ok := f.rooms[roomSlug]; !ok {
		return database.ErrNotFound
	}
	f.addMember(roomSlug, userID)
	return nil
}

func (f *fakeStore) addMember(slug string, userID int) {
	if f.memberships[slug] == nil {
		f.memberships[slug] = make(map[int]bool)
	}
	f.memberships[slug][userID] = true
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"General":              "general",
		"Team Chat!":           "team-chat",
		"  spaced  out  ":      "spaced-out",
		"Ünïcode & symbols ##": "n-code-symbols",
		"---":                  "room",
	}
	for input, want := range cases {
		assert.Equal(t, want, slugify(input), "slugify(%q)", input)
	}
}

func TestCreateRoomGeneratesUniqueSlug(t *testing.T) {
	store := newFakeStore()
	svc := NewRoomService(store)

	first, err := svc.CreateRoom(context.Background(), &models.CreateRoomRequest{Name: "General"}, 1)
	require.NoError(t, err)
	assert.Equal(t, "general", first.Slug)

	second, err := svc.CreateRoom(context.Background(), &models.CreateRoomRequest{Name: "General"}, 2)
	require.NoError(t, err)
	assert.Equal(t, "general-1", second.Slug)

	third, err := svc.CreateRoom(context.Background(), &models.CreateRoomRequest{Name: "General"}, 3)
	require.NoError(t, err)
	assert.Equal(t, "general-2", third.Slug)
}

func TestCreateRoomRejectsEmptyName(t *testing.T) {
	svc := NewRoomService(newFakeStore())

	_, err := svc.CreateRoom(context.Background(), &models.CreateRoomRequest{Name: "   "}, 1)
	require.Error(t, err)
}

func TestIsAuthorizedOpenRoomAdmitsAnyone(t *testing.T) {
	store := newFakeStore()
	svc := NewRoomService(store)

	_, err := svc.CreateRoom(context.Background(), &models.CreateRoomRequest{Name: "lobby"}, 1)
	require.NoError(t, err)

	ok, err := svc.IsAuthorized(context.Background(), "lobby", 99)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsAuthorizedPrivateRoomRequiresMembership(t *testing.T) {
	store := newFakeStore()
	svc := NewRoomService(store)

	_, err := svc.CreateRoom(context.Background(), &models.CreateRoomRequest{Name: "secret", IsPrivate: true}, 1)
	require.NoError(t, err)

	ok, err := svc.IsAuthorized(context.Background(), "secret", 1)
	require.NoError(t, err)
	assert.True(t, ok, "owner is a member")

	ok, err = svc.IsAuthorized(context.Background(), "secret", 2)
	require.NoError(t, err)
	assert.False(t, ok, "outsider is rejected")
}

func TestIsAuthorizedUnknownRoomErrors(t *testing.T) {
	svc := NewRoomService(newFakeStore())

	_, err := svc.IsAuthorized(context.Background(), "missing", 1)
	require.ErrorIs(t, err, database.ErrNotFound)
}
