package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeRequiresAuthorization(t *testing.T) {
	deny := authorizerFunc(func(context.Context, string, int) (bool, error) {
		return false, nil
	})
	registry := NewRegistry(deny)
	c := NewConnection(1, "alice", 4)
	defer c.Close()

	err := registry.Subscribe(context.Background(), "general", c)
	require.ErrorIs(t, err, ErrNotAuthorized)
	assert.Empty(t, registry.Members("general"))
}

func TestSubscribeAuthorizerErrorPropagates(t *testing.T) {
	boom := errors.New("store unavailable")
	failing := authorizerFunc(func(context.Context, string, int) (bool, error) {
		return false, boom
	})
	registry := NewRegistry(failing)
	c := NewConnection(1, "alice", 4)
	defer c.Close()

	err := registry.Subscribe(context.Background(), "general", c)
	require.ErrorIs(t, err, boom)
}

func TestSubscribeIsIdempotent(t *testing.T) {
	registry := NewRegistry(allowAll)
	c := NewConnection(1, "alice", 4)
	defer c.Close()

	require.NoError(t, registry.Subscribe(context.Background(), "general", c))
	require.NoError(t, registry.Subscribe(context.Background(), "general", c))

	assert.Len(t, registry.Members("general"), 1)
}

func TestSubscribeMovesConnectionBetweenRooms(t *testing.T) {
	registry := NewRegistry(allowAll)
	c := NewConnection(1, "alice", 4)
	defer c.Close()

	require.NoError(t, registry.Subscribe(context.Background(), "general", c))
	require.NoError(t, registry.Subscribe(context.Background(), "random", c))

	// A connection belongs to at most one room at a time.
	assert.Empty(t, registry.Members("general"))
	assert.Len(t, registry.Members("random"), 1)

	room, ok := registry.Room(c)
	require.True(t, ok)
	assert.Equal(t, "random", room)
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	registry := NewRegistry(allowAll)
	c := NewConnection(1, "alice", 4)
	defer c.Close()

	require.NoError(t, registry.Subscribe(context.Background(), "general", c))
	registry.Unsubscribe(c)
	registry.Unsubscribe(c)

	assert.Empty(t, registry.Members("general"))
	_, ok := registry.Room(c)
	assert.False(t, ok)
}

func TestSubscribeRejectsClosedConnection(t *testing.T) {
	registry := NewRegistry(allowAll)
	c := NewConnection(1, "alice", 4)
	c.Close()

	err := registry.Subscribe(context.Background(), "general", c)
	require.ErrorIs(t, err, ErrConnectionClosed)
}

func TestMembersReturnsSnapshot(t *testing.T) {
	registry := NewRegistry(allowAll)
	a := NewConnection(1, "alice", 4)
	b := NewConnection(2, "bob", 4)
	defer a.Close()
	defer b.Close()

	require.NoError(t, registry.Subscribe(context.Background(), "general", a))
	require.NoError(t, registry.Subscribe(context.Background(), "general", b))

	snapshot := registry.Members("general")
	require.Len(t, snapshot, 2)

	// Mutating the registry after the snapshot must not affect it.
	registry.Unsubscribe(a)
	assert.Len(t, snapshot, 2)
	assert.Len(t, registry.Members("general"), 1)
}

func TestNoMembershipLeakageAcrossRooms(t *testing.T) {
	registry := NewRegistry(allowAll)
	a := NewConnection(1, "alice", 4)
	b := NewConnection(2, "bob", 4)
	defer a.Close()
	defer b.Close()

	require.NoError(t, registry.Subscribe(context.Background(), "general", a))
	require.NoError(t, registry.Subscribe(context.Background(), "random", b))

	general := registry.Members("general")
	require.Len(t, general, 1)
	assert.Equal(t, "alice", general[0].Username())

	random := registry.Members("random")
	require.Len(t, random, 1)
	assert.Equal(t, "bob", random[0].Username())
}
