package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func joinRoom(t *testing.T, registry *Registry, tracker *Tracker, room string, c *Connection) {
	t.Helper()
	require.NoError(t, registry.Subscribe(context.Background(), room, c))
	tracker.MarkOnline(room, c)
}

func TestFirstConnectionEmitsJoinEvent(t *testing.T) {
	registry, tracker, _ := newCore(allowAll)
	a := NewConnection(1, "alice", 8)
	defer a.Close()

	require.NoError(t, registry.Subscribe(context.Background(), "general", a))
	count := tracker.MarkOnline("general", a)

	assert.Equal(t, 1, count)
	events := drain(a)
	require.Len(t, events, 1)
	assert.Equal(t, EventJoin, events[0].Type)
	assert.Equal(t, "alice", events[0].Username)
}

func TestMultiDeviceJoinEmitsSingleJoinEvent(t *testing.T) {
	registry, tracker, _ := newCore(allowAll)
	phone := NewConnection(1, "alice", 8)
	laptop := NewConnection(1, "alice", 8)
	defer phone.Close()
	defer laptop.Close()

	joinRoom(t, registry, tracker, "general", phone)
	drain(phone)

	joinRoom(t, registry, tracker, "general", laptop)

	// Second device of the same user must not announce a second join.
	assert.Empty(t, drain(phone))
	assert.Equal(t, []string{"alice"}, tracker.Online("general"))
}

func TestLeaveEventOnlyAfterLastConnectionCloses(t *testing.T) {
	registry, tracker, _ := newCore(allowAll)
	phone := NewConnection(1, "alice", 8)
	laptop := NewConnection(1, "alice", 8)
	watcher := NewConnection(2, "bob", 8)
	defer watcher.Close()

	joinRoom(t, registry, tracker, "general", phone)
	joinRoom(t, registry, tracker, "general", laptop)
	joinRoom(t, registry, tracker, "general", watcher)
	drain(watcher)

	registry.Unsubscribe(phone)
	count := tracker.MarkOffline("general", phone)
	phone.Close()

	// Alice is still online through her laptop.
	assert.Equal(t, 2, count)
	assert.Empty(t, drain(watcher))

	registry.Unsubscribe(laptop)
	count = tracker.MarkOffline("general", laptop)
	laptop.Close()

	assert.Equal(t, 1, count)
	events := drain(watcher)
	require.Len(t, events, 1)
	assert.Equal(t, EventLeave, events[0].Type)
	assert.Equal(t, "alice", events[0].Username)
	assert.Equal(t, []string{"bob"}, tracker.Online("general"))
}

func TestTypingEventExcludesOriginator(t *testing.T) {
	registry, tracker, _ := newCore(allowAll)
	a := NewConnection(1, "alice", 8)
	b := NewConnection(2, "bob", 8)
	defer a.Close()
	defer b.Close()

	joinRoom(t, registry, tracker, "general", a)
	joinRoom(t, registry, tracker, "general", b)
	drain(a)
	drain(b)

	tracker.SetTyping("general", a, true)

	assert.Empty(t, drain(a))
	events := drain(b)
	require.Len(t, events, 1)
	assert.Equal(t, EventTyping, events[0].Type)
	assert.Equal(t, "alice", events[0].Username)
	assert.True(t, events[0].IsTyping)
}

func TestTypingFlagClearedOnOffline(t *testing.T) {
	registry, tracker, _ := newCore(allowAll)
	a := NewConnection(1, "alice", 8)
	b := NewConnection(2, "bob", 8)
	defer b.Close()

	joinRoom(t, registry, tracker, "general", a)
	joinRoom(t, registry, tracker, "general", b)
	tracker.SetTyping("general", a, true)
	drain(b)

	registry.Unsubscribe(a)
	tracker.MarkOffline("general", a)
	a.Close()

	// Only the leave notification; no stale stop-typing follow-up is
	// required, the flag simply disappears with the connection.
	events := drain(b)
	require.Len(t, events, 1)
	assert.Equal(t, EventLeave, events[0].Type)
}

func TestMarkOfflineUnknownRoomIsSafe(t *testing.T) {
	_, tracker, _ := newCore(allowAll)
	c := NewConnection(1, "alice", 8)
	defer c.Close()

	assert.Equal(t, 0, tracker.MarkOffline("nowhere", c))
}

func TestPresenceClearedWhenRoomEmpties(t *testing.T) {
	registry, tracker, _ := newCore(allowAll)
	a := NewConnection(1, "alice", 8)

	joinRoom(t, registry, tracker, "general", a)
	registry.Unsubscribe(a)
	tracker.MarkOffline("general", a)
	a.Close()

	assert.Empty(t, tracker.Online("general"))
}
