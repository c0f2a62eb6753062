package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionSendAndReceive(t *testing.T) {
	c := NewConnection(1, "alice", 4)

	require.NoError(t, c.Send(NewJoinEvent("alice")))
	require.NoError(t, c.Send(NewTypingEvent("alice", true)))

	events := drain(c)
	require.Len(t, events, 2)
	assert.Equal(t, EventJoin, events[0].Type)
	assert.Equal(t, EventTyping, events[1].Type)
	c.Close()
}

func TestConnectionSendAfterCloseIsNoop(t *testing.T) {
	c := NewConnection(1, "alice", 4)
	c.Close()

	require.NoError(t, c.Send(NewJoinEvent("alice")))
	assert.Empty(t, drain(c))
}

func TestConnectionCloseIsIdempotent(t *testing.T) {
	c := NewConnection(1, "alice", 4)

	c.Close()
	assert.NotPanics(t, c.Close)
	assert.Equal(t, StateClosed, c.State())
}

func TestConnectionMailboxOverflowDropsEvent(t *testing.T) {
	c := NewConnection(1, "alice", 1)
	defer c.Close()

	require.NoError(t, c.Send(NewJoinEvent("alice")))
	err := c.Send(NewJoinEvent("bob"))
	require.ErrorIs(t, err, ErrMailboxFull)

	// The first event is still deliverable, the overflowing one is gone.
	events := drain(c)
	require.Len(t, events, 1)
	assert.Equal(t, "alice", events[0].Username)
}

func TestConnectionEventsEndAfterClose(t *testing.T) {
	c := NewConnection(1, "alice", 4)
	require.NoError(t, c.Send(NewJoinEvent("alice")))
	c.Close()

	// Buffered events drain, then the channel reports closed.
	ev, ok := <-c.Events()
	require.True(t, ok)
	assert.Equal(t, EventJoin, ev.Type)

	_, ok = <-c.Events()
	assert.False(t, ok)
}

func TestConnectionStateStartsConnecting(t *testing.T) {
	c := NewConnection(1, "alice", 4)
	defer c.Close()

	assert.Equal(t, StateConnecting, c.State())
	c.markJoined()
	assert.Equal(t, StateJoined, c.State())
}
