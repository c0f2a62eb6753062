package chat

import "sync"

// Tracker keeps per-room presence: which users have at least one live
// connection subscribed, and which connections are currently typing.
// Presence is ephemeral and reconstructed entirely from live
// connections; nothing is persisted.
type Tracker struct {
	dispatcher *Dispatcher

	mu    sync.Mutex
	rooms map[string]*roomPresence
}

type roomPresence struct {
	// online counts live connections per username, not a boolean per
	// user, so a user with two devices stays online until both close.
	online map[string]int
	typing map[string]bool // keyed by connection ID
}

func NewTracker(dispatcher *Dispatcher) *Tracker {
	return &Tracker{
		dispatcher: dispatcher,
		rooms:      make(map[string]*roomPresence),
	}
}

// MarkOnline records a live connection for the user in the room and
// returns the room's online-participant count. The first connection of
// a user (0 to 1) broadcasts a JoinEvent to the whole room, the joiner
// included.
func (t *Tracker) MarkOnline(roomSlug string, c *Connection) int {
	t.mu.Lock()
	rp, ok := t.rooms[roomSlug]
	if !ok {
		rp = &roomPresence{online: make(map[string]int), typing: make(map[string]bool)}
		t.rooms[roomSlug] = rp
	}
	rp.online[c.Username()]++
	first := rp.online[c.Username()] == 1
	count := len(rp.online)
	t.mu.Unlock()

	if first {
		t.dispatcher.Publish(roomSlug, NewJoinEvent(c.Username()), nil)
	}
	return count
}

// MarkOffline decrements the user's live-connection count and returns
// the remaining online-participant count. The last connection of a
// user (1 to 0) removes the identity and broadcasts exactly one
// LeaveEvent. Safe to call for a connection that was never marked
// online.
func (t *Tracker) MarkOffline(roomSlug string, c *Connection) int {
	t.mu.Lock()
	rp, ok := t.rooms[roomSlug]
	if !ok {
		t.mu.Unlock()
		return 0
	}
	delete(rp.typing, c.ID())

	last := false
	if n, tracked := rp.online[c.Username()]; tracked {
		if n <= 1 {
			delete(rp.online, c.Username())
			last = true
		} else {
			rp.online[c.Username()] = n - 1
		}
	}
	count := len(rp.online)
	if count == 0 && len(rp.typing) == 0 {
		delete(t.rooms, roomSlug)
	}
	t.mu.Unlock()

	if last {
		t.dispatcher.Publish(roomSlug, NewLeaveEvent(c.Username()), nil)
	}
	return count
}

// SetTyping updates the connection's typing flag and broadcasts a
// TypingEvent to the room, excluding the originating connection so a
// client never sees its own typing status echoed back.
func (t *Tracker) SetTyping(roomSlug string, c *Connection, isTyping bool) {
	t.mu.Lock()
	rp, ok := t.rooms[roomSlug]
	if !ok {
		t.mu.Unlock()
		return
	}
	if isTyping {
		rp.typing[c.ID()] = true
	} else {
		delete(rp.typing, c.ID())
	}
	t.mu.Unlock()

	t.dispatcher.Publish(roomSlug, NewTypingEvent(c.Username(), isTyping), c)
}

// Online returns a snapshot of the usernames currently present in the
// room.
func (t *Tracker) Online(roomSlug string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	rp, ok := t.rooms[roomSlug]
	if !ok {
		return nil
	}
	users := make([]string, 0, len(rp.online))
	for username := range rp.online {
		users = append(users, username)
	}
	return users
}
