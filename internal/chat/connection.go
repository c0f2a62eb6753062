package chat

import (
	"sync"

	"github.com/google/uuid"
)

type ConnState int

const (
	StateConnecting ConnState = iota
	StateJoined
	StateClosed
)

const DefaultMailboxSize = 256

// Connection is one live transport-level session for one user. It owns
// an outbound mailbox that decouples dispatch from delivery: Send never
// blocks the caller, and the transport drains Events at its own pace.
type Connection struct {
	id       string
	userID   int
	username string

	mu      sync.Mutex
	state   ConnState
	mailbox chan Event
}

func NewConnection(userID int, username string, mailboxSize int) *Connection {
	if mailboxSize <= 0 {
		mailboxSize = DefaultMailboxSize
	}
	return &Connection{
		id:       uuid.NewString(),
		userID:   userID,
		username: username,
		state:    StateConnecting,
		mailbox:  make(chan Event, mailboxSize),
	}
}

func (c *Connection) ID() string       { return c.id }
func (c *Connection) UserID() int      { return c.userID }
func (c *Connection) Username() string { return c.username }

func (c *Connection) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Send enqueues an event without blocking. Sending to a closed
// connection is a no-op: the dispatcher may race with a disconnect and
// must be able to tolerate it. A full mailbox drops the event and
// returns ErrMailboxFull.
func (c *Connection) Send(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed {
		return nil
	}

	select {
	case c.mailbox <- ev:
		return nil
	default:
		return ErrMailboxFull
	}
}

// Events exposes the mailbox for the transport's write loop. The
// channel is closed when the connection closes; a closed connection
// cannot resume, reconnecting creates a new Connection.
func (c *Connection) Events() <-chan Event {
	return c.mailbox
}

// Close is idempotent. After it returns no further events are
// enqueued; at most one delivery already in flight may still land.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed {
		return
	}
	c.state = StateClosed
	close(c.mailbox)
}

func (c *Connection) markJoined() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateConnecting {
		c.state = StateJoined
	}
}
