package chat

import (
	"context"
	"strings"
	"sync"

	"roomchat/internal/models"
	"roomchat/pkg/logger"
)

// MessageStore is the persistence collaborator consulted before a
// message event is fanned out. The ID and timestamp it assigns are
// authoritative.
type MessageStore interface {
	CreateMessage(ctx context.Context, roomSlug string, userID int, content string) (*models.Message, error)
}

// Session is the per-connection state machine. It interprets inbound
// client events, drives the registry, presence tracker, and
// dispatcher, and owns its connection exclusively. All methods are
// safe for concurrent use; in practice the transport's read loop calls
// them sequentially with Disconnect possibly racing from elsewhere.
type Session struct {
	registry   *Registry
	presence   *Tracker
	dispatcher *Dispatcher
	store      MessageStore
	conn       *Connection

	mu    sync.Mutex
	state ConnState
	room  string
}

func NewSession(registry *Registry, presence *Tracker, dispatcher *Dispatcher, store MessageStore, conn *Connection) *Session {
	return &Session{
		registry:   registry,
		presence:   presence,
		dispatcher: dispatcher,
		store:      store,
		conn:       conn,
		state:      StateConnecting,
	}
}

func (s *Session) Connection() *Connection { return s.conn }

// Join subscribes the connection to the room. On authorization failure
// the session closes without ever reaching Joined. Joining while
// already in another room moves the connection: the previous room sees
// a leave, the new one a join.
func (s *Session) Join(ctx context.Context, roomSlug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return ErrConnectionClosed
	}
	if s.state == StateJoined && s.room == roomSlug {
		return nil
	}

	if err := s.registry.Subscribe(ctx, roomSlug, s.conn); err != nil {
		// Reject before accept: never reach Joined on a refused room.
		if s.state == StateConnecting {
			s.closeLocked()
		}
		return err
	}

	previous := ""
	if s.state == StateJoined {
		previous = s.room
	}
	s.state = StateJoined
	s.room = roomSlug
	s.conn.markJoined()

	if previous != "" {
		s.presence.MarkOffline(previous, s.conn)
	}
	s.presence.MarkOnline(roomSlug, s.conn)
	return nil
}

// Message validates, persists, and fans out a chat message. Empty or
// whitespace-only content is dropped silently. A persistence failure
// broadcasts nothing; only the sender gets an error acknowledgment.
func (s *Session) Message(ctx context.Context, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateJoined {
		return ErrConnectionClosed
	}
	if strings.TrimSpace(content) == "" {
		return nil
	}

	msg, err := s.store.CreateMessage(ctx, s.room, s.conn.UserID(), content)
	if err != nil {
		logger.Error("Failed to persist message from %s in room %s: %v", s.conn.Username(), s.room, err)
		if sendErr := s.conn.Send(newErrorEvent("message could not be saved")); sendErr != nil {
			logger.Warn("Dropped error ack for connection %s: %v", s.conn.ID(), sendErr)
		}
		return nil
	}
	msg.Username = s.conn.Username()

	// No exclusion: the sender sees their own message echoed back,
	// confirming persistence.
	s.dispatcher.Publish(s.room, NewMessageEvent(msg), nil)
	return nil
}

// Typing forwards a typing signal to the room, suppressed for the
// originating connection. Ignored unless joined.
func (s *Session) Typing(isTyping bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateJoined {
		return
	}
	s.presence.SetTyping(s.room, s.conn, isTyping)
}

// Disconnect tears the session down. It is idempotent: duplicate
// disconnect signals from the transport are tolerated. From Connecting
// it transitions straight to Closed.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return
	}

	if s.state == StateJoined {
		// Leave the registry first so the leave broadcast cannot
		// target this connection, then announce to the remainder.
		s.registry.Unsubscribe(s.conn)
		s.presence.MarkOffline(s.room, s.conn)
	}
	s.closeLocked()
}

func (s *Session) closeLocked() {
	s.state = StateClosed
	s.room = ""
	s.conn.Close()
}
