package chat

import (
	"encoding/json"
	"time"

	"roomchat/internal/models"
)

type EventType string

const (
	EventMessage EventType = "message"
	EventTyping  EventType = "typing"
	EventJoin    EventType = "join"
	EventLeave   EventType = "leave"
	EventError   EventType = "error"
)

// Event is the tagged union fanned out to room subscribers. Events are
// immutable once constructed and copied by value into each mailbox.
type Event struct {
	Type      EventType `json:"type"`
	MessageID int       `json:"message_id,omitempty"`
	Username  string    `json:"username,omitempty"`
	Content   string    `json:"content,omitempty"`
	Timestamp string    `json:"timestamp,omitempty"`
	IsTyping  bool      `json:"is_typing,omitempty"`
}

// MarshalJSON keeps is_typing on the wire for typing events even when
// it is false; a stop-typing signal without the field would be
// indistinguishable from the other variants' omission.
func (e Event) MarshalJSON() ([]byte, error) {
	type eventAlias Event
	if e.Type == EventTyping {
		return json.Marshal(struct {
			eventAlias
			IsTyping bool `json:"is_typing"`
		}{eventAlias(e), e.IsTyping})
	}
	return json.Marshal(eventAlias(e))
}

func NewMessageEvent(msg *models.Message) Event {
	return Event{
		Type:      EventMessage,
		MessageID: msg.ID,
		Username:  msg.Username,
		Content:   msg.Content,
		Timestamp: msg.CreatedAt.Format(time.RFC3339),
	}
}

func NewTypingEvent(username string, isTyping bool) Event {
	return Event{
		Type:     EventTyping,
		Username: username,
		IsTyping: isTyping,
	}
}

func NewJoinEvent(username string) Event {
	return Event{
		Type:      EventJoin,
		Username:  username,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func NewLeaveEvent(username string) Event {
	return Event{
		Type:      EventLeave,
		Username:  username,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func newErrorEvent(message string) Event {
	return Event{
		Type:      EventError,
		Content:   message,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}
