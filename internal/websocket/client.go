package websocket

import (
	"context"
	"encoding/json"
	"time"

	"roomchat/internal/chat"
	"roomchat/internal/database"
	"roomchat/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// Frame is the inbound wire format. Outbound traffic is the serialized
// chat.Event.
type Frame struct {
	Type     string `json:"type"`
	Room     string `json:"room,omitempty"`
	Content  string `json:"content,omitempty"`
	IsTyping bool   `json:"is_typing,omitempty"`
}

// Client bridges one websocket to its chat session: the read pump
// decodes inbound frames into session calls, the write pump drains the
// connection's mailbox back onto the wire.
type Client struct {
	ws      *websocket.Conn
	session *chat.Session
	store   database.MessageRepository
}

func NewClient(ws *websocket.Conn, session *chat.Session, store database.MessageRepository) *Client {
	return &Client{
		ws:      ws,
		session: session,
		store:   store,
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.session.Disconnect()
		c.ws.Close()
	}()

	// Read deadline and pong handler keep half-dead connections from
	// lingering in the room.
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket error: %v", err)
			}
			break
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			// Malformed frames are dropped; the connection stays open.
			logger.Debug("Dropping malformed frame from %s: %v", c.session.Connection().Username(), err)
			continue
		}

		ctx := context.Background()
		switch frame.Type {
		case "join":
			if frame.Room == "" {
				continue
			}
			if err := c.session.Join(ctx, frame.Room); err != nil {
				logger.Info("Join rejected for %s: %v", c.session.Connection().Username(), err)
				return
			}
		case "message":
			if err := c.session.Message(ctx, frame.Content); err != nil {
				return
			}
		case "typing":
			c.session.Typing(frame.IsTyping)
		default:
			logger.Debug("Dropping frame with unknown type %q", frame.Type)
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	events := c.session.Connection().Events()
	for {
		select {
		case ev, ok := <-events:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Mailbox closed: the session is gone.
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(ev)
			if err != nil {
				logger.Error("Error marshaling event: %v", err)
				continue
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Error("Write error: %v", err)
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendRecentMessages replays the room's recent history into the
// connection's mailbox so a joining client has context.
func (c *Client) SendRecentMessages(roomSlug string, limit int) {
	ctx := context.Background()
	messages, err := c.store.LoadRecentMessages(ctx, roomSlug, limit)
	if err != nil {
		logger.Error("Error loading recent messages: %v", err)
		return
	}

	for _, msg := range messages {
		if err := c.session.Connection().Send(chat.NewMessageEvent(msg)); err != nil {
			logger.Warn("History replay truncated for %s: %v", c.session.Connection().Username(), err)
			return
		}
	}
}
