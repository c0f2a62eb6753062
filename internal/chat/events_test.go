package chat

import (
	"encoding/json"
	"testing"
	"time"

	"roomchat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The serialized field names are the wire contract with clients.
func TestMessageEventWireFormat(t *testing.T) {
	msg := &models.Message{
		ID:        42,
		Username:  "alice",
		Content:   "hello",
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(NewMessageEvent(msg))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "message", decoded["type"])
	assert.Equal(t, float64(42), decoded["message_id"])
	assert.Equal(t, "alice", decoded["username"])
	assert.Equal(t, "hello", decoded["content"])
	assert.Equal(t, "2025-06-01T12:00:00Z", decoded["timestamp"])
	assert.NotContains(t, decoded, "is_typing")
}

func TestTypingEventWireFormat(t *testing.T) {
	data, err := json.Marshal(NewTypingEvent("alice", true))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "typing", decoded["type"])
	assert.Equal(t, "alice", decoded["username"])
	assert.Equal(t, true, decoded["is_typing"])
	assert.NotContains(t, decoded, "message_id")
	assert.NotContains(t, decoded, "content")
}

// A stop-typing event must still carry is_typing explicitly; the field
// is part of the wire contract and false is its signal value.
func TestStopTypingEventKeepsIsTypingField(t *testing.T) {
	data, err := json.Marshal(NewTypingEvent("alice", false))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Contains(t, decoded, "is_typing")
	assert.Equal(t, false, decoded["is_typing"])
	assert.Equal(t, "typing", decoded["type"])
}

func TestJoinAndLeaveEventWireFormat(t *testing.T) {
	for eventType, ev := range map[string]Event{
		"join":  NewJoinEvent("alice"),
		"leave": NewLeaveEvent("alice"),
	} {
		data, err := json.Marshal(ev)
		require.NoError(t, err)

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, eventType, decoded["type"])
		assert.Equal(t, "alice", decoded["username"])
		assert.Contains(t, decoded, "timestamp")
		assert.NotContains(t, decoded, "is_typing")
	}
}
