package realtime

import (
	"errors"
	"testing"
	"time"

	"github.com/jyotisetu/astroconnect-backend/internal/services"
	"github.com/stretchr/testify/assert"
)

func newBareHub() *Hub {
	return &Hub{
		presence:   NewPresenceTracker(),
		rooms:      make(map[string]map[string]bool),
		lastTyping: make(map[string]time.Time),
	}
}

func TestConversationRoom_OrderIndependent(t *testing.T) {
	assert.Equal(t, conversationRoom("alice", "bob"), conversationRoom("bob", "alice"))
	assert.Equal(t, "chat:alice:bob", conversationRoom("bob", "alice"))
}

func TestRoomMembership(t *testing.T) {
	h := newBareHub()
	room := conversationRoom("alice", "bob")

	assert.False(t, h.inRoom(room, "alice"))

	h.joinRoom(room, "alice")
	h.joinRoom(room, "bob")
	assert.True(t, h.inRoom(room, "alice"))
	assert.True(t, h.inRoom(room, "bob"))

	h.leaveRoom(room, "alice")
	assert.False(t, h.inRoom(room, "alice"))
	assert.True(t, h.inRoom(room, "bob"))

	// Disconnect sweeps the user out of every room at once.
	other := conversationRoom("bob", "carol")
	h.joinRoom(other, "bob")
	h.leaveAllRooms("bob")
	assert.False(t, h.inRoom(room, "bob"))
	assert.False(t, h.inRoom(other, "bob"))

	// Empty rooms are garbage collected.
	assert.Empty(t, h.rooms)
}

func TestAckError_Mapping(t *testing.T) {
	assert.Equal(t, "request is no longer pending", ackError(services.ErrConflict))
	assert.Equal(t, "not allowed for this request", ackError(services.ErrForbidden))
	assert.Equal(t, "request not found", ackError(services.ErrNotFound))
	assert.Equal(t, "astrologer is currently unavailable", ackError(services.ErrAstrologerUnavailable))
	assert.Equal(t, "message must not be empty", ackError(services.ErrEmptyMessage))
	assert.Equal(t, "invalid request", ackError(services.ErrInvalidInput))
	// Internal errors never leak their text to the client.
	assert.Equal(t, "something went wrong, please try again", ackError(errors.New("pq: connection refused")))
}

func TestStringField(t *testing.T) {
	data := map[string]interface{}{
		"astrologerId": "astro1",
		"count":        42,
		"empty":        "",
	}

	v, ok := stringField(data, "astrologerId")
	assert.True(t, ok)
	assert.Equal(t, "astro1", v)

	// Missing, non-string, and empty all read as absent.
	_, ok = stringField(data, "missing")
	assert.False(t, ok)
	_, ok = stringField(data, "count")
	assert.False(t, ok)
	_, ok = stringField(data, "empty")
	assert.False(t, ok)

	// Fallback key order.
	v, ok = stringField(data, "missing", "astrologerId")
	assert.True(t, ok)
	assert.Equal(t, "astro1", v)
}

func TestOptionalStringField(t *testing.T) {
	data := map[string]interface{}{
		"reason": "",
		"note":   "busy",
	}

	assert.Equal(t, "", optionalStringField(data, "reason"))
	assert.Equal(t, "busy", optionalStringField(data, "note"))
	assert.Equal(t, "", optionalStringField(data, "missing"))
}
