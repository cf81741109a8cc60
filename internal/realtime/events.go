package realtime

import (
	"github.com/jyotisetu/astroconnect-backend/internal/models"
)

// Socket event vocabulary. Every name the protocol speaks lives here so a
// missing handler is a missing constant reference, not a silent typo.
const (
	// client -> server
	EventConsultationRequest  = "consultation:request"
	EventConsultationAccept   = "consultation:accept"
	EventConsultationDecline  = "consultation:decline"
	EventConsultationCancel   = "consultation:cancel"
	EventConsultationComplete = "consultation:complete"
	EventConversationJoin     = "conversation:join"
	EventConversationLeave    = "conversation:leave"
	EventMessageSend          = "message:send"
	EventMessageRead          = "message:read"
	EventTypingStart          = "typing:start"
	EventTypingStop           = "typing:stop"

	// server -> client
	EventConsultationIncoming  = "consultation:incoming"
	EventConsultationAccepted  = "consultation:accepted"
	EventConsultationDeclined  = "consultation:declined"
	EventConsultationCancelled = "consultation:cancelled"
	EventConsultationCompleted = "consultation:completed"
	EventConsultationExpired   = "consultation:expired"
	EventMessageReceive        = "message:receive"
	EventMessageReadReceipt    = "message:read-receipt"
	EventTypingUser            = "typing:user"
	EventUserOnline            = "user:online"
	EventUserOffline           = "user:offline"
	EventUsersActive           = "users:active"
	EventAvailability          = "astrologer:availability"
)

// Ack is the envelope every request/response socket call returns. Callers
// must check Success; a missing ack counts as failure on the client side.
type Ack struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func okAck() Ack { return Ack{Success: true} }

func errAck(msg string) Ack { return Ack{Success: false, Error: msg} }

// RequestAck acknowledges consultation:request with the new request id.
type RequestAck struct {
	Ack
	RequestID string `json:"requestId,omitempty"`
}

// AcceptAck acknowledges consultation:accept with the requester's identity
// so the astrologer can open the chat immediately.
type AcceptAck struct {
	Ack
	User *models.PublicUser `json:"user,omitempty"`
}

// SendAck acknowledges message:send with the persisted message.
type SendAck struct {
	Ack
	Data *models.Message `json:"data,omitempty"`
}

// Outbound payload shapes. One canonical envelope per event; receivers never
// have to guess between alternative field names.

type IncomingConsultationPayload struct {
	RequestID   string            `json:"requestId"`
	User        models.PublicUser `json:"user"`
	Message     string            `json:"message"`
	RequestedAt string            `json:"requestedAt"`
	ExpiresAt   string            `json:"expiresAt"`
}

type AcceptedPayload struct {
	AstrologerID   string `json:"astrologerId"`
	AstrologerName string `json:"astrologerName"`
	RequestID      string `json:"requestId"`
}

type DeclinedPayload struct {
	AstrologerID string `json:"astrologerId"`
	Message      string `json:"message"`
}

type CancelledPayload struct {
	RequestID string `json:"requestId"`
	UserName  string `json:"userName"`
	UserID    string `json:"userId"`
}

type CompletedPayload struct {
	AstrologerID    string `json:"astrologerId,omitempty"`
	UserID          string `json:"userId,omitempty"`
	RequestID       string `json:"requestId"`
	CompletedByName string `json:"completedByName"`
	Message         string `json:"message"`
}

type ExpiredPayload struct {
	RequestID    string `json:"requestId"`
	AstrologerID string `json:"astrologerId"`
	UserID       string `json:"userId"`
}

type MessagePayload struct {
	Message *models.Message `json:"message"`
}

type ReadReceiptPayload struct {
	UserID string `json:"userId"`
	ReadAt string `json:"readAt"`
}

type TypingPayload struct {
	UserID string `json:"userId"`
}

type PresencePayload struct {
	UserID string `json:"userId"`
	Role   string `json:"role,omitempty"`
}

type ActiveUsersPayload struct {
	ActiveUsers []string `json:"activeUsers"`
}

type AvailabilityPayload struct {
	AstrologerID string `json:"astrologerId"`
	IsAvailable  bool   `json:"isAvailable"`
	Name         string `json:"name"`
}

// stringField pulls a required string out of a loosely-typed inbound payload.
// The second return is false for a missing field or a non-string value; the
// hub logs and drops such events instead of crashing the handler.
func stringField(data map[string]interface{}, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := data[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// optionalStringField is stringField for fields that may legitimately be
// absent or empty (decline reasons, request notes).
func optionalStringField(data map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := data[key]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}
