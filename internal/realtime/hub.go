package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
	"github.com/jyotisetu/astroconnect-backend/internal/database"
	"github.com/jyotisetu/astroconnect-backend/internal/models"
	"github.com/jyotisetu/astroconnect-backend/internal/services"
	"github.com/jyotisetu/astroconnect-backend/pkg/logger"
	"github.com/jyotisetu/astroconnect-backend/pkg/utils"
)

// typingRelayInterval throttles typing:start fan-out per sender. The client
// already debounces at 2s; the server guard keeps keystroke storms off the
// wire.
const typingRelayInterval = 2 * time.Second

// presenceRoom is the broadcast room every authenticated connection joins.
const presenceRoom = "presence"

// Notifier is the slice of the hub REST handlers need: push an event to one
// user's sessions, or fan an availability change out to everyone.
type Notifier interface {
	EmitToUser(userID, event string, payload interface{})
	BroadcastAvailability(payload AvailabilityPayload)
	DeliverMessage(msg *models.Message)
}

// session is what the hub knows about an authenticated connection.
type session struct {
	UserID string
	Role   models.Role
}

// Hub owns the socket.io server and every protocol event handler. It is
// created once at startup and injected where needed; nothing imports it as
// ambient global state.
type Hub struct {
	server        *socketio.Server
	presence      *PresenceTracker
	consultations *services.ConsultationService
	chat          *services.ChatService

	// conversation room membership, userId sets keyed by room name.
	// Room state dies with the connection; reconnects must re-join.
	roomsMu sync.RWMutex
	rooms   map[string]map[string]bool

	typingMu   sync.Mutex
	lastTyping map[string]time.Time // senderId -> last relayed typing:start
}

func NewHub(consultations *services.ConsultationService, chat *services.ChatService) *Hub {
	server := socketio.NewServer(&engineio.Options{
		Transports: []transport.Transport{
			&websocket.Transport{
				CheckOrigin: func(r *http.Request) bool { return true },
			},
			&polling.Transport{
				CheckOrigin: func(r *http.Request) bool { return true },
			},
		},
	})

	h := &Hub{
		server:        server,
		presence:      NewPresenceTracker(),
		consultations: consultations,
		chat:          chat,
		rooms:         make(map[string]map[string]bool),
		lastTyping:    make(map[string]time.Time),
	}
	h.registerHandlers()

	go server.Serve()
	return h
}

// Close shuts the underlying socket server down.
func (h *Hub) Close() error {
	return h.server.Close()
}

// Presence exposes the tracker for REST-side online checks.
func (h *Hub) Presence() *PresenceTracker {
	return h.presence
}

// EmitToUser pushes an event to every session the user has open.
func (h *Hub) EmitToUser(userID, event string, payload interface{}) {
	h.server.BroadcastToRoom("/", userID, event, payload)
}

// BroadcastAvailability fans an astrologer availability change out to all
// connected clients, including the toggling astrologer's own other tabs.
func (h *Hub) BroadcastAvailability(payload AvailabilityPayload) {
	h.server.BroadcastToRoom("/", presenceRoom, EventAvailability, payload)
}

// NotifyExpired tells both parties a pending request timed out. Wired into
// the consultation expiry sweeper.
func (h *Hub) NotifyExpired(r models.ConsultationRequest) {
	payload := ExpiredPayload{
		RequestID:    r.ID,
		AstrologerID: r.AstrologerID,
		UserID:       r.UserID,
	}
	h.EmitToUser(r.UserID, EventConsultationExpired, payload)
	h.EmitToUser(r.AstrologerID, EventConsultationExpired, payload)
}

// Handler wraps the socket server for gin.
func (h *Hub) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.server.ServeHTTP(c.Writer, c.Request)
	}
}

// conversationRoom names the logical room for an unordered user pair.
func conversationRoom(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return "chat:" + a + ":" + b
}

func (h *Hub) joinRoom(room, userID string) {
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]bool)
	}
	h.rooms[room][userID] = true
}

func (h *Hub) leaveRoom(room, userID string) {
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, userID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

func (h *Hub) leaveAllRooms(userID string) {
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()
	for room, members := range h.rooms {
		delete(members, userID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

func (h *Hub) inRoom(room, userID string) bool {
	h.roomsMu.RLock()
	defer h.roomsMu.RUnlock()
	return h.rooms[room][userID]
}

// sessionOf pulls the authenticated identity off the connection. Returns
// false for a connection that somehow got past OnConnect without auth.
func sessionOf(s socketio.Conn) (session, bool) {
	sess, ok := s.Context().(session)
	return sess, ok
}

// ackError maps service errors onto the user-facing ack error strings.
func ackError(err error) string {
	switch {
	case errors.Is(err, services.ErrConflict):
		return "request is no longer pending"
	case errors.Is(err, services.ErrForbidden):
		return "not allowed for this request"
	case errors.Is(err, services.ErrNotFound):
		return "request not found"
	case errors.Is(err, services.ErrAstrologerUnavailable):
		return "astrologer is currently unavailable"
	case errors.Is(err, services.ErrEmptyMessage):
		return "message must not be empty"
	case errors.Is(err, services.ErrInvalidInput):
		return "invalid request"
	default:
		return "something went wrong, please try again"
	}
}

func (h *Hub) registerHandlers() {
	h.server.OnConnect("/", h.onConnect)
	h.server.OnDisconnect("/", h.onDisconnect)

	h.server.OnEvent("/", EventConsultationRequest, h.onConsultationRequest)
	h.server.OnEvent("/", EventConsultationAccept, h.onConsultationAccept)
	h.server.OnEvent("/", EventConsultationDecline, h.onConsultationDecline)
	h.server.OnEvent("/", EventConsultationCancel, h.onConsultationCancel)
	h.server.OnEvent("/", EventConsultationComplete, h.onConsultationComplete)

	h.server.OnEvent("/", EventConversationJoin, h.onConversationJoin)
	h.server.OnEvent("/", EventConversationLeave, h.onConversationLeave)
	h.server.OnEvent("/", EventMessageSend, h.onMessageSend)
	h.server.OnEvent("/", EventMessageRead, h.onMessageRead)
	h.server.OnEvent("/", EventTypingStart, h.onTypingStart)
	h.server.OnEvent("/", EventTypingStop, h.onTypingStop)

	h.server.OnError("/", func(s socketio.Conn, e error) {
		logger.Error().Err(e).Msg("socket error")
	})
}

func (h *Hub) onConnect(s socketio.Conn) error {
	url := s.URL()

	token := url.Query().Get("token")
	if token == "" {
		token = url.Query().Get("auth_token") // Fallback
	}
	if token == "" {
		logger.Warn().Str("socket_id", s.ID()).Msg("socket connection rejected: no token")
		return fmt.Errorf("authentication required")
	}

	claims, err := utils.ValidateToken(token)
	if err != nil {
		logger.Warn().Str("socket_id", s.ID()).Msg("socket connection rejected: invalid token")
		return fmt.Errorf("invalid token")
	}

	sess := session{UserID: claims.UserID, Role: models.Role(claims.Role)}
	s.SetContext(sess)

	h.presence.Add(sess.UserID, s.ID())
	database.PresenceAdd(sess.UserID)

	// Personal room for targeted events, plus the global presence room.
	s.Join(sess.UserID)
	s.Join(presenceRoom)

	// Snapshot first, then the incremental broadcast: a reconnecting
	// client replaces its presence set wholesale before any deltas land.
	s.Emit(EventUsersActive, ActiveUsersPayload{ActiveUsers: h.presence.Snapshot()})
	h.server.BroadcastToRoom("/", presenceRoom, EventUserOnline, PresencePayload{
		UserID: sess.UserID,
		Role:   string(sess.Role),
	})

	logger.Info().Str("socket_id", s.ID()).Str("user_id", sess.UserID).Str("role", string(sess.Role)).Msg("socket connected")
	return nil
}

func (h *Hub) onDisconnect(s socketio.Conn, reason string) {
	logger.Info().Str("socket_id", s.ID()).Str("reason", reason).Msg("socket disconnected")

	userID, gone := h.presence.Remove(s.ID())
	if !gone {
		return
	}

	database.PresenceRemove(userID)
	h.leaveAllRooms(userID)

	h.typingMu.Lock()
	delete(h.lastTyping, userID)
	h.typingMu.Unlock()

	h.server.BroadcastToRoom("/", presenceRoom, EventUserOffline, PresencePayload{UserID: userID})
}

// --- consultation lifecycle ---

func (h *Hub) onConsultationRequest(s socketio.Conn, data map[string]interface{}) RequestAck {
	sess, ok := sessionOf(s)
	if !ok {
		return RequestAck{Ack: errAck("not authenticated")}
	}
	astrologerID, ok := stringField(data, "astrologerId")
	if !ok {
		logger.Warn().Str("user_id", sess.UserID).Msg("consultation:request missing astrologerId")
		return RequestAck{Ack: errAck("astrologerId is required")}
	}
	message := optionalStringField(data, "message")

	request, err := h.consultations.Create(context.Background(), sess.UserID, astrologerID, message)
	if err != nil {
		if errors.Is(err, services.ErrConflict) {
			return RequestAck{Ack: errAck("you already have a pending request with this astrologer")}
		}
		logger.Error().Err(err).Str("user_id", sess.UserID).Msg("consultation request failed")
		return RequestAck{Ack: errAck(ackError(err))}
	}

	h.EmitToUser(request.AstrologerID, EventConsultationIncoming, IncomingConsultationPayload{
		RequestID:   request.ID,
		User:        request.User.Public(),
		Message:     request.Message,
		RequestedAt: request.RequestedAt.Format(time.RFC3339),
		ExpiresAt:   request.ExpiresAt.Format(time.RFC3339),
	})

	return RequestAck{Ack: okAck(), RequestID: request.ID}
}

func (h *Hub) onConsultationAccept(s socketio.Conn, data map[string]interface{}) AcceptAck {
	sess, ok := sessionOf(s)
	if !ok {
		return AcceptAck{Ack: errAck("not authenticated")}
	}
	requestID, ok := stringField(data, "requestId")
	if !ok {
		return AcceptAck{Ack: errAck("requestId is required")}
	}

	request, err := h.consultations.Accept(context.Background(), requestID, sess.UserID)
	if err != nil {
		return AcceptAck{Ack: errAck(ackError(err))}
	}

	h.EmitToUser(request.UserID, EventConsultationAccepted, AcceptedPayload{
		AstrologerID:   request.AstrologerID,
		AstrologerName: request.Astrologer.Name,
		RequestID:      request.ID,
	})

	user := request.User.Public()
	return AcceptAck{Ack: okAck(), User: &user}
}

func (h *Hub) onConsultationDecline(s socketio.Conn, data map[string]interface{}) Ack {
	sess, ok := sessionOf(s)
	if !ok {
		return errAck("not authenticated")
	}
	requestID, ok := stringField(data, "requestId")
	if !ok {
		return errAck("requestId is required")
	}
	reason := optionalStringField(data, "reason")

	request, err := h.consultations.Decline(context.Background(), requestID, sess.UserID, reason)
	if err != nil {
		return errAck(ackError(err))
	}

	message := request.Reason
	if message == "" {
		message = "Astrologer is currently unavailable"
	}
	h.EmitToUser(request.UserID, EventConsultationDeclined, DeclinedPayload{
		AstrologerID: request.AstrologerID,
		Message:      message,
	})

	return okAck()
}

func (h *Hub) onConsultationCancel(s socketio.Conn, data map[string]interface{}) Ack {
	sess, ok := sessionOf(s)
	if !ok {
		return errAck("not authenticated")
	}
	requestID, ok := stringField(data, "requestId")
	if !ok {
		return errAck("requestId is required")
	}

	request, err := h.consultations.Cancel(context.Background(), requestID, sess.UserID)
	if err != nil {
		return errAck(ackError(err))
	}

	h.EmitToUser(request.AstrologerID, EventConsultationCancelled, CancelledPayload{
		RequestID: request.ID,
		UserName:  request.User.Name,
		UserID:    request.UserID,
	})

	return okAck()
}

func (h *Hub) onConsultationComplete(s socketio.Conn, data map[string]interface{}) Ack {
	sess, ok := sessionOf(s)
	if !ok {
		return errAck("not authenticated")
	}
	requestID, ok := stringField(data, "requestId")
	if !ok {
		return errAck("requestId is required")
	}

	request, err := h.consultations.Complete(context.Background(), requestID, sess.UserID)
	if err != nil {
		return errAck(ackError(err))
	}

	completedBy := request.User.Name
	if request.CompletedBy == request.AstrologerID {
		completedBy = request.Astrologer.Name
	}
	payload := CompletedPayload{
		AstrologerID:    request.AstrologerID,
		UserID:          request.UserID,
		RequestID:       request.ID,
		CompletedByName: completedBy,
		Message:         fmt.Sprintf("%s ended the consultation", completedBy),
	}
	h.EmitToUser(request.UserID, EventConsultationCompleted, payload)
	h.EmitToUser(request.AstrologerID, EventConsultationCompleted, payload)

	return okAck()
}

// --- conversation channel ---

func (h *Hub) onConversationJoin(s socketio.Conn, data map[string]interface{}) Ack {
	sess, ok := sessionOf(s)
	if !ok {
		return errAck("not authenticated")
	}
	peerID, ok := stringField(data, "userId")
	if !ok {
		return errAck("userId is required")
	}

	room := conversationRoom(sess.UserID, peerID)
	s.Join(room)
	h.joinRoom(room, sess.UserID)
	return okAck()
}

func (h *Hub) onConversationLeave(s socketio.Conn, data map[string]interface{}) {
	sess, ok := sessionOf(s)
	if !ok {
		return
	}
	peerID, ok := stringField(data, "userId")
	if !ok {
		return
	}

	room := conversationRoom(sess.UserID, peerID)
	s.Leave(room)
	h.leaveRoom(room, sess.UserID)
}

func (h *Hub) onMessageSend(s socketio.Conn, data map[string]interface{}) SendAck {
	sess, ok := sessionOf(s)
	if !ok {
		return SendAck{Ack: errAck("not authenticated")}
	}
	receiverID, ok := stringField(data, "receiverId")
	if !ok {
		return SendAck{Ack: errAck("receiverId is required")}
	}
	content := optionalStringField(data, "message")

	// Per-sender message budget, shared with the REST send path's limiter
	// intent: 30 messages a minute.
	if allowed, err := database.CheckRateLimit("chat:"+sess.UserID, 30, time.Minute); err == nil && !allowed {
		return SendAck{Ack: errAck("too many messages, slow down")}
	}

	msg, err := h.chat.Send(context.Background(), sess.UserID, receiverID, content)
	if err != nil {
		return SendAck{Ack: errAck(ackError(err))}
	}

	h.DeliverMessage(msg)
	return SendAck{Ack: okAck(), Data: msg}
}

// DeliverMessage fans a persisted message out: once into the conversation
// room for parties actively viewing the thread, and via personal rooms for
// parties who have not joined it (conversation list updates, other tabs).
func (h *Hub) DeliverMessage(msg *models.Message) {
	payload := MessagePayload{Message: msg}
	room := conversationRoom(msg.SenderID, msg.ReceiverID)

	h.server.BroadcastToRoom("/", room, EventMessageReceive, payload)
	if !h.inRoom(room, msg.ReceiverID) {
		h.EmitToUser(msg.ReceiverID, EventMessageReceive, payload)
	}
	if !h.inRoom(room, msg.SenderID) {
		h.EmitToUser(msg.SenderID, EventMessageReceive, payload)
	}
}

func (h *Hub) onMessageRead(s socketio.Conn, data map[string]interface{}) Ack {
	sess, ok := sessionOf(s)
	if !ok {
		return errAck("not authenticated")
	}
	senderID, ok := stringField(data, "senderId")
	if !ok {
		return errAck("senderId is required")
	}

	marked, readAt, err := h.chat.MarkRead(context.Background(), senderID, sess.UserID)
	if err != nil {
		logger.Error().Err(err).Str("reader_id", sess.UserID).Msg("mark read failed")
		return errAck(ackError(err))
	}

	if marked > 0 {
		h.EmitToUser(senderID, EventMessageReadReceipt, ReadReceiptPayload{
			UserID: sess.UserID,
			ReadAt: readAt.Format(time.RFC3339),
		})
	}
	return okAck()
}

func (h *Hub) onTypingStart(s socketio.Conn, data map[string]interface{}) {
	sess, ok := sessionOf(s)
	if !ok {
		return
	}
	receiverID, ok := stringField(data, "receiverId")
	if !ok {
		return
	}

	h.typingMu.Lock()
	last, seen := h.lastTyping[sess.UserID]
	if seen && time.Since(last) < typingRelayInterval {
		h.typingMu.Unlock()
		return
	}
	h.lastTyping[sess.UserID] = time.Now()
	h.typingMu.Unlock()

	h.EmitToUser(receiverID, EventTypingUser, TypingPayload{UserID: sess.UserID})
}

func (h *Hub) onTypingStop(s socketio.Conn, data map[string]interface{}) {
	sess, ok := sessionOf(s)
	if !ok {
		return
	}
	receiverID, ok := stringField(data, "receiverId")
	if !ok {
		return
	}

	h.typingMu.Lock()
	delete(h.lastTyping, sess.UserID)
	h.typingMu.Unlock()

	h.EmitToUser(receiverID, EventTypingStop, TypingPayload{UserID: sess.UserID})
}
