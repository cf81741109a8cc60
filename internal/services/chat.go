package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jyotisetu/astroconnect-backend/internal/models"
	"github.com/jyotisetu/astroconnect-backend/pkg/utils"
	"gorm.io/gorm"
)

var ErrEmptyMessage = errors.New("message must not be empty")

// ConversationPage is one page of history for a (viewer, peer) pair.
type ConversationPage struct {
	Messages    []models.Message  `json:"messages"`
	User        models.PublicUser `json:"user"`
	Pagination  Pagination        `json:"pagination"`
	UnreadCount int64             `json:"unreadCount"`
}

type Pagination struct {
	CurrentPage     int   `json:"currentPage"`
	TotalPages      int   `json:"totalPages"`
	TotalMessages   int64 `json:"totalMessages"`
	MessagesPerPage int   `json:"messagesPerPage"`
}

// ConversationSummary is one row of the conversation list: the peer, the
// latest message, and how many of their messages the viewer has not read.
type ConversationSummary struct {
	User          models.PublicUser `json:"user"`
	LastMessage   string            `json:"lastMessage"`
	LastMessageAt time.Time         `json:"lastMessageTime"`
	UnreadCount   int64             `json:"unreadCount"`
	IsSentByUser  bool              `json:"isSentByUser"`
}

// ChatService owns message persistence. Both the socket hub and the REST
// handlers go through it so validation and ordering rules exist once.
type ChatService struct {
	db *gorm.DB
}

func NewChatService(db *gorm.DB) *ChatService {
	return &ChatService{db: db}
}

// Send validates and persists one message. Whitespace-only content is
// rejected before any write.
func (s *ChatService) Send(ctx context.Context, senderID, receiverID, content string) (*models.Message, error) {
	if senderID == "" || receiverID == "" {
		return nil, ErrInvalidInput
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}
	content, err := utils.SanitizeMessageContent(content)
	if err != nil {
		return nil, ErrInvalidInput
	}

	var receiver models.User
	if err := s.db.WithContext(ctx).Select("id").First(&receiver, "id = ?", receiverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	msg := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Preload("Sender").Preload("Receiver").
		First(msg, "id = ?", msg.ID).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

// MarkRead flips every unread message from senderID to readerID. IsRead is
// monotonic; already-read rows are untouched, so read_at never moves.
func (s *ChatService) MarkRead(ctx context.Context, senderID, readerID string) (int64, time.Time, error) {
	now := time.Now()
	result := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", senderID, readerID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": now,
		})
	return result.RowsAffected, now, result.Error
}

// Conversation returns one page of history between viewer and peer in
// ascending send order, matching live delivery order on rejoin.
func (s *ChatService) Conversation(ctx context.Context, viewerID, peerID string, page, limit int) (*ConversationPage, error) {
	if viewerID == "" || peerID == "" {
		return nil, ErrInvalidInput
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	var peer models.User
	if err := s.db.WithContext(ctx).First(&peer, "id = ?", peerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	pairFilter := s.db.Where(
		"(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
		viewerID, peerID, peerID, viewerID,
	)

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Message{}).
		Where(pairFilter).Count(&total).Error; err != nil {
		return nil, err
	}

	var messages []models.Message
	err := s.db.WithContext(ctx).
		Where(pairFilter).
		Order("created_at asc").
		Offset((page - 1) * limit).
		Limit(limit).
		Preload("Sender").Preload("Receiver").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	var unread int64
	if err := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", peerID, viewerID, false).
		Count(&unread).Error; err != nil {
		return nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ConversationPage{
		Messages: messages,
		User:     peer.Public(),
		Pagination: Pagination{
			CurrentPage:     page,
			TotalPages:      totalPages,
			TotalMessages:   total,
			MessagesPerPage: limit,
		},
		UnreadCount: unread,
	}, nil
}

// Conversations lists the viewer's active threads, most recent first.
func (s *ChatService) Conversations(ctx context.Context, viewerID string) ([]ConversationSummary, error) {
	var messages []models.Message
	err := s.db.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", viewerID, viewerID).
		Order("created_at desc").
		Preload("Sender").Preload("Receiver").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	summaries := make([]ConversationSummary, 0)
	for _, m := range messages {
		peer := m.Sender
		sentByViewer := m.SenderID == viewerID
		if sentByViewer {
			peer = m.Receiver
		}
		if seen[peer.ID] {
			continue
		}
		seen[peer.ID] = true

		var unread int64
		if err := s.db.WithContext(ctx).Model(&models.Message{}).
			Where("sender_id = ? AND receiver_id = ? AND is_read = ?", peer.ID, viewerID, false).
			Count(&unread).Error; err != nil {
			return nil, err
		}

		summaries = append(summaries, ConversationSummary{
			User:          peer.Public(),
			LastMessage:   m.Content,
			LastMessageAt: m.CreatedAt,
			UnreadCount:   unread,
			IsSentByUser:  sentByViewer,
		})
	}
	return summaries, nil
}

// TotalUnread counts unread messages addressed to the viewer across all
// conversations.
func (s *ChatService) TotalUnread(ctx context.Context, viewerID string) (int64, error) {
	var unread int64
	err := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("receiver_id = ? AND is_read = ?", viewerID, false).
		Count(&unread).Error
	return unread, err
}
