package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jyotisetu/astroconnect-backend/internal/realtime"
	"github.com/jyotisetu/astroconnect-backend/internal/services"
	"github.com/jyotisetu/astroconnect-backend/pkg/logger"
)

// GetConversations lists the caller's threads with latest message and
// per-thread unread counts.
func GetConversations(c *gin.Context) {
	userId := c.MustGet("userId").(string)

	conversations, err := Chat.Conversations(c.Request.Context(), userId)
	if err != nil {
		logger.Error().Err(err).Str("user_id", userId).Msg("failed to fetch conversations")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch conversations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Conversations fetched successfully",
		"data": gin.H{
			"conversations":      conversations,
			"totalConversations": len(conversations),
		},
	})
}

// GetConversation returns paginated history with one peer, oldest first, so
// a rejoining client reconstructs exactly the live delivery order.
func GetConversation(c *gin.Context) {
	userId := c.MustGet("userId").(string)
	peerId := c.Param("userId")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	pageData, err := Chat.Conversation(c.Request.Context(), userId, peerId, page, limit)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "User not found"})
			return
		}
		logger.Error().Err(err).Str("user_id", userId).Str("peer_id", peerId).Msg("failed to fetch conversation")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch conversation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Conversation fetched successfully",
		"data":    pageData,
	})
}

// SendMessage is the REST send path. It shares validation and fan-out with
// the socket path so the two can never drift.
func SendMessage(c *gin.Context) {
	senderId := c.MustGet("userId").(string)
	receiverId := c.Param("receiverId")

	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request"})
		return
	}

	msg, err := Chat.Send(c.Request.Context(), senderId, receiverId, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyMessage):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Message must not be empty"})
		case errors.Is(err, services.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid message"})
		case errors.Is(err, services.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Receiver not found"})
		default:
			logger.Error().Err(err).Str("sender_id", senderId).Msg("failed to send message")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to send message"})
		}
		return
	}

	if Realtime != nil {
		Realtime.DeliverMessage(msg)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": msg})
}

// MarkRead marks all unread messages from a sender as read and pushes a
// read receipt back to them.
func MarkRead(c *gin.Context) {
	userId := c.MustGet("userId").(string)
	senderId := c.Param("senderId")

	marked, readAt, err := Chat.MarkRead(c.Request.Context(), senderId, userId)
	if err != nil {
		logger.Error().Err(err).Str("user_id", userId).Msg("failed to mark read")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to mark read"})
		return
	}

	if marked > 0 && Realtime != nil {
		Realtime.EmitToUser(senderId, realtime.EventMessageReadReceipt, realtime.ReadReceiptPayload{
			UserID: userId,
			ReadAt: readAt.UTC().Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": strconv.FormatInt(marked, 10) + " message(s) marked as read",
		"data":    gin.H{"messagesMarked": marked},
	})
}

// GetUnreadCount returns the total unread count across conversations.
func GetUnreadCount(c *gin.Context) {
	userId := c.MustGet("userId").(string)

	unread, err := Chat.TotalUnread(c.Request.Context(), userId)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch unread count"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"unreadCount": unread}})
}
