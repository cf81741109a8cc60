package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jyotisetu/astroconnect-backend/internal/database"
	"github.com/jyotisetu/astroconnect-backend/internal/models"
	"github.com/jyotisetu/astroconnect-backend/internal/realtime"
	"github.com/stretchr/testify/assert"
)

func TestSendMessage_DeliversViaNotifier(t *testing.T) {
	notifier := SetupTestDB(t)

	database.DB.Create(&models.User{ID: "alice", Name: "Alice", Email: "alice@example.com", Role: models.RoleUser})
	database.DB.Create(&models.User{ID: "bob", Name: "Bob", Email: "bob@example.com", Role: models.RoleAstrologer})

	body, _ := json.Marshal(map[string]string{"message": "Namaste"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("POST", "/api/chat/bob", bytes.NewBuffer(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "receiverId", Value: "bob"}}
	c.Set("userId", "alice")

	SendMessage(c)

	assert.Equal(t, http.StatusOK, w.Code)

	// REST sends go through the same socket fan-out as live sends.
	assert.Len(t, notifier.delivered, 1)
	assert.Equal(t, "alice", notifier.delivered[0].SenderID)
	assert.Equal(t, "bob", notifier.delivered[0].ReceiverID)
	assert.Equal(t, "Namaste", notifier.delivered[0].Content)
}

func TestSendMessage_EmptyRejected(t *testing.T) {
	notifier := SetupTestDB(t)

	database.DB.Create(&models.User{ID: "alice", Email: "alice@example.com", Role: models.RoleUser})
	database.DB.Create(&models.User{ID: "bob", Email: "bob@example.com", Role: models.RoleUser})

	body, _ := json.Marshal(map[string]string{"message": "   "})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("POST", "/api/chat/bob", bytes.NewBuffer(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "receiverId", Value: "bob"}}
	c.Set("userId", "alice")

	SendMessage(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, notifier.delivered)
}

func TestMarkRead_EmitsReadReceipt(t *testing.T) {
	notifier := SetupTestDB(t)

	database.DB.Create(&models.User{ID: "alice", Email: "alice@example.com", Role: models.RoleUser})
	database.DB.Create(&models.User{ID: "bob", Email: "bob@example.com", Role: models.RoleUser})
	database.DB.Create(&models.Message{ID: "m1", SenderID: "bob", ReceiverID: "alice", Content: "hi", CreatedAt: time.Now()})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("PUT", "/api/chat/read/bob", nil)
	c.Params = gin.Params{{Key: "senderId", Value: "bob"}}
	c.Set("userId", "alice")

	MarkRead(c)

	assert.Equal(t, http.StatusOK, w.Code)

	// Receipt goes to the original sender, carrying the reader's id.
	assert.Len(t, notifier.emits, 1)
	assert.Equal(t, "bob", notifier.emits[0].UserID)
	assert.Equal(t, realtime.EventMessageReadReceipt, notifier.emits[0].Event)
	receipt := notifier.emits[0].Payload.(realtime.ReadReceiptPayload)
	assert.Equal(t, "alice", receipt.UserID)
	assert.NotEmpty(t, receipt.ReadAt)
}

func TestMarkRead_NothingUnread_NoReceipt(t *testing.T) {
	notifier := SetupTestDB(t)

	database.DB.Create(&models.User{ID: "alice", Email: "alice@example.com", Role: models.RoleUser})
	database.DB.Create(&models.User{ID: "bob", Email: "bob@example.com", Role: models.RoleUser})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("PUT", "/api/chat/read/bob", nil)
	c.Params = gin.Params{{Key: "senderId", Value: "bob"}}
	c.Set("userId", "alice")

	MarkRead(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, notifier.emits)
}

func TestGetConversation(t *testing.T) {
	SetupTestDB(t)

	database.DB.Create(&models.User{ID: "alice", Name: "Alice", Email: "alice@example.com", Role: models.RoleUser})
	database.DB.Create(&models.User{ID: "bob", Name: "Bob", Email: "bob@example.com", Role: models.RoleUser})

	base := time.Now().Add(-time.Hour)
	database.DB.Create(&models.Message{ID: "m1", SenderID: "alice", ReceiverID: "bob", Content: "first", CreatedAt: base})
	database.DB.Create(&models.Message{ID: "m2", SenderID: "bob", ReceiverID: "alice", Content: "second", CreatedAt: base.Add(time.Minute)})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/api/chat/conversation/bob", nil)
	c.Params = gin.Params{{Key: "userId", Value: "bob"}}
	c.Set("userId", "alice")

	GetConversation(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data struct {
			Messages []models.Message `json:"messages"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)

	assert.Len(t, response.Data.Messages, 2)
	assert.Equal(t, "first", response.Data.Messages[0].Content)
	assert.Equal(t, "second", response.Data.Messages[1].Content)
}

func TestGetUnreadCount(t *testing.T) {
	SetupTestDB(t)

	database.DB.Create(&models.User{ID: "alice", Email: "alice@example.com", Role: models.RoleUser})
	database.DB.Create(&models.User{ID: "bob", Email: "bob@example.com", Role: models.RoleUser})
	database.DB.Create(&models.Message{ID: "m1", SenderID: "bob", ReceiverID: "alice", Content: "hi", CreatedAt: time.Now()})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/api/chat/unread", nil)
	c.Set("userId", "alice")

	GetUnreadCount(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"unreadCount":1`)
}
