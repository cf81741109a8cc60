package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is a single chat message between two users. Ordering within a
// conversation is insertion order (created_at); the server never reorders.
type Message struct {
	ID string `gorm:"primaryKey;type:text" json:"_id"`

	SenderID   string `gorm:"index;type:text;not null" json:"-"`
	ReceiverID string `gorm:"index;type:text;not null" json:"-"`
	Content    string `gorm:"type:text;not null" json:"message"`

	// Read tracking. IsRead is monotonic: once true it never reverts.
	IsRead bool       `gorm:"default:false" json:"isRead"`
	ReadAt *time.Time `json:"readAt"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Sender   User `gorm:"foreignKey:SenderID" json:"sender"`
	Receiver User `gorm:"foreignKey:ReceiverID" json:"receiver"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return
}
