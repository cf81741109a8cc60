package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConsultationState string

const (
	ConsultationPending   ConsultationState = "PENDING"
	ConsultationAccepted  ConsultationState = "ACCEPTED"
	ConsultationDeclined  ConsultationState = "DECLINED"
	ConsultationCancelled ConsultationState = "CANCELLED"
	ConsultationExpired   ConsultationState = "EXPIRED"
	ConsultationCompleted ConsultationState = "COMPLETED"
)

// ConsultationTTL is the fixed lifetime of a pending request.
const ConsultationTTL = 5 * time.Minute

// consultationEdges is the full transition table. Pending resolves exactly
// once; Accepted only ever completes; everything else is terminal.
var consultationEdges = map[ConsultationState][]ConsultationState{
	ConsultationPending: {
		ConsultationAccepted,
		ConsultationDeclined,
		ConsultationCancelled,
		ConsultationExpired,
	},
	ConsultationAccepted: {
		ConsultationCompleted,
	},
}

// CanTransition reports whether from -> to is a legal edge.
func (from ConsultationState) CanTransition(to ConsultationState) bool {
	for _, next := range consultationEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s ConsultationState) IsTerminal() bool {
	return len(consultationEdges[s]) == 0
}

// ConsultationRequest tracks one user -> astrologer consultation from
// creation to its terminal state.
type ConsultationRequest struct {
	ID string `gorm:"primaryKey;type:text" json:"requestId"`

	UserID       string `gorm:"index;type:text;not null" json:"userId"`
	AstrologerID string `gorm:"index;type:text;not null" json:"astrologerId"`

	// Optional free-text attached by the requester.
	Message string `gorm:"type:text" json:"message"`

	State ConsultationState `gorm:"type:text;default:'PENDING';index" json:"state"`

	// Reason carries the astrologer's decline note, if any.
	Reason string `gorm:"type:text" json:"reason,omitempty"`

	RequestedAt time.Time  `json:"requestedAt"`
	ExpiresAt   time.Time  `gorm:"index" json:"expiresAt"`
	ResolvedAt  *time.Time `json:"resolvedAt,omitempty"`

	// CompletedBy records which party ended an accepted consultation.
	CompletedBy string `gorm:"type:text" json:"completedBy,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	User       User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Astrologer User `gorm:"foreignKey:AstrologerID" json:"astrologer,omitempty"`
}

func (r *ConsultationRequest) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return
}

// RemainingSeconds returns the advisory countdown the client renders:
// whole seconds until expiry, clamped at zero. Zero means "treat as
// expired" even before the server sweep lands.
func (r *ConsultationRequest) RemainingSeconds(now time.Time) int {
	remaining := r.ExpiresAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(remaining / time.Second)
}
