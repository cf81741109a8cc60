package models

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleUser       Role = "user"
	RoleAstrologer Role = "astrologer"
	RoleAdmin      Role = "admin"
)

// User is shared by all three roles. Astrologer-specific profile fields are
// nullable and only populated for Role == astrologer.
type User struct {
	ID        string         `gorm:"primaryKey;type:text" json:"_id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name     string `json:"name"`
	Email    string `gorm:"uniqueIndex" json:"email"`
	Password string `json:"-"`

	Role Role `gorm:"type:text;default:'user';index" json:"role"`

	// Availability toggle; only meaningful for astrologers. Gates new
	// consultation requests, never running ones.
	IsAvailable bool `gorm:"default:false" json:"isAvailable"`

	// Astrologer profile
	Experience     string  `json:"experience,omitempty"`
	Specialization string  `gorm:"type:text" json:"specialization,omitempty"`
	Languages      string  `gorm:"type:text" json:"languages,omitempty"`
	PricePerMin    int     `json:"pricePerMin,omitempty"`
	Rating         float64 `json:"rating,omitempty"`
	Consultations  int     `json:"consultations,omitempty"`
}

// PublicUser is the identity shape carried in socket payloads and message
// envelopes: just enough to render a party in the chat UI.
type PublicUser struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}
