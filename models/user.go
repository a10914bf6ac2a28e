package models

import (
	"time"

	"gorm.io/gorm"
)

// Profile is the per-user record created after the first successful phone
// verification. UserID is the opaque identity assigned at verification time
// and is what every other table references.
type Profile struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      string         `gorm:"uniqueIndex;not null" json:"user_id"`
	Phone       string         `gorm:"uniqueIndex;not null" json:"-"`
	DisplayName *string        `json:"display_name"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// ProfileResponse is the safe response format for profiles
type ProfileResponse struct {
	ID          uint      `json:"id"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

func (p *Profile) ToResponse() ProfileResponse {
	name := ""
	if p.DisplayName != nil {
		name = *p.DisplayName
	}
	return ProfileResponse{
		ID:          p.ID,
		UserID:      p.UserID,
		DisplayName: name,
		CreatedAt:   p.CreatedAt,
	}
}

// PhoneChallenge is a pending SMS one-time-passcode. Only the bcrypt hash of
// the code is stored. A new challenge for the same phone supersedes older
// ones; rows are deleted on successful verification.
type PhoneChallenge struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Phone     string    `gorm:"index;not null" json:"phone"`
	CodeHash  string    `gorm:"not null" json:"-"`
	Attempts  int       `gorm:"default:0" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// ProfileInput is used for creating/updating the caller's profile
type ProfileInput struct {
	DisplayName string `json:"display_name"`
}
