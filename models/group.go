package models

import (
	"time"

	"gorm.io/gorm"
)

// Group is an accountability group. The creator is the group's admin.
type Group struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	CreatedBy string         `gorm:"not null;index" json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// GroupMember links a user to a group. The unique index on UserID enforces
// at-most-one group per user; InviteCode records how the member joined and
// is nil for the creator.
type GroupMember struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	GroupID    uint      `gorm:"not null;index" json:"group_id"`
	UserID     string    `gorm:"not null;uniqueIndex" json:"user_id"`
	InviteCode *string   `json:"invite_code,omitempty"`
	JoinedAt   time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

// Invite is a time-boxed join code for a group. Codes are multi-use until
// expiry; generating a new code supersedes older ones only in the sense that
// lookups prefer the newest, old codes stay redeemable until they expire.
type Invite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"uniqueIndex;not null" json:"code"`
	GroupID   uint      `gorm:"not null;index" json:"group_id"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// GroupInput is used for creating groups
type GroupInput struct {
	Name string `json:"name"`
}

// JoinInput is used for redeeming an invite code
type JoinInput struct {
	InviteCode string `json:"invite_code"`
}

// InviteResponse is returned when a code is generated
type InviteResponse struct {
	InviteCode string    `json:"invite_code"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// MembershipResponse answers "is this user in a group, and which one"
type MembershipResponse struct {
	InGroup bool   `json:"in_group"`
	Group   *Group `json:"group,omitempty"`
}
