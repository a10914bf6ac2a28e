package models

import (
	"time"
)

type ActivityAction string

const (
	ActivityActionLogin         ActivityAction = "login"
	ActivityActionLogout        ActivityAction = "logout"
	ActivityActionProfileCreate ActivityAction = "profile_create"
	ActivityActionGroupCreate   ActivityAction = "group_create"
	ActivityActionGroupJoin     ActivityAction = "group_join"
	ActivityActionInviteCreate  ActivityAction = "invite_create"
	ActivityActionHabitAdd      ActivityAction = "habit_add"
	ActivityActionHabitComplete ActivityAction = "habit_complete"
	ActivityActionHabitDelete   ActivityAction = "habit_delete"
)

// ActivityLog is the accountability feed: one row per notable action a
// member took. GroupID is zero for pre-group actions (login, profile).
type ActivityLog struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	GroupID     uint           `gorm:"index" json:"group_id"`
	UserID      string         `gorm:"index" json:"user_id"`
	DisplayName string         `json:"display_name"`
	Action      ActivityAction `gorm:"index" json:"action"`
	Details     string         `json:"details,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

// ActivityLogResponse is the response format for activity entries
type ActivityLogResponse struct {
	ID          uint           `json:"id"`
	GroupID     uint           `json:"group_id"`
	UserID      string         `json:"user_id"`
	DisplayName string         `json:"display_name"`
	Action      ActivityAction `json:"action"`
	Details     string         `json:"details,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (a *ActivityLog) ToResponse() ActivityLogResponse {
	return ActivityLogResponse{
		ID:          a.ID,
		GroupID:     a.GroupID,
		UserID:      a.UserID,
		DisplayName: a.DisplayName,
		Action:      a.Action,
		Details:     a.Details,
		CreatedAt:   a.CreatedAt,
	}
}
