package models

import "time"

// Habit is a daily task owned by one user within their group. Completion is
// one-way: there is no un-complete operation.
type Habit struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GroupID   uint      `gorm:"not null;index" json:"group_id"`
	UserID    string    `gorm:"not null;index" json:"user_id"`
	Name      string    `gorm:"not null" json:"name"`
	Completed bool      `gorm:"default:false" json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

// HabitCompletion records one completion of a habit, optionally with a photo
// proof. A habit may accumulate several completions; the dashboard shows the
// most recent one.
type HabitCompletion struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	HabitID     uint      `gorm:"not null;index" json:"habit_id"`
	UserID      string    `gorm:"not null" json:"user_id"`
	Date        string    `gorm:"not null" json:"date"` // YYYY-MM-DD
	ImageURL    string    `json:"image_url,omitempty"`
	CompletedAt time.Time `gorm:"autoCreateTime" json:"completed_at"`
}

// HabitInput is used for adding tasks
type HabitInput struct {
	Name string `json:"name"`
}

// CompletionView annotates a task with its latest completion
type CompletionView struct {
	ImageURL    string    `json:"image_url,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// TaskView is one habit as shown on the dashboard
type TaskView struct {
	ID         uint            `json:"id"`
	Title      string          `json:"title"`
	Completed  bool            `json:"completed"`
	Completion *CompletionView `json:"completion,omitempty"`
}

// MemberView is one group member with their tasks. The caller's own entry is
// listed first and relabeled "You".
type MemberView struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Avatar string     `json:"avatar"`
	Tasks  []TaskView `json:"tasks"`
}
