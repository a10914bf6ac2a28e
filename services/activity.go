package services

import (
	"log/slog"

	"gorm.io/gorm"

	"habitpact/models"
)

// ActivityService writes and reads the group activity feed.
type ActivityService struct {
	db *gorm.DB
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db}
}

// Log creates an activity entry. Fire and forget - don't block the caller
// on feed bookkeeping.
func (s *ActivityService) Log(groupID uint, userID, displayName string, action models.ActivityAction, details string) {
	entry := models.ActivityLog{
		GroupID:     groupID,
		UserID:      userID,
		DisplayName: displayName,
		Action:      action,
		Details:     details,
	}

	go func() {
		if err := s.db.Create(&entry).Error; err != nil {
			slog.Warn("activity log write failed", "action", action, "error", err)
		}
	}()
}

// LogSync creates an activity entry synchronously.
func (s *ActivityService) LogSync(groupID uint, userID, displayName string, action models.ActivityAction, details string) error {
	entry := models.ActivityLog{
		GroupID:     groupID,
		UserID:      userID,
		DisplayName: displayName,
		Action:      action,
		Details:     details,
	}
	return s.db.Create(&entry).Error
}

// List returns a page of the group's feed, newest first, optionally
// filtered by action.
func (s *ActivityService) List(groupID uint, page, limit int, action string) ([]models.ActivityLog, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}
	offset := (page - 1) * limit

	query := s.db.Model(&models.ActivityLog{}).Where("group_id = ?", groupID)
	if action != "" {
		query = query.Where("action = ?", action)
	}

	var total int64
	query.Count(&total)

	var logs []models.ActivityLog
	if result := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&logs); result.Error != nil {
		return nil, 0, result.Error
	}

	return logs, total, nil
}
