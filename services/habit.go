package services

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"habitpact/models"
	"habitpact/realtime"
	"habitpact/storage"
)

const placeholderAvatar = "https://placeholder.svg?height=50&width=50"

// HabitService is CRUD over tasks scoped to the caller's group, plus
// completion with optional photo proof.
type HabitService struct {
	db       *gorm.DB
	groups   *GroupService
	photos   storage.PhotoStore
	activity *ActivityService
	hub      *realtime.Hub
}

func NewHabitService(db *gorm.DB, groups *GroupService, photos storage.PhotoStore, activity *ActivityService, hub *realtime.Hub) *HabitService {
	return &HabitService{db: db, groups: groups, photos: photos, activity: activity, hub: hub}
}

// Dashboard assembles the members-with-their-tasks view for the caller's
// group. The caller comes first, relabeled "You"; each task carries its
// most recent completion when one exists.
func (s *HabitService) Dashboard(userID string) ([]models.MemberView, error) {
	group, err := s.groups.CheckMembership(userID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrNoGroup
	}

	var members []models.GroupMember
	if result := s.db.Where("group_id = ?", group.ID).Find(&members); result.Error != nil {
		return nil, fmt.Errorf("fetch members: %w", result.Error)
	}

	memberIDs := make([]string, len(members))
	for i, m := range members {
		memberIDs[i] = m.UserID
	}

	var profiles []models.Profile
	if result := s.db.Where("user_id IN ?", memberIDs).Find(&profiles); result.Error != nil {
		return nil, fmt.Errorf("fetch profiles: %w", result.Error)
	}
	names := make(map[string]string, len(profiles))
	for i := range profiles {
		names[profiles[i].UserID] = displayName(&profiles[i])
	}

	var habits []models.Habit
	if result := s.db.Where("group_id = ?", group.ID).Order("created_at").Find(&habits); result.Error != nil {
		return nil, fmt.Errorf("fetch habits: %w", result.Error)
	}

	habitIDs := make([]uint, len(habits))
	for i, h := range habits {
		habitIDs[i] = h.ID
	}

	// Newest first, so the first row seen per habit is its latest completion
	latest := make(map[uint]*models.CompletionView)
	if len(habitIDs) > 0 {
		var completions []models.HabitCompletion
		result := s.db.
			Where("habit_id IN ?", habitIDs).
			Order("completed_at DESC").
			Find(&completions)
		if result.Error != nil {
			return nil, fmt.Errorf("fetch completions: %w", result.Error)
		}
		for i := range completions {
			c := &completions[i]
			if _, seen := latest[c.HabitID]; !seen {
				latest[c.HabitID] = &models.CompletionView{
					ImageURL:    c.ImageURL,
					CompletedAt: c.CompletedAt,
				}
			}
		}
	}

	views := make([]models.MemberView, 0, len(members))
	for _, m := range members {
		name, ok := names[m.UserID]
		if !ok {
			name = "Unknown"
		}
		if m.UserID == userID {
			name = "You"
		}

		tasks := make([]models.TaskView, 0)
		for _, h := range habits {
			if h.UserID != m.UserID {
				continue
			}
			tasks = append(tasks, models.TaskView{
				ID:         h.ID,
				Title:      h.Name,
				Completed:  h.Completed,
				Completion: latest[h.ID],
			})
		}

		view := models.MemberView{
			ID:     m.UserID,
			Name:   name,
			Avatar: placeholderAvatar,
			Tasks:  tasks,
		}

		// Caller's own entry leads the list
		if m.UserID == userID {
			views = append([]models.MemberView{view}, views...)
		} else {
			views = append(views, view)
		}
	}

	return views, nil
}

// AddTask creates a habit for the caller in their group.
func (s *HabitService) AddTask(name, userID string) (*models.Habit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: task name required", ErrValidation)
	}

	group, err := s.groups.CheckMembership(userID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrNoGroup
	}

	habit := models.Habit{
		GroupID: group.ID,
		UserID:  userID,
		Name:    name,
	}
	if err := s.db.Create(&habit).Error; err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	s.activity.Log(group.ID, userID, s.groups.displayNameFor(userID), models.ActivityActionHabitAdd, "Added task: "+name)
	s.hub.Broadcast(group.ID, realtime.EventHabitAdded, habit)

	return &habit, nil
}

// CompleteTask marks the habit done, storing a photo proof first when one
// is supplied. Completing an already-completed task is a no-op success and
// records nothing new.
func (s *HabitService) CompleteTask(taskID uint, userID string, photo []byte) (*models.Habit, error) {
	habit, err := s.loadGroupHabit(taskID, userID)
	if err != nil {
		return nil, err
	}

	if habit.Completed {
		return habit, nil
	}

	if len(photo) > 0 {
		path := storage.ProofPath(userID)
		if err := s.photos.Save(path, photo, "image/jpeg"); err != nil {
			return nil, fmt.Errorf("upload proof: %w", err)
		}

		completion := models.HabitCompletion{
			HabitID:  habit.ID,
			UserID:   userID,
			Date:     time.Now().Format("2006-01-02"),
			ImageURL: s.photos.PublicURL(path),
		}
		if err := s.db.Create(&completion).Error; err != nil {
			return nil, fmt.Errorf("record completion: %w", err)
		}
	}

	if err := s.db.Model(habit).Update("completed", true).Error; err != nil {
		return nil, fmt.Errorf("complete task: %w", err)
	}
	habit.Completed = true

	s.activity.Log(habit.GroupID, userID, s.groups.displayNameFor(userID), models.ActivityActionHabitComplete, "Completed task: "+habit.Name)
	s.hub.Broadcast(habit.GroupID, realtime.EventHabitCompleted, habit)

	return habit, nil
}

// DeleteTask removes the habit and its completions, then best-effort
// deletes the stored proof photos. Row deletion takes priority: a storage
// failure is logged but does not fail the delete.
func (s *HabitService) DeleteTask(taskID uint, userID string) error {
	habit, err := s.loadGroupHabit(taskID, userID)
	if err != nil {
		return err
	}
	if habit.UserID != userID {
		return ErrForbidden
	}

	var completions []models.HabitCompletion
	if result := s.db.Where("habit_id = ?", habit.ID).Find(&completions); result.Error != nil {
		return fmt.Errorf("fetch completions: %w", result.Error)
	}

	if err := s.db.Where("habit_id = ?", habit.ID).Delete(&models.HabitCompletion{}).Error; err != nil {
		return fmt.Errorf("delete completions: %w", err)
	}
	if err := s.db.Delete(habit).Error; err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	var paths []string
	for _, c := range completions {
		if c.ImageURL == "" {
			continue
		}
		if path, ok := s.photos.PathFromURL(c.ImageURL); ok {
			paths = append(paths, path)
		}
	}
	if len(paths) > 0 {
		if err := s.photos.Remove(paths); err != nil {
			slog.Warn("proof photo cleanup failed", "habit_id", habit.ID, "error", err)
		}
	}

	s.activity.Log(habit.GroupID, userID, s.groups.displayNameFor(userID), models.ActivityActionHabitDelete, "Deleted task: "+habit.Name)
	s.hub.Broadcast(habit.GroupID, realtime.EventHabitDeleted, map[string]interface{}{"id": habit.ID})

	return nil
}

// loadGroupHabit fetches the habit and checks it belongs to the caller's
// group.
func (s *HabitService) loadGroupHabit(taskID uint, userID string) (*models.Habit, error) {
	var habit models.Habit
	if result := s.db.First(&habit, taskID); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}

	group, err := s.groups.CheckMembership(userID)
	if err != nil {
		return nil, err
	}
	if group == nil || group.ID != habit.GroupID {
		return nil, ErrForbidden
	}

	return &habit, nil
}
