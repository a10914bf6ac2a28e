package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"habitpact/middleware"
	"habitpact/models"
)

// ListActivity returns the caller's group activity feed, newest first
func ListActivity(c *fiber.Ctx) error {
	group, err := groupService.CheckMembership(middleware.GetUserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	if group == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "You are not in a group",
		})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	action := c.Query("action")

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	logs, total, err := activityService.List(group.ID, page, limit, action)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch activity",
		})
	}

	responses := make([]models.ActivityLogResponse, len(logs))
	for i, log := range logs {
		responses[i] = log.ToResponse()
	}

	return c.JSON(fiber.Map{
		"logs":  responses,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// GetActivityActions returns available activity actions for filtering
func GetActivityActions(c *fiber.Ctx) error {
	actions := []string{
		string(models.ActivityActionLogin),
		string(models.ActivityActionLogout),
		string(models.ActivityActionProfileCreate),
		string(models.ActivityActionGroupCreate),
		string(models.ActivityActionGroupJoin),
		string(models.ActivityActionInviteCreate),
		string(models.ActivityActionHabitAdd),
		string(models.ActivityActionHabitComplete),
		string(models.ActivityActionHabitDelete),
	}

	return c.JSON(actions)
}
