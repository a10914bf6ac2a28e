package handlers

import (
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"habitpact/middleware"
	"habitpact/models"
)

// maxPhotoBytes caps proof photo uploads at 10 MiB.
const maxPhotoBytes = 10 << 20

// GetDashboard returns every member of the caller's group with their tasks
func GetDashboard(c *fiber.Ctx) error {
	members, err := habitService.Dashboard(middleware.GetUserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"members": members,
	})
}

// CreateHabit adds a task for the caller
func CreateHabit(c *fiber.Ctx) error {
	var input models.HabitInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	habit, err := habitService.AddTask(input.Name, middleware.GetUserID(c))
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(habit)
}

// CompleteHabit marks a task done. Accepts an optional multipart "photo"
// part (JPEG) as proof; without one the completion is recorded bare.
func CompleteHabit(c *fiber.Ctx) error {
	habitID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid habit ID",
		})
	}

	var photo []byte
	if file, err := c.FormFile("photo"); err == nil {
		if file.Size > maxPhotoBytes {
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
				"error": "Photo too large",
			})
		}
		if ct := file.Header.Get("Content-Type"); ct != "" && ct != "image/jpeg" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Photo must be a JPEG",
			})
		}

		f, err := file.Open()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Failed to read photo",
			})
		}
		photo, err = io.ReadAll(f)
		f.Close()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Failed to read photo",
			})
		}
	}

	habit, err := habitService.CompleteTask(uint(habitID), middleware.GetUserID(c), photo)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(habit)
}

// DeleteHabit removes a task, its completions and their stored photos
func DeleteHabit(c *fiber.Ctx) error {
	habitID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid habit ID",
		})
	}

	if err := habitService.DeleteTask(uint(habitID), middleware.GetUserID(c)); err != nil {
		return serviceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
