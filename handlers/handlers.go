package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"habitpact/realtime"
	"habitpact/services"
)

var (
	otpService      *services.OTPService
	groupService    *services.GroupService
	habitService    *services.HabitService
	activityService *services.ActivityService
	hub             *realtime.Hub
)

// Init wires the handler package to its services. Called once from main
// after the database is up.
func Init(otp *services.OTPService, groups *services.GroupService, habits *services.HabitService, activity *services.ActivityService, h *realtime.Hub) {
	otpService = otp
	groupService = groups
	habitService = habits
	activityService = activity
	hub = h
}

// serviceError maps service sentinel errors to HTTP responses. Anything
// unrecognized becomes a generic 500 so internals never leak.
func serviceError(c *fiber.Ctx, err error) error {
	var status int
	switch {
	case errors.Is(err, services.ErrValidation):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrCodeMismatch),
		errors.Is(err, services.ErrCodeExpired),
		errors.Is(err, services.ErrTooManyAttempts):
		status = fiber.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		status = fiber.StatusForbidden
	case errors.Is(err, services.ErrProfileNotFound),
		errors.Is(err, services.ErrNoGroup),
		errors.Is(err, services.ErrInviteInvalid),
		errors.Is(err, services.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrAlreadyInGroup):
		status = fiber.StatusConflict
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unexpected error",
		})
	}

	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
