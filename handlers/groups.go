package handlers

import (
	"github.com/gofiber/fiber/v2"

	"habitpact/middleware"
	"habitpact/models"
)

// GetMembership answers whether the caller is in a group and which one.
// A store failure surfaces as an error so the client fails closed to the
// create/join prompt instead of assuming membership.
func GetMembership(c *fiber.Ctx) error {
	group, err := groupService.CheckMembership(middleware.GetUserID(c))
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(models.MembershipResponse{
		InGroup: group != nil,
		Group:   group,
	})
}

// CreateGroup creates a group with the caller as creator and sole member
func CreateGroup(c *fiber.Ctx) error {
	var input models.GroupInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	group, member, err := groupService.CreateGroup(input.Name, middleware.GetUserID(c))
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"group":  group,
		"member": member,
	})
}

// JoinGroup redeems an invite code
func JoinGroup(c *fiber.Ctx) error {
	var input models.JoinInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	group, err := groupService.RedeemInvite(input.InviteCode, middleware.GetUserID(c))
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"group": group,
	})
}

// GenerateInvite mints a fresh invite code for the caller's group
func GenerateInvite(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	group, err := groupService.CheckMembership(userID)
	if err != nil {
		return serviceError(c, err)
	}
	if group == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "You must be in a group to invite members",
		})
	}

	invite, err := groupService.GenerateInvite(group.ID, userID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(invite)
}
