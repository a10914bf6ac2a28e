package handlers

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"habitpact/middleware"
)

// DashboardWSUpgrade is middleware to upgrade HTTP to WebSocket. The token
// rides in a query parameter because browsers cannot set headers on
// websocket requests.
func DashboardWSUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		tokenString := c.Query("token")
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Token required",
			})
		}

		claims, err := middleware.ParseToken(tokenString)
		if err != nil || claims.TempAuth {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		group, err := groupService.CheckMembership(claims.UserID)
		if err != nil {
			return serviceError(c, err)
		}
		if group == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "You are not in a group",
			})
		}

		c.Locals("userID", claims.UserID)
		c.Locals("groupID", group.ID)
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// DashboardWS streams dashboard events for the caller's group. The server
// only pushes; client frames are drained and ignored.
func DashboardWS(conn *websocket.Conn) {
	groupID, ok := conn.Locals("groupID").(uint)
	if !ok {
		conn.Close()
		return
	}

	hub.Join(groupID, conn)
	defer func() {
		hub.Leave(groupID, conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
