package middleware

import (
	"habitpact/config"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID   string `json:"user_id"`
	Phone    string `json:"phone"`
	TempAuth bool   `json:"temp_auth,omitempty"`
	jwt.RegisteredClaims
}

// ParseToken validates a raw JWT string and returns its claims. Used by the
// websocket upgrade, which carries the token as a query parameter.
func ParseToken(tokenString string) (*Claims, error) {
	cfg := config.GetConfig()

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	})

	if err != nil || !token.Valid {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}

	return claims, nil
}

// parseClaims extracts and validates JWT claims from the Authorization header
func parseClaims(c *fiber.Ctx) (*Claims, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Missing authorization header")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid authorization header format")
	}

	return ParseToken(parts[1])
}

// AuthRequired validates a full (non-temp) JWT token
func AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := parseClaims(c)
		if err != nil {
			e := err.(*fiber.Error)
			return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
		}

		// Reject temp tokens — they can only be used to finish the profile
		if claims.TempAuth {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Profile setup required",
			})
		}

		c.Locals("userID", claims.UserID)
		c.Locals("phone", claims.Phone)

		return c.Next()
	}
}

// TempAuthRequired validates a temp JWT token (issued after phone
// verification for users without a profile yet)
func TempAuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := parseClaims(c)
		if err != nil {
			e := err.(*fiber.Error)
			return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
		}

		if !claims.TempAuth {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Temporary token required",
			})
		}

		c.Locals("userID", claims.UserID)
		c.Locals("phone", claims.Phone)

		return c.Next()
	}
}

func GetUserID(c *fiber.Ctx) string {
	if userID, ok := c.Locals("userID").(string); ok {
		return userID
	}
	return ""
}

func GetPhone(c *fiber.Ctx) string {
	if phone, ok := c.Locals("phone").(string); ok {
		return phone
	}
	return ""
}
