package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"habitpact/config"
	"habitpact/middleware"
	"habitpact/models"
)

// tempTokenDuration bounds how long a verified phone may sit without a
// completed profile.
const tempTokenDuration = 10 * time.Minute

type SendOTPRequest struct {
	Phone string `json:"phone"`
}

type VerifyOTPRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// AuthResponse carries the session token. Profile is nil and
// ProfileComplete false when the caller still has to pick a display name.
type AuthResponse struct {
	Token           string                  `json:"token"`
	ProfileComplete bool                    `json:"profile_complete"`
	Profile         *models.ProfileResponse `json:"profile,omitempty"`
}

// SendOTP mints and delivers a verification code for the phone number
func SendOTP(c *fiber.Ctx) error {
	var req SendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Phone number is required",
		})
	}

	code, err := otpService.SendCode(req.Phone)
	if err != nil {
		return serviceError(c, err)
	}

	resp := fiber.Map{"message": "Verification code sent"}
	if config.GetConfig().DevEchoOTP {
		resp["code"] = code
	}
	return c.JSON(resp)
}

// VerifyOTP checks the submitted code. Existing users get a full session
// token; first-time users get a temp token and must complete their profile.
func VerifyOTP(c *fiber.Ctx) error {
	var req VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Phone == "" || req.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Phone number and code are required",
		})
	}

	profile, userID, err := otpService.VerifyCode(req.Phone, req.Code)
	if err != nil {
		return serviceError(c, err)
	}

	if profile == nil {
		// Verified but no profile yet: hand out a temp token only
		token, err := generateToken(userID, req.Phone, true)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to generate token",
			})
		}
		return c.JSON(AuthResponse{Token: token, ProfileComplete: false})
	}

	token, err := generateToken(profile.UserID, profile.Phone, false)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	activityService.Log(0, profile.UserID, profile.ToResponse().DisplayName, models.ActivityActionLogin, "")

	resp := profile.ToResponse()
	return c.JSON(AuthResponse{Token: token, ProfileComplete: true, Profile: &resp})
}

// CompleteProfile creates the profile for a freshly verified phone (temp
// token) and upgrades the session to a full token.
func CompleteProfile(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	phone := middleware.GetPhone(c)

	var input models.ProfileInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	profile, err := otpService.CompleteProfile(userID, phone, input.DisplayName)
	if err != nil {
		return serviceError(c, err)
	}

	token, err := generateToken(profile.UserID, profile.Phone, false)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	activityService.Log(0, profile.UserID, profile.ToResponse().DisplayName, models.ActivityActionProfileCreate, "")

	resp := profile.ToResponse()
	return c.Status(fiber.StatusCreated).JSON(AuthResponse{Token: token, ProfileComplete: true, Profile: &resp})
}

// GetCurrentUser returns the caller's profile
func GetCurrentUser(c *fiber.Ctx) error {
	profile, err := otpService.GetProfile(middleware.GetUserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(profile.ToResponse())
}

// UpdateProfile changes the caller's display name
func UpdateProfile(c *fiber.Ctx) error {
	var input models.ProfileInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	profile, err := otpService.UpdateDisplayName(middleware.GetUserID(c), input.DisplayName)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(profile.ToResponse())
}

// Logout is stateless: the client discards its token. Kept as an endpoint
// so sign-out shows up in the activity feed.
func Logout(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if profile, err := otpService.GetProfile(userID); err == nil {
		activityService.Log(0, userID, profile.ToResponse().DisplayName, models.ActivityActionLogout, "")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func generateToken(userID, phone string, temp bool) (string, error) {
	cfg := config.GetConfig()

	duration := time.Duration(cfg.SessionDurationHours) * time.Hour
	if temp {
		duration = tempTokenDuration
	}

	claims := middleware.Claims{
		UserID:   userID,
		Phone:    phone,
		TempAuth: temp,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}
