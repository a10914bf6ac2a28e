package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"habitpact/config"
	"habitpact/database"
	"habitpact/handlers"
	"habitpact/middleware"
	"habitpact/pkg/logging"
	"habitpact/realtime"
	"habitpact/services"
	"habitpact/storage"
)

func main() {
	logging.Setup()

	// Load configuration
	cfg := config.GetConfig()

	// Connect to database
	if err := database.Connect(); err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Photo object store, served statically below
	photos, err := storage.NewLocalStore(cfg.PhotoDir, cfg.BaseURL)
	if err != nil {
		slog.Error("Failed to initialize photo storage", "error", err)
		os.Exit(1)
	}

	// Wire services
	hub := realtime.NewHub()
	activityService := services.NewActivityService(database.DB)
	otpService := services.NewOTPService(
		database.DB,
		services.LogSender{},
		time.Duration(cfg.OTPDurationMinutes)*time.Minute,
	)
	groupService := services.NewGroupService(
		database.DB,
		activityService,
		hub,
		time.Duration(cfg.InviteDurationHours)*time.Hour,
	)
	habitService := services.NewHabitService(database.DB, groupService, photos, activityService, hub)
	handlers.Init(otpService, groupService, habitService, activityService, hub)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "habitpact",
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "http://localhost:5173,http://localhost:3000,http://localhost:8080",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// WebSocket route for live dashboard events (must be before other
	// routes to avoid middleware conflicts)
	app.Use("/api/ws", handlers.DashboardWSUpgrade)
	app.Get("/api/ws", websocket.New(handlers.DashboardWS))

	// Proof photos are public objects once uploaded
	app.Static(storage.URLPrefix, photos.Root())

	// API routes
	api := app.Group("/api")

	// Rate limiter for OTP endpoints (5 requests per minute per IP)
	otpLimiter := limiter.New(limiter.Config{
		Max:        5,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many attempts. Please try again later.",
			})
		},
	})

	// Public routes (with rate limiting)
	api.Post("/auth/otp/send", otpLimiter, handlers.SendOTP)
	api.Post("/auth/otp/verify", otpLimiter, handlers.VerifyOTP)

	// Profile completion (uses temp token issued at verification)
	api.Post("/auth/profile", middleware.TempAuthRequired(), handlers.CompleteProfile)

	// Protected routes
	protected := api.Group("", middleware.AuthRequired())
	protected.Post("/auth/logout", handlers.Logout)
	protected.Get("/user", handlers.GetCurrentUser)
	protected.Put("/user", handlers.UpdateProfile)

	// Group routes
	groups := protected.Group("/groups")
	groups.Get("/membership", handlers.GetMembership)
	groups.Post("/", handlers.CreateGroup)
	groups.Post("/join", handlers.JoinGroup)
	groups.Post("/invite", handlers.GenerateInvite)

	// Habit routes
	habits := protected.Group("/habits")
	habits.Get("/", handlers.GetDashboard)
	habits.Post("/", handlers.CreateHabit)
	habits.Post("/:id/complete", handlers.CompleteHabit)
	habits.Delete("/:id", handlers.DeleteHabit)

	// Activity feed
	activity := protected.Group("/activity")
	activity.Get("/", handlers.ListActivity)
	activity.Get("/actions", handlers.GetActivityActions)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		slog.Info("Shutting down server...")
		if err := app.Shutdown(); err != nil {
			slog.Error("Error shutting down", "error", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	slog.Info("Starting habitpact", "address", addr)
	if err := app.Listen(addr); err != nil {
		slog.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
