package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/ratelimit"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	rl ratelimit.Limiter,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	reportHandler *handlers.ReportHandler,
	challengeHandler *handlers.ChallengeHandler,
	uploadHandler *handlers.UploadHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	jwt := middleware.JWTProtected(cfg)

	api.Post("/auth/logout", jwt, authHandler.Logout)
	api.Delete("/auth/account", jwt, authHandler.DeleteAccount)
	api.Get("/user/me", jwt, authHandler.Me)

	// Bot challenge and video link checks share the per-IP counters of the
	// report limiter, under their own scopes.
	api.Get("/bot-challenge", middleware.FixedWindow(rl, "challenge", 30, time.Minute), challengeHandler.Issue)
	api.Post("/bot-challenge", middleware.FixedWindow(rl, "challenge-verify", 30, time.Minute), challengeHandler.Verify)
	api.Post("/upload", jwt, middleware.FixedWindow(rl, "upload", 20, time.Minute), uploadHandler.Video)

	// Reports. POST runs its own intake rate limit inside the gate.
	api.Get("/reports", reportHandler.List)
	api.Get("/reports/mine", jwt, reportHandler.ListMine)
	api.Post("/reports", jwt, reportHandler.Create)

	// Admin moderation (JWT or X-Admin-Token)
	admin := api.Group("/admin", middleware.OptionalJWT(jwt), middleware.AdminRequired(db, cfg))
	admin.Get("/reports", reportHandler.AdminList)
	admin.Patch("/reports/:id", reportHandler.UpdateStatus)
	admin.Delete("/reports/:id", reportHandler.Delete)
}
