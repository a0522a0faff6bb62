package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"

	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/challenge"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/intake"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/mediaurl"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/policy"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/ratelimit"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/validation"
)

const sweepInterval = time.Minute

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	level := logging.LevelFor(cfg.AppEnv)
	logging.Setup(level)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	pol, err := policy.LoadFromFile(cfg.PolicyPath)
	if err != nil {
		slog.Error("failed to load intake policy", "path", cfg.PolicyPath, "error", err)
		os.Exit(1)
	}
	slog.Info("intake policy loaded",
		"report_types", len(pol.ReportTypes),
		"location_types", len(pol.LocationTypes),
		"media_hosts", len(pol.MediaHosts),
	)

	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(db)
	slog.SetDefault(slog.New(logging.NewFanout(
		logging.NewStdoutHandler(level),
		pgLogHandler,
	)))

	// Background jobs stop when done closes.
	done := make(chan struct{})
	logging.StartCleanup(db, done)

	// Shared limiter and challenge store: Redis when configured, else in-process.
	var (
		rdb     *redis.Client
		limiter ratelimit.Limiter
		store   challenge.Store
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		rdb = redis.NewClient(opts)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			slog.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		limiter = ratelimit.NewRedis(rdb)
		store = challenge.NewRedisStore(rdb)
		slog.Info("redis connected", "addr", opts.Addr)
	} else {
		mem := ratelimit.NewMemory()
		mem.StartSweeper(sweepInterval, done)
		memStore := challenge.NewMemoryStore()
		memStore.StartSweeper(sweepInterval, done)
		limiter = mem
		store = memStore
	}

	// Intake gate
	issuer := challenge.NewIssuer(nil)
	verifier := challenge.NewVerifier(cfg.ChallengeMaxAge)
	gate := intake.NewGate(
		limiter,
		verifier,
		store,
		validation.NewValidator(pol.ReportTypes, pol.LocationTypes),
		mediaurl.NewGuard(pol.Hosts(false), mediaurl.General),
		intake.Options{
			MaxRequests:      cfg.ReportRateMax,
			Window:           cfg.ReportRateWindow,
			RequireChallenge: cfg.RequireChallenge,
			ChallengeMode:    intake.ChallengeMode(cfg.ChallengeMode),
			Heuristics:       cfg.BotHeuristics,
			MediaPolicy:      intake.MediaPolicy(cfg.MediaURLPolicy),
		},
	)

	// Services
	authService := services.NewAuthService(db, cfg)
	reportService := services.NewReportService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	healthHandler := handlers.NewHealthHandler(db, rdb)
	reportHandler := handlers.NewReportHandler(gate, reportService)
	challengeHandler := handlers.NewChallengeHandler(issuer, verifier, store, intake.ChallengeMode(cfg.ChallengeMode))
	uploadHandler := handlers.NewUploadHandler(mediaurl.NewGuard(pol.Hosts(true), mediaurl.VideoOnly))

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	routes.Setup(app, cfg, db, limiter, authHandler, healthHandler, reportHandler, challengeHandler, uploadHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port,
			"challenge_mode", cfg.ChallengeMode,
			"media_url_policy", cfg.MediaURLPolicy,
		)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(done)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}
	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", c.Locals("requestid"),
			"error", err.Error(),
		)
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
