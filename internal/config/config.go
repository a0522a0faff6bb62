package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Admin
	AdminEmails  string
	AdminUserIDs string
	AdminToken   string

	// Server
	Port        string
	CORSOrigins string
	AppEnv      string
	SentryDSN   string

	// Intake gate
	PolicyPath       string
	RedisURL         string
	ReportRateMax    int
	ReportRateWindow time.Duration
	ChallengeMaxAge  time.Duration
	ChallengeMode    string
	RequireChallenge bool
	BotHeuristics    bool
	MediaURLPolicy   string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "civic_reports"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"), 15*time.Minute),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"), 168*time.Hour),

		AdminEmails:  getEnv("ADMIN_EMAILS", ""),
		AdminUserIDs: getEnv("ADMIN_USER_IDS", ""),
		AdminToken:   getEnv("ADMIN_TOKEN", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		AppEnv:      getEnv("APP_ENV", "development"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),

		PolicyPath:       getEnv("POLICY_PATH", ""),
		RedisURL:         getEnv("REDIS_URL", ""),
		ReportRateMax:    parseInt(getEnv("REPORT_RATE_MAX", "5"), 5),
		ReportRateWindow: parseDuration(getEnv("REPORT_RATE_WINDOW", "15m"), 15*time.Minute),
		ChallengeMaxAge:  parseDuration(getEnv("CHALLENGE_MAX_AGE", "10m"), 10*time.Minute),
		ChallengeMode:    strings.ToLower(getEnv("CHALLENGE_MODE", "stateless")),
		RequireChallenge: parseBool(getEnv("REQUIRE_CHALLENGE", "false")),
		BotHeuristics:    parseBool(getEnv("BOT_HEURISTICS", "false")),
		MediaURLPolicy:   strings.ToLower(getEnv("MEDIA_URL_POLICY", "reject")),
	}
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	if c.DBPassword == "" {
		return errors.New("DB_PASSWORD environment variable is required")
	}
	switch c.ChallengeMode {
	case "stateless", "token":
	default:
		return fmt.Errorf("CHALLENGE_MODE must be stateless or token, got %q", c.ChallengeMode)
	}
	switch c.MediaURLPolicy {
	case "reject", "drop":
	default:
		return fmt.Errorf("MEDIA_URL_POLICY must be reject or drop, got %q", c.MediaURLPolicy)
	}
	return nil
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}
