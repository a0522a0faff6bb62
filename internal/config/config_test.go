package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"REPORT_RATE_MAX", "REPORT_RATE_WINDOW", "CHALLENGE_MAX_AGE", "CHALLENGE_MODE", "MEDIA_URL_POLICY", "REQUIRE_CHALLENGE"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	assert.Equal(t, 5, cfg.ReportRateMax)
	assert.Equal(t, 15*time.Minute, cfg.ReportRateWindow)
	assert.Equal(t, 10*time.Minute, cfg.ChallengeMaxAge)
	assert.Equal(t, "stateless", cfg.ChallengeMode)
	assert.Equal(t, "reject", cfg.MediaURLPolicy)
	assert.False(t, cfg.RequireChallenge)
}

func TestLoadOverridesAndFallbacks(t *testing.T) {
	t.Setenv("REPORT_RATE_MAX", "20")
	t.Setenv("REPORT_RATE_WINDOW", "1h")
	t.Setenv("CHALLENGE_MAX_AGE", "soon")
	t.Setenv("CHALLENGE_MODE", "TOKEN")
	t.Setenv("REQUIRE_CHALLENGE", "true")
	cfg := Load()

	assert.Equal(t, 20, cfg.ReportRateMax)
	assert.Equal(t, time.Hour, cfg.ReportRateWindow)
	assert.Equal(t, 10*time.Minute, cfg.ChallengeMaxAge)
	assert.Equal(t, "token", cfg.ChallengeMode)
	assert.True(t, cfg.RequireChallenge)
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "n", DBPort: "5432", DBSSLMode: "require"}
	assert.Equal(t, "host=db user=u password=p dbname=n port=5432 sslmode=require TimeZone=UTC", cfg.DSN())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{JWTSecret: "k", DBPassword: "p", ChallengeMode: "stateless", MediaURLPolicy: "reject"}
	}
	assert.NoError(t, valid().Validate())

	c := valid()
	c.JWTSecret = ""
	assert.ErrorContains(t, c.Validate(), "JWT_SECRET")

	c = valid()
	c.ChallengeMode = "captcha"
	assert.ErrorContains(t, c.Validate(), "CHALLENGE_MODE")

	c = valid()
	c.MediaURLPolicy = "strip"
	assert.ErrorContains(t, c.Validate(), "MEDIA_URL_POLICY")
}
