package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/challenge"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/intake"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/mediaurl"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/policy"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/ratelimit"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/validation"
)

func fakeAuth(c *fiber.Ctx) error {
	c.Locals("user", jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": uuid.NewString(),
	}))
	return c.Next()
}

func newReportApp(max int) *fiber.App {
	p := policy.Default()
	gate := intake.NewGate(
		ratelimit.NewMemory(),
		challenge.NewVerifier(0),
		nil,
		validation.NewValidator(p.ReportTypes, p.LocationTypes),
		mediaurl.NewGuard(p.Hosts(false), mediaurl.General),
		intake.Options{MaxRequests: max, Window: 15 * time.Minute},
	)
	h := NewReportHandler(gate, services.NewReportService(nil))

	app := fiber.New()
	app.Post("/api/reports", fakeAuth, h.Create)
	app.Patch("/api/admin/reports/:id", h.UpdateStatus)
	app.Delete("/api/admin/reports/:id", h.Delete)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func TestCreateReportMissingField(t *testing.T) {
	app := newReportApp(5)

	resp, out := doJSON(t, app, "POST", "/api/reports", map[string]any{
		"reportType":   "SAFETY",
		"location":     "Main Street",
		"locationType": "WALKWAY",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "MissingField", out["kind"])
	assert.Equal(t, "title", out["field"])
	assert.Equal(t, true, out["error"])
}

func TestCreateReportBadMediaURL(t *testing.T) {
	app := newReportApp(5)

	resp, out := doJSON(t, app, "POST", "/api/reports", map[string]any{
		"title":        "Broken light",
		"reportType":   "SAFETY",
		"location":     "Main Street",
		"locationType": "WALKWAY",
		"mediaUrl":     "https://youtube.com.evil.example/watch?v=1",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "DomainNotAllowed", out["kind"])
}

func TestCreateReportRateLimited(t *testing.T) {
	app := newReportApp(2)
	invalid := map[string]any{"title": "x"}

	for i := 0; i < 2; i++ {
		resp, _ := doJSON(t, app, "POST", "/api/reports", invalid)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	}

	resp, out := doJSON(t, app, "POST", "/api/reports", invalid)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "RateLimited", out["kind"])
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
}

func TestCreateReportInvalidJSON(t *testing.T) {
	app := newReportApp(5)
	req := httptest.NewRequest("POST", "/api/reports", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAdminReportBadID(t *testing.T) {
	app := newReportApp(5)

	resp, _ := doJSON(t, app, "PATCH", "/api/admin/reports/not-a-uuid", map[string]any{"status": "APPROVED"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, "DELETE", "/api/admin/reports/not-a-uuid", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAdminReportInvalidStatus(t *testing.T) {
	app := newReportApp(5)

	resp, out := doJSON(t, app, "PATCH", "/api/admin/reports/"+uuid.NewString(), map[string]any{"status": "DONE"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, out["message"], "invalid status")
}

func newChallengeApp(mode intake.ChallengeMode) *fiber.App {
	h := NewChallengeHandler(challenge.NewIssuer(nil), challenge.NewVerifier(0), challenge.NewMemoryStore(), mode)
	app := fiber.New()
	app.Get("/api/bot-challenge", h.Issue)
	app.Post("/api/bot-challenge", h.Verify)
	return app
}

func TestStatelessChallengeRoundTrip(t *testing.T) {
	app := newChallengeApp(intake.ChallengeStateless)

	resp, out := doJSON(t, app, "GET", "/api/bot-challenge", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	server := out["serverData"].(map[string]any)
	q := out["challenge"].(map[string]any)
	assert.NotEmpty(t, q["question"])
	assert.Nil(t, q["token"])

	resp, out = doJSON(t, app, "POST", "/api/bot-challenge", map[string]any{
		"answer":         server["expectedAnswer"],
		"expectedAnswer": server["expectedAnswer"],
		"timestamp":      server["timestamp"],
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["valid"])

	resp, out = doJSON(t, app, "POST", "/api/bot-challenge", map[string]any{
		"answer":         "not-a-number",
		"expectedAnswer": server["expectedAnswer"],
		"timestamp":      server["timestamp"],
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "WrongAnswer", out["kind"])
}

func TestStatelessChallengeExpired(t *testing.T) {
	app := newChallengeApp(intake.ChallengeStateless)

	resp, out := doJSON(t, app, "POST", "/api/bot-challenge", map[string]any{
		"answer":         "7",
		"expectedAnswer": "7",
		"timestamp":      time.Now().Add(-11 * time.Minute).UnixMilli(),
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Expired", out["kind"])
}

func TestTokenChallengeHidesAnswerAndIsSingleUse(t *testing.T) {
	store := challenge.NewMemoryStore()
	h := NewChallengeHandler(challenge.NewIssuer(nil), challenge.NewVerifier(0), store, intake.ChallengeToken)
	app := fiber.New()
	app.Get("/api/bot-challenge", h.Issue)
	app.Post("/api/bot-challenge", h.Verify)

	resp, out := doJSON(t, app, "GET", "/api/bot-challenge", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Nil(t, out["serverData"])
	token := out["challenge"].(map[string]any)["token"].(string)
	require.NotEmpty(t, token)

	// The answer is never sent; a wrong guess still consumes the token.
	resp, out = doJSON(t, app, "POST", "/api/bot-challenge", map[string]any{"answer": "-1000", "token": token})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "WrongAnswer", out["kind"])

	resp, out = doJSON(t, app, "POST", "/api/bot-challenge", map[string]any{"answer": "-1000", "token": token})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Expired", out["kind"])
}

func newUploadApp() *fiber.App {
	h := NewUploadHandler(mediaurl.NewGuard(policy.Default().Hosts(true), mediaurl.VideoOnly))
	app := fiber.New()
	app.Post("/api/upload", h.Video)
	return app
}

func TestUploadVideoURL(t *testing.T) {
	app := newUploadApp()

	resp, out := doJSON(t, app, "POST", "/api/upload", map[string]any{
		"videoUrl": "https://WWW.YouTube.com/watch/abc?list=x#t=10",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "video", out["type"])
	assert.Equal(t, "https://www.youtube.com/watch/abc", out["url"])
}

func TestUploadRejections(t *testing.T) {
	app := newUploadApp()

	cases := []struct {
		name string
		url  string
		kind string
	}{
		{"missing", "  ", "MissingField"},
		{"http", "http://youtube.com/watch", "InsecureProtocol"},
		{"image host", "https://imgur.com/a.png", "DomainNotAllowed"},
		{"garbage", "youtube", "InvalidFormat"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, out := doJSON(t, app, "POST", "/api/upload", map[string]any{"videoUrl": tc.url})
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tc.kind, out["kind"])
			assert.Equal(t, "videoUrl", out["field"])
		})
	}
}

func TestUploadRequiresJSON(t *testing.T) {
	app := newUploadApp()
	req := httptest.NewRequest("POST", "/api/upload", bytes.NewReader([]byte("videoUrl=x")))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestVerifyChallengeAcceptsNumericAnswer(t *testing.T) {
	app := newChallengeApp(intake.ChallengeStateless)

	_, out := doJSON(t, app, "GET", "/api/bot-challenge", nil)
	server := out["serverData"].(map[string]any)
	expected, err := strconv.Atoi(server["expectedAnswer"].(string))
	require.NoError(t, err)

	resp, out := doJSON(t, app, "POST", "/api/bot-challenge", map[string]any{
		"answer":         expected,
		"expectedAnswer": server["expectedAnswer"],
		"timestamp":      server["timestamp"],
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["valid"])

	resp, out = doJSON(t, app, "POST", "/api/bot-challenge", map[string]any{
		"answer":         expected + 1,
		"expectedAnswer": server["expectedAnswer"],
		"timestamp":      server["timestamp"],
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "WrongAnswer", out["kind"])
}

func TestVerifyChallengeAnswerTypes(t *testing.T) {
	app := newChallengeApp(intake.ChallengeStateless)
	ts := time.Now().UnixMilli()

	cases := []struct {
		name   string
		answer any
		kind   string
	}{
		{"bool", true, "WrongType"},
		{"object", map[string]any{"v": 1}, "WrongType"},
		{"null", nil, "MissingField"},
		{"blank", "  ", "MissingField"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, out := doJSON(t, app, "POST", "/api/bot-challenge", map[string]any{
				"answer":         tc.answer,
				"expectedAnswer": "7",
				"timestamp":      ts,
			})
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tc.kind, out["kind"])
			assert.Equal(t, "answer", out["field"])
		})
	}
}
