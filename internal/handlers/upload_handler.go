package handlers

import (
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/mediaurl"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/rejection"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/validation"
)

// UploadHandler validates video links. Files are never accepted, only URLs on
// the video allow-list.
type UploadHandler struct {
	guard *mediaurl.Guard
}

func NewUploadHandler(guard *mediaurl.Guard) *UploadHandler {
	return &UploadHandler{guard: guard}
}

func (h *UploadHandler) Video(c *fiber.Ctx) error {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Content-Type must be application/json",
		})
	}

	var req dto.UploadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid JSON in request body",
		})
	}

	raw := strings.TrimSpace(req.VideoURL)
	if raw == "" {
		return respondRejected(c, rejection.New(rejection.MissingField, "videoUrl", "Video URL is required"), "video url")
	}
	if utf8.RuneCountInString(raw) > validation.MaxMediaURLLength {
		return respondRejected(c, rejection.New(rejection.TooLong, "videoUrl", "Video URL is too long"), "video url")
	}

	res, err := h.guard.Check(raw)
	if err != nil {
		if rej, ok := rejection.As(err); ok {
			out := *rej
			out.Field = "videoUrl"
			return respondRejected(c, &out, "video url")
		}
		return err
	}

	return c.JSON(dto.UploadResponse{
		Success: true,
		URL:     res.URL,
		Type:    mediaurl.KindVideo,
		Message: "Video URL validated successfully",
	})
}
