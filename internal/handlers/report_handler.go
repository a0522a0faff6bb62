package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/challenge"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/intake"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/rejection"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/services"
)

type ReportHandler struct {
	gate          *intake.Gate
	reportService *services.ReportService
}

func NewReportHandler(gate *intake.Gate, reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{gate: gate, reportService: reportService}
}

// Create admits the submission through the intake gate before anything is
// written.
func (h *ReportHandler) Create(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	adm, err := h.gate.Admit(c.UserContext(), intake.Request{
		Identifier: c.IP(),
		Body:       body,
		Signals: challenge.Signals{
			UserAgent: c.Get(fiber.HeaderUserAgent),
			HasAccept: c.Get(fiber.HeaderAccept) != "",
		},
	})
	if err != nil {
		if rej, ok := rejection.As(err); ok {
			return respondRejected(c, rej, "report")
		}
		return err
	}
	if adm.MediaRejection != nil {
		slog.Info("report media url dropped",
			"kind", string(adm.MediaRejection.Kind),
			"ip", c.IP(),
			"user_id", userID.String(),
		)
	}

	report, err := h.reportService.Create(userID, adm)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserSuspended):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Your account is suspended",
			})
		case errors.Is(err, services.ErrUserNotFound):
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}
		return err
	}

	slog.Info("report created", "report_id", report.ID.String(), "user_id", userID.String())
	return c.Status(fiber.StatusCreated).JSON(dto.ReportResponse{Report: report})
}

func pageFilter(c *fiber.Ctx) dto.ReportFilter {
	return dto.ReportFilter{
		ReportType:   c.Query("report_type"),
		LocationType: c.Query("location_type"),
		Limit:        c.QueryInt("limit", services.DefaultListLimit),
		Offset:       c.QueryInt("offset", 0),
	}
}

// List is the public feed of approved reports.
func (h *ReportHandler) List(c *fiber.Ctx) error {
	f := pageFilter(c)
	reports, total, err := h.reportService.ListApproved(f)
	if err != nil {
		return err
	}
	return c.JSON(dto.ReportListResponse{Reports: reports, Total: total, Limit: f.Limit, Offset: f.Offset})
}

func (h *ReportHandler) ListMine(c *fiber.Ctx) error {
	userID, err := identity.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	f := pageFilter(c)
	f.Status = c.Query("status")
	reports, total, err := h.reportService.ListMine(userID, f)
	if err != nil {
		return err
	}
	return c.JSON(dto.ReportListResponse{Reports: reports, Total: total, Limit: f.Limit, Offset: f.Offset})
}

func (h *ReportHandler) AdminList(c *fiber.Ctx) error {
	f := pageFilter(c)
	f.Status = c.Query("status")
	reports, total, err := h.reportService.ListAll(f)
	if err != nil {
		if errors.Is(err, services.ErrInvalidStatus) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return err
	}
	return c.JSON(dto.ReportListResponse{Reports: reports, Total: total, Limit: f.Limit, Offset: f.Offset})
}

func (h *ReportHandler) UpdateStatus(c *fiber.Ctx) error {
	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid report ID",
		})
	}

	var req dto.UpdateReportStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	// Token-header admins have no user ID; the review is recorded without one.
	reviewer, _ := identity.GetUserID(c)

	if err := h.reportService.UpdateStatus(reportID, reviewer, &req); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidStatus):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrReportNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Report not found",
			})
		}
		return err
	}

	report, err := h.reportService.Get(reportID)
	if err != nil {
		return err
	}
	slog.Info("report status updated", "report_id", reportID.String(), "status", req.Status)
	return c.JSON(dto.ReportResponse{Report: report})
}

func (h *ReportHandler) Delete(c *fiber.Ctx) error {
	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid report ID",
		})
	}

	if err := h.reportService.Delete(reportID); err != nil {
		if errors.Is(err, services.ErrReportNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Report not found",
			})
		}
		return err
	}

	slog.Info("report deleted", "report_id", reportID.String())
	return c.JSON(fiber.Map{"message": "Report deleted successfully"})
}
