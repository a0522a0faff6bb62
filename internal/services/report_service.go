package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/intake"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/models"
)

var (
	ErrReportNotFound = errors.New("report not found")
	ErrInvalidStatus  = errors.New("invalid status: must be PENDING, APPROVED, or REJECTED")
	ErrUserSuspended  = errors.New("account is suspended")
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

var validStatuses = map[string]bool{
	models.ReportStatusPending:  true,
	models.ReportStatusApproved: true,
	models.ReportStatusRejected: true,
}

// ValidStatus reports whether status is a known moderation status.
func ValidStatus(status string) bool {
	return validStatuses[status]
}

type ReportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

// Create persists an admitted submission for userID. New reports start PENDING.
func (s *ReportService) Create(userID uuid.UUID, adm *intake.Admission) (*models.Report, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Status == models.UserStatusSuspended {
		return nil, ErrUserSuspended
	}

	sub := adm.Submission
	report := models.Report{
		ID:           uuid.New(),
		UserID:       userID,
		Title:        sub.Title,
		ReportType:   sub.ReportType,
		Location:     sub.Location,
		LocationType: sub.LocationType,
		Status:       models.ReportStatusPending,
	}
	if sub.Description != "" {
		report.Description = &sub.Description
	}
	if adm.Media != nil {
		report.ImageURL = &adm.Media.URL
		report.MediaType = adm.Media.Kind
	}

	if err := s.db.Create(&report).Error; err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	report.User = user
	return &report, nil
}

func clampPage(f *dto.ReportFilter) {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

func (s *ReportService) list(query *gorm.DB, f dto.ReportFilter) ([]models.Report, int64, error) {
	clampPage(&f)
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.ReportType != "" {
		query = query.Where("report_type = ?", f.ReportType)
	}
	if f.LocationType != "" {
		query = query.Where("location_type = ?", f.LocationType)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	reports := make([]models.Report, 0)
	if err := query.Preload("User").Order("created_at DESC").Limit(f.Limit).Offset(f.Offset).Find(&reports).Error; err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

// ListApproved is the public feed. Any status in f is ignored.
func (s *ReportService) ListApproved(f dto.ReportFilter) ([]models.Report, int64, error) {
	f.Status = models.ReportStatusApproved
	return s.list(s.db.Model(&models.Report{}), f)
}

func (s *ReportService) ListMine(userID uuid.UUID, f dto.ReportFilter) ([]models.Report, int64, error) {
	return s.list(s.db.Model(&models.Report{}).Where("user_id = ?", userID), f)
}

func (s *ReportService) ListAll(f dto.ReportFilter) ([]models.Report, int64, error) {
	if f.Status != "" && !ValidStatus(f.Status) {
		return nil, 0, ErrInvalidStatus
	}
	return s.list(s.db.Model(&models.Report{}), f)
}

// UpdateStatus records a moderation decision. reviewer may be uuid.Nil when the
// admin authenticated with the shared admin token.
func (s *ReportService) UpdateStatus(reportID, reviewer uuid.UUID, req *dto.UpdateReportStatusRequest) error {
	if !ValidStatus(req.Status) {
		return ErrInvalidStatus
	}

	updates := map[string]interface{}{
		"status":     req.Status,
		"admin_note": req.AdminNote,
	}
	if reviewer != uuid.Nil {
		updates["reviewed_by"] = reviewer
	}

	result := s.db.Model(&models.Report{}).Where("id = ?", reportID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReportNotFound
	}
	return nil
}

func (s *ReportService) Get(reportID uuid.UUID) (*models.Report, error) {
	var report models.Report
	if err := s.db.Preload("User").First(&report, "id = ?", reportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return &report, nil
}

func (s *ReportService) Delete(reportID uuid.UUID) error {
	result := s.db.Where("id = ?", reportID).Delete(&models.Report{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReportNotFound
	}
	return nil
}
