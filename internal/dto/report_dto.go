package dto

import "github.com/ahmetcoskunkizilkaya/civic-backend/internal/models"

type UpdateReportStatusRequest struct {
	Status    string `json:"status"`
	AdminNote string `json:"admin_note"`
}

type ReportResponse struct {
	Report *models.Report `json:"report"`
}

type ReportListResponse struct {
	Reports []models.Report `json:"reports"`
	Total   int64           `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

// ReportFilter narrows report listings. Empty fields match everything.
type ReportFilter struct {
	Status       string
	ReportType   string
	LocationType string
	Limit        int
	Offset       int
}

type UploadRequest struct {
	VideoURL string `json:"videoUrl"`
}

type UploadResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
	Type    string `json:"type"`
	Message string `json:"message"`
}
