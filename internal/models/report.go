package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ReportStatusPending  = "PENDING"
	ReportStatusApproved = "APPROVED"
	ReportStatusRejected = "REJECTED"
)

// Report is a user-submitted note about a public space, subject to moderation.
type Report struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"-"`
	Title        string     `gorm:"not null;size:200" json:"title"`
	Description  *string    `gorm:"size:2000" json:"description"`
	ReportType   string     `gorm:"not null;size:50;index" json:"report_type"`
	Location     string     `gorm:"not null;size:500" json:"location"`
	LocationType string     `gorm:"not null;size:50;index" json:"location_type"`
	ImageURL     *string    `gorm:"size:500" json:"image_url"`
	MediaType    string     `gorm:"size:20" json:"media_type,omitempty"`
	Status       string     `gorm:"not null;default:'PENDING';size:20;index" json:"status"`
	AdminNote    string     `gorm:"size:1000" json:"admin_note,omitempty"`
	ReviewedBy   *uuid.UUID `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	User         User       `gorm:"foreignKey:UserID" json:"user"`
}
