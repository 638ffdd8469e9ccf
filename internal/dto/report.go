package dto

import (
	"time"

	"github.com/tripwise-in/tripwise-api/internal/models"
)

// CreateReportRequest queues an async export.
type CreateReportRequest struct {
	Type models.ReportType `json:"type" validate:"required"`
}

// ReportResponse describes a report job and, when ready, its download link.
type ReportResponse struct {
	Job         *models.ReportJob `json:"job"`
	DownloadURL string            `json:"download_url,omitempty"`
	ExpiresAt   *time.Time        `json:"expires_at,omitempty"`
}
