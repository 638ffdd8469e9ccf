package models

import "time"

// ReportType enumerates supported export kinds.
type ReportType string

const (
	ReportTypeBookingsCSV ReportType = "BOOKINGS_CSV"
	ReportTypePackagesPDF ReportType = "PACKAGES_PDF"
)

// ReportStatus tracks async report generation.
type ReportStatus string

const (
	ReportStatusPending ReportStatus = "PENDING"
	ReportStatusReady   ReportStatus = "READY"
	ReportStatusFailed  ReportStatus = "FAILED"
)

// ReportJob is a queued export request tracked in the database.
type ReportJob struct {
	ID          string       `db:"id" json:"id"`
	Type        ReportType   `db:"type" json:"type"`
	Status      ReportStatus `db:"status" json:"status"`
	RequestedBy string       `db:"requested_by" json:"requested_by"`
	FilePath    *string      `db:"file_path" json:"-"`
	Error       *string      `db:"error" json:"error,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	CompletedAt *time.Time   `db:"completed_at" json:"completed_at,omitempty"`
}
