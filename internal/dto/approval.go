package dto

import "github.com/tripwise-in/tripwise-api/internal/models"

// ApprovalQuery mirrors supported listing filters.
type ApprovalQuery struct {
	Status []models.ApprovalStatus
	Entity models.ApprovalEntity
	Action models.ApprovalAction
}

// ApproveRequest carries the optional reviewer note on approval.
type ApproveRequest struct {
	Note string `json:"note"`
}

// RejectRequest carries the mandatory rejection reason.
type RejectRequest struct {
	RejectionReason string `json:"rejection_reason" validate:"required"`
	Note            string `json:"note"`
}

// SubmittedResponse confirms a gated mutation was queued, not applied.
type SubmittedResponse struct {
	Approval *models.ApprovalRequest `json:"approval"`
	Message  string                  `json:"message"`
}
