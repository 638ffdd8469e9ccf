package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ApprovalAction enumerates gated mutation verbs.
type ApprovalAction string

const (
	ApprovalActionCreate ApprovalAction = "CREATE"
	ApprovalActionUpdate ApprovalAction = "UPDATE"
	ApprovalActionDelete ApprovalAction = "DELETE"
)

// ApprovalEntity enumerates catalog entities whose mutations require
// superadmin sign-off.
type ApprovalEntity string

const (
	ApprovalEntityPackage ApprovalEntity = "package"
	ApprovalEntityState   ApprovalEntity = "state"
	ApprovalEntityCity    ApprovalEntity = "city"
)

// ApprovalStatus captures workflow states for gated mutations. Pending is
// initial; approved and rejected are terminal.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

// ApprovalRequest stores a proposed catalog mutation awaiting superadmin
// review. Records are never deleted; they double as an audit trail.
type ApprovalRequest struct {
	ID              string          `db:"id" json:"id"`
	Action          ApprovalAction  `db:"action" json:"action"`
	Entity          ApprovalEntity  `db:"entity" json:"entity"`
	EntityID        string          `db:"entity_id" json:"entity_id"`
	Payload         json.RawMessage `db:"payload" json:"payload"`
	Status          ApprovalStatus  `db:"status" json:"status"`
	RequestedBy     string          `db:"requested_by" json:"requested_by"`
	ApprovedBy      *string         `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt      *time.Time      `db:"approved_at" json:"approved_at,omitempty"`
	RejectionReason *string         `db:"rejection_reason" json:"rejection_reason,omitempty"`
	Note            *string         `db:"note" json:"note,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

// ActionType renders the combined action tag, e.g. "create_package".
func (r *ApprovalRequest) ActionType() string {
	return fmt.Sprintf("%s_%s", toLowerAction(r.Action), r.Entity)
}

func toLowerAction(a ApprovalAction) string {
	switch a {
	case ApprovalActionCreate:
		return "create"
	case ApprovalActionUpdate:
		return "update"
	case ApprovalActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// ApprovalFilter constrains listing queries.
type ApprovalFilter struct {
	Status      []ApprovalStatus
	Entity      ApprovalEntity
	Action      ApprovalAction
	RequestedBy string
	Limit       int
	Offset      int
}
