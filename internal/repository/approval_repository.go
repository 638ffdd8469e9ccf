package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tripwise-in/tripwise-api/internal/models"
)

// ApprovalRepository persists gated-mutation approval requests.
type ApprovalRepository struct {
	db *sqlx.DB
}

// NewApprovalRepository constructs the repository.
func NewApprovalRepository(db *sqlx.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// Create inserts a new approval request row.
func (r *ApprovalRepository) Create(ctx context.Context, approval *models.ApprovalRequest) error {
	if approval.ID == "" {
		approval.ID = uuid.NewString()
	}
	if approval.Status == "" {
		approval.Status = models.ApprovalStatusPending
	}
	if approval.CreatedAt.IsZero() {
		approval.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO approval_requests
	(id, action, entity, entity_id, payload, status, requested_by, approved_by, approved_at, rejection_reason, note, created_at)
	VALUES (:id, :action, :entity, :entity_id, :payload, :status, :requested_by, :approved_by, :approved_at, :rejection_reason, :note, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, approval); err != nil {
		return fmt.Errorf("create approval request: %w", err)
	}
	return nil
}

// GetByID fetches an approval request by identifier.
func (r *ApprovalRepository) GetByID(ctx context.Context, id string) (*models.ApprovalRequest, error) {
	const query = `SELECT id, action, entity, entity_id, payload, status, requested_by,
       approved_by, approved_at, rejection_reason, note, created_at
	FROM approval_requests WHERE id = $1`
	var approval models.ApprovalRequest
	if err := r.db.GetContext(ctx, &approval, query, id); err != nil {
		return nil, err
	}
	return &approval, nil
}

// List returns approval requests matching the filter (latest first).
func (r *ApprovalRepository) List(ctx context.Context, filter models.ApprovalFilter) ([]models.ApprovalRequest, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 6)
	builder.WriteString(`SELECT id, action, entity, entity_id, payload, status, requested_by,
       approved_by, approved_at, rejection_reason, note, created_at FROM approval_requests`)

	conditions := make([]string, 0, 4)
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Entity != "" {
		args = append(args, filter.Entity)
		conditions = append(conditions, fmt.Sprintf("entity = $%d", len(args)))
	}
	if filter.Action != "" {
		args = append(args, filter.Action)
		conditions = append(conditions, fmt.Sprintf("action = $%d", len(args)))
	}
	if filter.RequestedBy != "" {
		args = append(args, filter.RequestedBy)
		conditions = append(conditions, fmt.Sprintf("requested_by = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var approvals []models.ApprovalRequest
	if err := r.db.SelectContext(ctx, &approvals, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list approval requests: %w", err)
	}
	return approvals, nil
}

// CountPending reports how many requests still await review.
func (r *ApprovalRepository) CountPending(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM approval_requests WHERE status = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, models.ApprovalStatusPending); err != nil {
		return 0, fmt.Errorf("count pending approvals: %w", err)
	}
	return count, nil
}

// DecisionParams groups mutable columns for review operations.
type DecisionParams struct {
	ID              string
	Status          models.ApprovalStatus
	ApprovedBy      string
	ApprovedAt      time.Time
	RejectionReason *string
	Note            *string
}

// RecordDecision persists the terminal review outcome. The status guard makes
// the transition single-shot: a request already decided yields sql.ErrNoRows.
func (r *ApprovalRepository) RecordDecision(ctx context.Context, params DecisionParams) error {
	setParts := []string{
		"status = :status",
		"approved_by = :approved_by",
		"approved_at = :approved_at",
	}
	if params.RejectionReason != nil {
		setParts = append(setParts, "rejection_reason = :rejection_reason")
	}
	if params.Note != nil {
		setParts = append(setParts, "note = :note")
	}
	query := fmt.Sprintf("UPDATE approval_requests SET %s WHERE id = :id AND status = '%s'",
		strings.Join(setParts, ", "),
		models.ApprovalStatusPending,
	)
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":               params.ID,
		"status":           params.Status,
		"approved_by":      params.ApprovedBy,
		"approved_at":      params.ApprovedAt,
		"rejection_reason": params.RejectionReason,
		"note":             params.Note,
	})
	if err != nil {
		return fmt.Errorf("record approval decision: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check approval decision rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
