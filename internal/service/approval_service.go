package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tripwise-in/tripwise-api/internal/dto"
	"github.com/tripwise-in/tripwise-api/internal/models"
	"github.com/tripwise-in/tripwise-api/internal/repository"
	appErrors "github.com/tripwise-in/tripwise-api/pkg/errors"
)

type approvalStore interface {
	Create(ctx context.Context, approval *models.ApprovalRequest) error
	GetByID(ctx context.Context, id string) (*models.ApprovalRequest, error)
	List(ctx context.Context, filter models.ApprovalFilter) ([]models.ApprovalRequest, error)
	CountPending(ctx context.Context) (int, error)
	RecordDecision(ctx context.Context, params repository.DecisionParams) error
}

// ApprovalApplier executes an approved mutation against its target entity.
type ApprovalApplier interface {
	Apply(ctx context.Context, approval *models.ApprovalRequest) error
}

// ApprovalApplierFunc adapts a function to the ApprovalApplier interface.
type ApprovalApplierFunc func(ctx context.Context, approval *models.ApprovalRequest) error

// Apply calls the underlying function.
func (f ApprovalApplierFunc) Apply(ctx context.Context, approval *models.ApprovalRequest) error {
	return f(ctx, approval)
}

// ApprovalService runs the superadmin review workflow for gated catalog
// mutations. Admin writes are parked as pending requests; a superadmin
// decision either applies the stored payload or rejects it with a reason.
type ApprovalService struct {
	repo      approvalStore
	appliers  map[models.ApprovalEntity]ApprovalApplier
	audit     auditLogger
	dashboard dashboardInvalidator
	logger    *zap.Logger
}

// NewApprovalService constructs an ApprovalService.
func NewApprovalService(repo approvalStore, appliers map[models.ApprovalEntity]ApprovalApplier, audit auditLogger, logger *zap.Logger) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if appliers == nil {
		appliers = map[models.ApprovalEntity]ApprovalApplier{}
	}
	return &ApprovalService{repo: repo, appliers: appliers, audit: audit, logger: logger}
}

// SetDashboard attaches the dashboard cache so workflow writes refresh its
// pending counter.
func (s *ApprovalService) SetDashboard(dashboard dashboardInvalidator) {
	s.dashboard = dashboard
}

// Submit parks a gated mutation as a pending approval request.
func (s *ApprovalService) Submit(ctx context.Context, action models.ApprovalAction, entity models.ApprovalEntity, entityID string, payload json.RawMessage, actor *models.JWTClaims) (*models.ApprovalRequest, error) {
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication context")
	}
	if _, ok := s.appliers[entity]; !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported entity %q", entity))
	}
	switch action {
	case models.ApprovalActionCreate:
	case models.ApprovalActionUpdate, models.ApprovalActionDelete:
		if entityID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "entity id is required for update and delete requests")
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported action %q", action))
	}
	if action != models.ApprovalActionDelete {
		if len(payload) == 0 || !json.Valid(payload) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "payload must be a valid JSON document")
		}
	}
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}

	approval := &models.ApprovalRequest{
		Action:      action,
		Entity:      entity,
		EntityID:    entityID,
		Payload:     payload,
		Status:      models.ApprovalStatusPending,
		RequestedBy: actor.UserID,
	}
	if err := s.repo.Create(ctx, approval); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store approval request")
	}

	if s.dashboard != nil {
		s.dashboard.InvalidateCache(ctx)
	}
	s.emitAudit(ctx, actor, models.AuditActionApprovalCreate, approval, nil)
	s.logger.Info("approval request submitted",
		zap.String("approval_id", approval.ID),
		zap.String("type", approval.ActionType()),
		zap.String("requested_by", actor.UserID))
	return approval, nil
}

// ListAll returns approval requests across all requesters. Superadmin only.
func (s *ApprovalService) ListAll(ctx context.Context, query dto.ApprovalQuery, limit, offset int, actor *models.JWTClaims) ([]models.ApprovalRequest, error) {
	if actor == nil || !actor.IsSuperadmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "superadmin role required")
	}
	return s.list(ctx, models.ApprovalFilter{
		Status: query.Status,
		Entity: query.Entity,
		Action: query.Action,
		Limit:  limit,
		Offset: offset,
	})
}

// ListMine returns approval requests submitted by the calling admin.
func (s *ApprovalService) ListMine(ctx context.Context, query dto.ApprovalQuery, limit, offset int, actor *models.JWTClaims) ([]models.ApprovalRequest, error) {
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication context")
	}
	return s.list(ctx, models.ApprovalFilter{
		Status:      query.Status,
		Entity:      query.Entity,
		Action:      query.Action,
		RequestedBy: actor.UserID,
		Limit:       limit,
		Offset:      offset,
	})
}

// Get returns a single approval request. Non-superadmins may only read
// their own submissions.
func (s *ApprovalService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.ApprovalRequest, error) {
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication context")
	}
	approval, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsSuperadmin() && approval.RequestedBy != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to read this approval request")
	}
	return approval, nil
}

// CountPending returns the number of requests awaiting review.
func (s *ApprovalService) CountPending(ctx context.Context) (int, error) {
	count, err := s.repo.CountPending(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending approvals")
	}
	return count, nil
}

// Approve applies the stored mutation and marks the request approved. The
// mutation runs first; the status flips only after it succeeds, so a crash
// in between leaves the request pending rather than silently dropped.
func (s *ApprovalService) Approve(ctx context.Context, id string, req dto.ApproveRequest, actor *models.JWTClaims) (*models.ApprovalRequest, error) {
	if actor == nil || !actor.IsSuperadmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "superadmin role required")
	}

	approval, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if approval.Status != models.ApprovalStatusPending {
		return nil, appErrors.Clone(appErrors.ErrAlreadyProcessed, fmt.Sprintf("request already %s", strings.ToLower(string(approval.Status))))
	}

	applier, ok := s.appliers[approval.Entity]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInternal, fmt.Sprintf("no applier registered for entity %q", approval.Entity))
	}

	if err := applier.Apply(ctx, approval); err != nil {
		s.logger.Error("approval apply failed",
			zap.String("approval_id", approval.ID),
			zap.String("type", approval.ActionType()),
			zap.Error(err))
		return nil, err
	}

	now := time.Now().UTC()
	params := repository.DecisionParams{
		ID:         approval.ID,
		Status:     models.ApprovalStatusApproved,
		ApprovedBy: actor.UserID,
		ApprovedAt: now,
	}
	if req.Note != "" {
		params.Note = &req.Note
	}
	if err := s.repo.RecordDecision(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyProcessed, "request was decided concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record approval")
	}

	approval.Status = models.ApprovalStatusApproved
	approval.ApprovedBy = &actor.UserID
	approval.ApprovedAt = &now
	approval.Note = params.Note

	if s.dashboard != nil {
		s.dashboard.InvalidateCache(ctx)
	}
	s.emitAudit(ctx, actor, models.AuditActionApprovalReview, approval, params.Note)
	s.logger.Info("approval request approved",
		zap.String("approval_id", approval.ID),
		zap.String("type", approval.ActionType()),
		zap.String("approved_by", actor.UserID))
	return approval, nil
}

// Reject marks the request rejected without touching the target entity. A
// non-empty reason is mandatory.
func (s *ApprovalService) Reject(ctx context.Context, id string, req dto.RejectRequest, actor *models.JWTClaims) (*models.ApprovalRequest, error) {
	if actor == nil || !actor.IsSuperadmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "superadmin role required")
	}
	if strings.TrimSpace(req.RejectionReason) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection reason is required")
	}

	approval, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if approval.Status != models.ApprovalStatusPending {
		return nil, appErrors.Clone(appErrors.ErrAlreadyProcessed, fmt.Sprintf("request already %s", strings.ToLower(string(approval.Status))))
	}

	now := time.Now().UTC()
	params := repository.DecisionParams{
		ID:              approval.ID,
		Status:          models.ApprovalStatusRejected,
		ApprovedBy:      actor.UserID,
		ApprovedAt:      now,
		RejectionReason: &req.RejectionReason,
	}
	if req.Note != "" {
		params.Note = &req.Note
	}
	if err := s.repo.RecordDecision(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyProcessed, "request was decided concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record rejection")
	}

	approval.Status = models.ApprovalStatusRejected
	approval.ApprovedBy = &actor.UserID
	approval.ApprovedAt = &now
	approval.RejectionReason = &req.RejectionReason
	approval.Note = params.Note

	if s.dashboard != nil {
		s.dashboard.InvalidateCache(ctx)
	}
	s.emitAudit(ctx, actor, models.AuditActionApprovalReview, approval, &req.RejectionReason)
	s.logger.Info("approval request rejected",
		zap.String("approval_id", approval.ID),
		zap.String("type", approval.ActionType()),
		zap.String("rejected_by", actor.UserID))
	return approval, nil
}

func (s *ApprovalService) list(ctx context.Context, filter models.ApprovalFilter) ([]models.ApprovalRequest, error) {
	approvals, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list approval requests")
	}
	if approvals == nil {
		approvals = []models.ApprovalRequest{}
	}
	return approvals, nil
}

func (s *ApprovalService) load(ctx context.Context, id string) (*models.ApprovalRequest, error) {
	approval, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "approval request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approval request")
	}
	return approval, nil
}

func (s *ApprovalService) emitAudit(ctx context.Context, actor *models.JWTClaims, action string, approval *models.ApprovalRequest, detail *string) {
	if s.audit == nil {
		return
	}
	payload := map[string]interface{}{
		"type":   approval.ActionType(),
		"status": approval.Status,
	}
	if detail != nil {
		payload["detail"] = *detail
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = []byte(`{}`)
	}
	log := &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     action,
		Resource:   "approval_request",
		ResourceID: &approval.ID,
		NewValues:  raw,
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
