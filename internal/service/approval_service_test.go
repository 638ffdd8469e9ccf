package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tripwise-in/tripwise-api/internal/dto"
	"github.com/tripwise-in/tripwise-api/internal/models"
	"github.com/tripwise-in/tripwise-api/internal/repository"
	appErrors "github.com/tripwise-in/tripwise-api/pkg/errors"
)

type approvalRepoStub struct {
	approvals map[string]*models.ApprovalRequest
	filter    models.ApprovalFilter
	decideErr error
}

func newApprovalRepoStub() *approvalRepoStub {
	return &approvalRepoStub{approvals: make(map[string]*models.ApprovalRequest)}
}

func (s *approvalRepoStub) Create(ctx context.Context, approval *models.ApprovalRequest) error {
	if approval.ID == "" {
		approval.ID = "approval-1"
	}
	s.approvals[approval.ID] = approval
	return nil
}

func (s *approvalRepoStub) GetByID(ctx context.Context, id string) (*models.ApprovalRequest, error) {
	if approval, ok := s.approvals[id]; ok {
		copy := *approval
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *approvalRepoStub) List(ctx context.Context, filter models.ApprovalFilter) ([]models.ApprovalRequest, error) {
	s.filter = filter
	result := make([]models.ApprovalRequest, 0, len(s.approvals))
	for _, approval := range s.approvals {
		if filter.RequestedBy != "" && approval.RequestedBy != filter.RequestedBy {
			continue
		}
		result = append(result, *approval)
	}
	return result, nil
}

func (s *approvalRepoStub) CountPending(ctx context.Context) (int, error) {
	count := 0
	for _, approval := range s.approvals {
		if approval.Status == models.ApprovalStatusPending {
			count++
		}
	}
	return count, nil
}

func (s *approvalRepoStub) RecordDecision(ctx context.Context, params repository.DecisionParams) error {
	if s.decideErr != nil {
		return s.decideErr
	}
	approval, ok := s.approvals[params.ID]
	if !ok || approval.Status != models.ApprovalStatusPending {
		return sql.ErrNoRows
	}
	approval.Status = params.Status
	approval.ApprovedBy = &params.ApprovedBy
	approval.ApprovedAt = &params.ApprovedAt
	approval.RejectionReason = params.RejectionReason
	approval.Note = params.Note
	return nil
}

type auditStub struct {
	logs []*models.AuditLog
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type applierStub struct {
	applied []*models.ApprovalRequest
	err     error
}

func (a *applierStub) Apply(ctx context.Context, approval *models.ApprovalRequest) error {
	if a.err != nil {
		return a.err
	}
	a.applied = append(a.applied, approval)
	return nil
}

func adminClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleAdmin}
}

func superadminClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleSuperadmin}
}

func newApprovalServiceForTest(repo *approvalRepoStub, applier ApprovalApplier) (*ApprovalService, *auditStub) {
	audit := &auditStub{}
	appliers := map[models.ApprovalEntity]ApprovalApplier{
		models.ApprovalEntityPackage: applier,
	}
	return NewApprovalService(repo, appliers, audit, nil), audit
}

func TestApprovalSubmitCreatesPendingRequest(t *testing.T) {
	repo := newApprovalRepoStub()
	svc, audit := newApprovalServiceForTest(repo, &applierStub{})

	payload := json.RawMessage(`{"name":"Goa Getaway","duration_days":4,"price":12000}`)
	approval, err := svc.Submit(context.Background(), models.ApprovalActionCreate, models.ApprovalEntityPackage, "", payload, adminClaims("admin-1"))
	require.NoError(t, err)
	require.Equal(t, models.ApprovalStatusPending, approval.Status)
	require.Equal(t, "admin-1", approval.RequestedBy)
	require.Equal(t, "create_package", approval.ActionType())
	require.Len(t, audit.logs, 1)
	require.Equal(t, models.AuditActionApprovalCreate, audit.logs[0].Action)
}

func TestApprovalLifecycleRefreshesDashboard(t *testing.T) {
	repo := newApprovalRepoStub()
	svc, _ := newApprovalServiceForTest(repo, &applierStub{})
	dash := &dashboardStub{}
	svc.SetDashboard(dash)

	payload := json.RawMessage(`{"name":"Munnar Hills","duration_days":3,"price":8000}`)
	approval, err := svc.Submit(context.Background(), models.ApprovalActionCreate, models.ApprovalEntityPackage, "", payload, adminClaims("admin-1"))
	require.NoError(t, err)
	require.Equal(t, 1, dash.invalidations, "submitting moves the pending counter")

	_, err = svc.Approve(context.Background(), approval.ID, dto.ApproveRequest{}, superadminClaims("super-1"))
	require.NoError(t, err)
	require.Equal(t, 2, dash.invalidations, "deciding moves the pending counter")
}

func TestApprovalSubmitRejectsUnsupportedEntity(t *testing.T) {
	repo := newApprovalRepoStub()
	svc, _ := newApprovalServiceForTest(repo, &applierStub{})

	_, err := svc.Submit(context.Background(), models.ApprovalActionCreate, models.ApprovalEntity("article"), "", json.RawMessage(`{}`), adminClaims("admin-1"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestApprovalSubmitRequiresEntityIDForUpdate(t *testing.T) {
	repo := newApprovalRepoStub()
	svc, _ := newApprovalServiceForTest(repo, &applierStub{})

	_, err := svc.Submit(context.Background(), models.ApprovalActionUpdate, models.ApprovalEntityPackage, "", json.RawMessage(`{"price":1}`), adminClaims("admin-1"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestApprovalSubmitRejectsInvalidPayload(t *testing.T) {
	repo := newApprovalRepoStub()
	svc, _ := newApprovalServiceForTest(repo, &applierStub{})

	_, err := svc.Submit(context.Background(), models.ApprovalActionCreate, models.ApprovalEntityPackage, "", json.RawMessage(`{not json`), adminClaims("admin-1"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestApprovalApproveAppliesThenMarks(t *testing.T) {
	repo := newApprovalRepoStub()
	applier := &applierStub{}
	svc, audit := newApprovalServiceForTest(repo, applier)

	submitted, err := svc.Submit(context.Background(), models.ApprovalActionCreate, models.ApprovalEntityPackage, "", json.RawMessage(`{"name":"x"}`), adminClaims("admin-1"))
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), submitted.ID, dto.ApproveRequest{Note: "looks good"}, superadminClaims("super-1"))
	require.NoError(t, err)
	require.Equal(t, models.ApprovalStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	require.Equal(t, "super-1", *approved.ApprovedBy)
	require.NotNil(t, approved.Note)
	require.Equal(t, "looks good", *approved.Note)
	require.Len(t, applier.applied, 1)
	require.Len(t, audit.logs, 2)
}

func TestApprovalApproveRequiresSuperadmin(t *testing.T) {
	repo := newApprovalRepoStub()
	svc, _ := newApprovalServiceForTest(repo, &applierStub{})

	submitted, err := svc.Submit(context.Background(), models.ApprovalActionCreate, models.ApprovalEntityPackage, "", json.RawMessage(`{"name":"x"}`), adminClaims("admin-1"))
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), submitted.ID, dto.ApproveRequest{}, adminClaims("admin-1"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestApprovalApproveIsSingleShot(t *testing.T) {
	repo := newApprovalRepoStub()
	applier := &applierStub{}
	svc, _ := newApprovalServiceForTest(repo, applier)

	submitted, err := svc.Submit(context.Background(), models.ApprovalActionCreate, models.ApprovalEntityPackage, "", json.RawMessage(`{"name":"x"}`), adminClaims("admin-1"))
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), submitted.ID, dto.ApproveRequest{}, superadminClaims("super-1"))
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), submitted.ID, dto.ApproveRequest{}, superadminClaims("super-2"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrAlreadyProcessed.Code, appErrors.FromError(err).Code)
	require.Len(t, applier.applied, 1, "the mutation must run exactly once")
}

func TestApprovalApproveLeavesPendingWhenApplyFails(t *testing.T) {
	repo := newApprovalRepoStub()
	applier := &applierStub{err: errors.New("target row vanished")}
	svc, _ := newApprovalServiceForTest(repo, applier)

	submitted, err := svc.Submit(context.Background(), models.ApprovalActionCreate, models.ApprovalEntityPackage, "", json.RawMessage(`{"name":"x"}`), adminClaims("admin-1"))
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), submitted.ID, dto.ApproveRequest{}, superadminClaims("super-1"))
	require.Error(t, err)

	stored, err := svc.Get(context.Background(), submitted.ID, superadminClaims("super-1"))
	require.NoError(t, err)
	require.Equal(t, models.ApprovalStatusPending, stored.Status)
}

func TestApprovalApproveConcurrentDecision(t *testing.T) {
	repo := newApprovalRepoStub()
	svc, _ := newApprovalServiceForTest(repo, &applierStub{})

	submitted, err := svc.Submit(context.Background(), models.ApprovalActionCreate, models.ApprovalEntityPackage, "", json.RawMessage(`{"name":"x"}`), adminClaims("admin-1"))
	require.NoError(t, err)

	repo.decideErr = sql.ErrNoRows
	_, err = svc.Approve(context.Background(), submitted.ID, dto.ApproveRequest{}, superadminClaims("super-1"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrAlreadyProcessed.Code, appErrors.FromError(err).Code)
}

func TestApprovalRejectRequiresReason(t *testing.T) {
	repo := newApprovalRepoStub()
	svc, _ := newApprovalServiceForTest(repo, &applierStub{})

	submitted, err := svc.Submit(context.Background(), models.ApprovalActionCreate, models.ApprovalEntityPackage, "", json.RawMessage(`{"name":"x"}`), adminClaims("admin-1"))
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), submitted.ID, dto.RejectRequest{RejectionReason: "   "}, superadminClaims("super-1"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestApprovalRejectDoesNotTouchTarget(t *testing.T) {
	repo := newApprovalRepoStub()
	applier := &applierStub{}
	svc, _ := newApprovalServiceForTest(repo, applier)

	submitted, err := svc.Submit(context.Background(), models.ApprovalActionCreate, models.ApprovalEntityPackage, "", json.RawMessage(`{"name":"x"}`), adminClaims("admin-1"))
	require.NoError(t, err)

	rejected, err := svc.Reject(context.Background(), submitted.ID, dto.RejectRequest{RejectionReason: "duplicate of existing package"}, superadminClaims("super-1"))
	require.NoError(t, err)
	require.Equal(t, models.ApprovalStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	require.Empty(t, applier.applied)
}

func TestApprovalGetEnforcesOwnership(t *testing.T) {
	repo := newApprovalRepoStub()
	svc, _ := newApprovalServiceForTest(repo, &applierStub{})

	submitted, err := svc.Submit(context.Background(), models.ApprovalActionCreate, models.ApprovalEntityPackage, "", json.RawMessage(`{"name":"x"}`), adminClaims("admin-1"))
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), submitted.ID, adminClaims("admin-2"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Get(context.Background(), submitted.ID, adminClaims("admin-1"))
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), submitted.ID, superadminClaims("super-1"))
	require.NoError(t, err)
}

func TestApprovalListMineScopesToRequester(t *testing.T) {
	repo := newApprovalRepoStub()
	svc, _ := newApprovalServiceForTest(repo, &applierStub{})

	_, err := svc.Submit(context.Background(), models.ApprovalActionCreate, models.ApprovalEntityPackage, "", json.RawMessage(`{"name":"x"}`), adminClaims("admin-1"))
	require.NoError(t, err)

	_, err = svc.ListMine(context.Background(), dto.ApprovalQuery{}, 50, 0, adminClaims("admin-2"))
	require.NoError(t, err)
	require.Equal(t, "admin-2", repo.filter.RequestedBy)
}

func TestApprovalListAllRequiresSuperadmin(t *testing.T) {
	repo := newApprovalRepoStub()
	svc, _ := newApprovalServiceForTest(repo, &applierStub{})

	_, err := svc.ListAll(context.Background(), dto.ApprovalQuery{}, 50, 0, adminClaims("admin-1"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
