package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/tripwise-in/tripwise-api/internal/models"
)

func newApprovalRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestApprovalRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newApprovalRepoMock(t)
	defer cleanup()

	repo := NewApprovalRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO approval_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	approval := &models.ApprovalRequest{
		Action:      models.ApprovalActionCreate,
		Entity:      models.ApprovalEntityPackage,
		Payload:     json.RawMessage(`{"name":"Goa Trip"}`),
		RequestedBy: "admin-1",
	}
	require.NoError(t, repo.Create(context.Background(), approval))
	require.NotEmpty(t, approval.ID)
	require.Equal(t, models.ApprovalStatusPending, approval.Status)
	require.False(t, approval.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newApprovalRepoMock(t)
	defer cleanup()

	repo := NewApprovalRepository(db)
	rows := sqlmock.NewRows([]string{"id", "action", "entity", "entity_id", "payload", "status", "requested_by", "approved_by", "approved_at", "rejection_reason", "note", "created_at"}).
		AddRow("apr-1", "UPDATE", "PACKAGE", "pkg-1", []byte(`{}`), "PENDING", "admin-1", nil, nil, nil, nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, action, entity, entity_id, payload, status, requested_by")).
		WithArgs(models.ApprovalStatusPending, models.ApprovalEntityPackage, "admin-1").
		WillReturnRows(rows)

	approvals, err := repo.List(context.Background(), models.ApprovalFilter{
		Status:      []models.ApprovalStatus{models.ApprovalStatusPending},
		Entity:      models.ApprovalEntityPackage,
		RequestedBy: "admin-1",
	})
	require.NoError(t, err)
	require.Len(t, approvals, 1)
	require.Equal(t, "apr-1", approvals[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalRepositoryCountPending(t *testing.T) {
	db, mock, cleanup := newApprovalRepoMock(t)
	defer cleanup()

	repo := NewApprovalRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM approval_requests WHERE status =")).
		WithArgs(models.ApprovalStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountPending(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalRepositoryRecordDecision(t *testing.T) {
	db, mock, cleanup := newApprovalRepoMock(t)
	defer cleanup()

	repo := NewApprovalRepository(db)
	mock.ExpectExec("UPDATE approval_requests SET").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.RecordDecision(context.Background(), DecisionParams{
		ID:         "apr-1",
		Status:     models.ApprovalStatusApproved,
		ApprovedBy: "super-1",
		ApprovedAt: time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalRepositoryRecordDecisionAlreadyProcessed(t *testing.T) {
	db, mock, cleanup := newApprovalRepoMock(t)
	defer cleanup()

	repo := NewApprovalRepository(db)
	// Status guard matches no rows once the request is no longer pending.
	mock.ExpectExec("UPDATE approval_requests SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RecordDecision(context.Background(), DecisionParams{
		ID:         "apr-1",
		Status:     models.ApprovalStatusRejected,
		ApprovedBy: "super-1",
		ApprovedAt: time.Now(),
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
