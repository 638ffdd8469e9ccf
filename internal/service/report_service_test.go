package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tripwise-in/tripwise-api/internal/dto"
	"github.com/tripwise-in/tripwise-api/internal/models"
	appErrors "github.com/tripwise-in/tripwise-api/pkg/errors"
	"github.com/tripwise-in/tripwise-api/pkg/jobs"
	"github.com/tripwise-in/tripwise-api/pkg/storage"
)

type reportRepoStub struct {
	jobs map[string]*models.ReportJob
}

func newReportRepoStub() *reportRepoStub {
	return &reportRepoStub{jobs: make(map[string]*models.ReportJob)}
}

func (s *reportRepoStub) Create(ctx context.Context, job *models.ReportJob) error {
	s.jobs[job.ID] = job
	return nil
}

func (s *reportRepoStub) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	if job, ok := s.jobs[id]; ok {
		copy := *job
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *reportRepoStub) MarkReady(ctx context.Context, id, filePath string, completedAt time.Time) error {
	job, ok := s.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	job.Status = models.ReportStatusReady
	job.FilePath = &filePath
	job.CompletedAt = &completedAt
	return nil
}

func (s *reportRepoStub) MarkFailed(ctx context.Context, id, message string, completedAt time.Time) error {
	job, ok := s.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	job.Status = models.ReportStatusFailed
	job.Error = &message
	job.CompletedAt = &completedAt
	return nil
}

type storageStub struct {
	saved map[string][]byte
	err   error
}

func newStorageStub() *storageStub {
	return &storageStub{saved: make(map[string][]byte)}
}

func (s *storageStub) Save(filename string, data []byte) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.saved[filename] = data
	return "reports/" + filename, nil
}

type queueStub struct {
	enqueued []jobs.Job
	err      error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.enqueued = append(q.enqueued, job)
	return nil
}

func newReportServiceForTest(repo *reportRepoStub, store *storageStub, queue *queueStub) *ReportService {
	bookings := newBookingRepoStub()
	bookings.bookings["booking-1"] = &models.Booking{
		ID:            "booking-1",
		Reference:     "TW-20260901-AB12CD",
		PackageName:   "Andaman Escape",
		CustomerName:  "Asha Rao",
		CustomerEmail: "asha@example.com",
		TravelDate:    time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC),
		Travellers:    3,
		TotalPrice:    27000,
		Status:        models.BookingStatusConfirmed,
	}
	packages := newPackageRepoStub()
	packages.packages["pkg-1"] = activePackage()

	signer := storage.NewSignedURLSigner("report-test-secret", time.Hour)
	svc := NewReportService(repo, bookings, packages, store, signer, nil)
	if queue != nil {
		svc.SetQueue(queue)
	}
	return svc
}

func TestReportRequestRejectsUnknownType(t *testing.T) {
	svc := newReportServiceForTest(newReportRepoStub(), newStorageStub(), &queueStub{})

	_, err := svc.Request(context.Background(), dto.CreateReportRequest{Type: "USERS_XLSX"}, adminClaims("admin-1"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReportRequestQueuesJob(t *testing.T) {
	repo := newReportRepoStub()
	queue := &queueStub{}
	svc := newReportServiceForTest(repo, newStorageStub(), queue)

	job, err := svc.Request(context.Background(), dto.CreateReportRequest{Type: models.ReportTypeBookingsCSV}, adminClaims("admin-1"))
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusPending, job.Status)
	require.Equal(t, "admin-1", job.RequestedBy)
	require.Len(t, queue.enqueued, 1)
	require.Equal(t, job.ID, queue.enqueued[0].ID)
}

func TestReportRequestMarksFailedWhenQueueRejects(t *testing.T) {
	repo := newReportRepoStub()
	queue := &queueStub{err: errors.New("queue full")}
	svc := newReportServiceForTest(repo, newStorageStub(), queue)

	_, err := svc.Request(context.Background(), dto.CreateReportRequest{Type: models.ReportTypeBookingsCSV}, adminClaims("admin-1"))
	require.Error(t, err)
	for _, job := range repo.jobs {
		require.Equal(t, models.ReportStatusFailed, job.Status)
	}
}

func TestReportProcessRendersBookingsCSV(t *testing.T) {
	repo := newReportRepoStub()
	store := newStorageStub()
	queue := &queueStub{}
	svc := newReportServiceForTest(repo, store, queue)

	job, err := svc.Request(context.Background(), dto.CreateReportRequest{Type: models.ReportTypeBookingsCSV}, adminClaims("admin-1"))
	require.NoError(t, err)

	require.NoError(t, svc.Process(context.Background(), jobs.Job{ID: job.ID, Type: string(job.Type)}))

	stored := repo.jobs[job.ID]
	require.Equal(t, models.ReportStatusReady, stored.Status)
	require.NotNil(t, stored.FilePath)

	data := store.saved["bookings-"+job.ID+".csv"]
	require.Contains(t, string(data), "Reference,Package,Customer")
	require.Contains(t, string(data), "TW-20260901-AB12CD,Andaman Escape,Asha Rao")
}

func TestReportProcessRendersPackagesPDF(t *testing.T) {
	repo := newReportRepoStub()
	store := newStorageStub()
	svc := newReportServiceForTest(repo, store, &queueStub{})

	job, err := svc.Request(context.Background(), dto.CreateReportRequest{Type: models.ReportTypePackagesPDF}, adminClaims("admin-1"))
	require.NoError(t, err)

	require.NoError(t, svc.Process(context.Background(), jobs.Job{ID: job.ID, Type: string(job.Type)}))

	data := store.saved["packages-"+job.ID+".pdf"]
	require.True(t, len(data) > 0)
	require.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestReportProcessStorageFailureMarksFailed(t *testing.T) {
	repo := newReportRepoStub()
	store := newStorageStub()
	store.err = errors.New("disk full")
	svc := newReportServiceForTest(repo, store, &queueStub{})

	job, err := svc.Request(context.Background(), dto.CreateReportRequest{Type: models.ReportTypeBookingsCSV}, adminClaims("admin-1"))
	require.NoError(t, err)

	require.Error(t, svc.Process(context.Background(), jobs.Job{ID: job.ID, Type: string(job.Type)}))
	require.Equal(t, models.ReportStatusFailed, repo.jobs[job.ID].Status)
	require.NotNil(t, repo.jobs[job.ID].Error)
}

func TestReportGetScopesToRequester(t *testing.T) {
	repo := newReportRepoStub()
	svc := newReportServiceForTest(repo, newStorageStub(), &queueStub{})

	job, err := svc.Request(context.Background(), dto.CreateReportRequest{Type: models.ReportTypeBookingsCSV}, adminClaims("admin-1"))
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), job.ID, adminClaims("admin-2"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	// Superadmins read any job.
	resp, err := svc.Get(context.Background(), job.ID, superadminClaims("super-1"))
	require.NoError(t, err)
	require.Empty(t, resp.DownloadURL, "pending jobs carry no download link")
}

func TestReportDownloadRoundTrip(t *testing.T) {
	repo := newReportRepoStub()
	store := newStorageStub()
	svc := newReportServiceForTest(repo, store, &queueStub{})

	job, err := svc.Request(context.Background(), dto.CreateReportRequest{Type: models.ReportTypeBookingsCSV}, adminClaims("admin-1"))
	require.NoError(t, err)
	require.NoError(t, svc.Process(context.Background(), jobs.Job{ID: job.ID, Type: string(job.Type)}))

	resp, err := svc.Get(context.Background(), job.ID, adminClaims("admin-1"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(resp.DownloadURL, "/api/v1/downloads/"))

	token := strings.TrimPrefix(resp.DownloadURL, "/api/v1/downloads/")
	relPath, err := svc.ResolveDownload(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, *repo.jobs[job.ID].FilePath, relPath)
}

func TestReportDownloadRejectsBadToken(t *testing.T) {
	svc := newReportServiceForTest(newReportRepoStub(), newStorageStub(), &queueStub{})

	_, err := svc.ResolveDownload(context.Background(), "not-a-token")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
