package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tripwise-in/tripwise-api/internal/dto"
	"github.com/tripwise-in/tripwise-api/internal/models"
	appErrors "github.com/tripwise-in/tripwise-api/pkg/errors"
	"github.com/tripwise-in/tripwise-api/pkg/export"
	"github.com/tripwise-in/tripwise-api/pkg/jobs"
)

type reportStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	MarkReady(ctx context.Context, id, filePath string, completedAt time.Time) error
	MarkFailed(ctx context.Context, id, message string, completedAt time.Time) error
}

type reportBookingStore interface {
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
}

type reportPackageStore interface {
	List(ctx context.Context, filter models.PackageFilter) ([]models.TourPackage, error)
}

type reportStorage interface {
	Save(filename string, data []byte) (string, error)
}

type reportSigner interface {
	Generate(jobID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// ReportService queues and generates back-office exports. Generation runs on
// a worker pool; requesters poll the job until it is READY, then fetch the
// file through a signed download link.
type ReportService struct {
	repo     reportStore
	bookings reportBookingStore
	packages reportPackageStore
	storage  reportStorage
	signer   reportSigner
	queue    jobEnqueuer
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewReportService constructs a ReportService. Wire the returned service's
// Process method as the queue handler before starting the queue.
func NewReportService(repo reportStore, bookings reportBookingStore, packages reportPackageStore, storage reportStorage, signer reportSigner, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		repo:     repo,
		bookings: bookings,
		packages: packages,
		storage:  storage,
		signer:   signer,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

// SetQueue attaches the worker queue used for async generation.
func (s *ReportService) SetQueue(queue jobEnqueuer) {
	s.queue = queue
}

// Request validates and queues a new export job.
func (s *ReportService) Request(ctx context.Context, req dto.CreateReportRequest, actor *models.JWTClaims) (*models.ReportJob, error) {
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication context")
	}
	switch req.Type {
	case models.ReportTypeBookingsCSV, models.ReportTypePackagesPDF:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report type %q", req.Type))
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "report queue is not running")
	}

	job := &models.ReportJob{
		ID:          uuid.NewString(),
		Type:        req.Type,
		Status:      models.ReportStatusPending,
		RequestedBy: actor.UserID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store report job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
		now := time.Now().UTC()
		if markErr := s.repo.MarkFailed(ctx, job.ID, "queue rejected job", now); markErr != nil {
			s.logger.Error("failed to mark rejected report job", zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue report job")
	}

	s.logger.Info("report job queued", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
	return job, nil
}

// Get returns a job's state plus a signed download link when it is ready.
// Requesters may only read their own jobs; superadmins read any.
func (s *ReportService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*dto.ReportResponse, error) {
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication context")
	}
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	if !actor.IsSuperadmin() && job.RequestedBy != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to read this report job")
	}

	resp := &dto.ReportResponse{Job: job}
	if job.Status == models.ReportStatusReady && job.FilePath != nil && s.signer != nil {
		token, expiresAt, err := s.signer.Generate(job.ID, *job.FilePath)
		if err != nil {
			s.logger.Warn("failed to sign download link", zap.Error(err))
		} else {
			resp.DownloadURL = fmt.Sprintf("/api/v1/downloads/%s", token)
			resp.ExpiresAt = &expiresAt
		}
	}
	return resp, nil
}

// ResolveDownload validates a signed token and returns the stored file path.
func (s *ReportService) ResolveDownload(ctx context.Context, token string) (string, error) {
	if s.signer == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "download links are not configured")
	}
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	if job.Status != models.ReportStatusReady || job.FilePath == nil || *job.FilePath != relPath {
		return "", appErrors.Clone(appErrors.ErrNotFound, "report file is not available")
	}
	return relPath, nil
}

// Process is the queue handler generating a single export.
func (s *ReportService) Process(ctx context.Context, job jobs.Job) error {
	record, err := s.repo.GetByID(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("load report job %s: %w", job.ID, err)
	}
	if record.Status != models.ReportStatusPending {
		return nil
	}

	var (
		data     []byte
		filename string
	)
	switch record.Type {
	case models.ReportTypeBookingsCSV:
		data, err = s.renderBookingsCSV(ctx)
		filename = fmt.Sprintf("bookings-%s.csv", record.ID)
	case models.ReportTypePackagesPDF:
		data, err = s.renderPackagesPDF(ctx)
		filename = fmt.Sprintf("packages-%s.pdf", record.ID)
	default:
		err = fmt.Errorf("unsupported report type %q", record.Type)
	}

	now := time.Now().UTC()
	if err != nil {
		if markErr := s.repo.MarkFailed(ctx, record.ID, err.Error(), now); markErr != nil {
			s.logger.Error("failed to mark report job failed", zap.Error(markErr))
		}
		return err
	}

	relPath, err := s.storage.Save(filename, data)
	if err != nil {
		if markErr := s.repo.MarkFailed(ctx, record.ID, "failed to store report file", now); markErr != nil {
			s.logger.Error("failed to mark report job failed", zap.Error(markErr))
		}
		return fmt.Errorf("store report file: %w", err)
	}

	if err := s.repo.MarkReady(ctx, record.ID, relPath, now); err != nil {
		return fmt.Errorf("mark report ready: %w", err)
	}
	s.logger.Info("report job completed", zap.String("job_id", record.ID), zap.String("file", relPath))
	return nil
}

func (s *ReportService) renderBookingsCSV(ctx context.Context) ([]byte, error) {
	bookings, err := s.bookings.List(ctx, models.BookingFilter{Limit: 500})
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	data := export.Dataset{
		Headers: []string{"Reference", "Package", "Customer", "Email", "Travel Date", "Travellers", "Total", "Status"},
	}
	for _, b := range bookings {
		data.Rows = append(data.Rows, []string{
			b.Reference,
			b.PackageName,
			b.CustomerName,
			b.CustomerEmail,
			b.TravelDate.Format(TravelDateLayout),
			fmt.Sprintf("%d", b.Travellers),
			fmt.Sprintf("%.2f", b.TotalPrice),
			string(b.Status),
		})
	}
	return s.csv.Render(data)
}

func (s *ReportService) renderPackagesPDF(ctx context.Context) ([]byte, error) {
	packages, err := s.packages.List(ctx, models.PackageFilter{Limit: 200})
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	now := time.Now().UTC()
	data := export.Dataset{
		Headers: []string{"Name", "Duration", "Price", "Effective Price", "Featured", "Active"},
	}
	for i := range packages {
		p := &packages[i]
		data.Rows = append(data.Rows, []string{
			p.Name,
			fmt.Sprintf("%d days", p.DurationDays),
			fmt.Sprintf("%.2f", p.Price),
			fmt.Sprintf("%.2f", p.EffectivePrice(now)),
			fmt.Sprintf("%t", p.Featured),
			fmt.Sprintf("%t", p.Active),
		})
	}
	return s.pdf.Render(data, "Tour Package Catalog")
}
