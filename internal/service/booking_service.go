package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tripwise-in/tripwise-api/internal/dto"
	"github.com/tripwise-in/tripwise-api/internal/models"
	appErrors "github.com/tripwise-in/tripwise-api/pkg/errors"
	"github.com/tripwise-in/tripwise-api/pkg/export"
)

type bookingStore interface {
	Create(ctx context.Context, booking *models.Booking) error
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	FindByReference(ctx context.Context, reference string) (*models.Booking, error)
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, id string, status models.BookingStatus, updatedAt time.Time) error
}

type bookingPackageStore interface {
	FindByID(ctx context.Context, id string) (*models.TourPackage, error)
}

type voucherRenderer interface {
	RenderVoucher(title string, fields []export.VoucherField) ([]byte, error)
}

// TravelDateLayout is the accepted format for booking travel dates.
const TravelDateLayout = "2006-01-02"

// BookingService handles customer bookings and their admin lifecycle.
type BookingService struct {
	repo      bookingStore
	packages  bookingPackageStore
	vouchers  voucherRenderer
	audit     auditLogger
	views     viewInvalidator
	dashboard dashboardInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewBookingService constructs a BookingService.
func NewBookingService(repo bookingStore, packages bookingPackageStore, vouchers voucherRenderer, audit auditLogger, views viewInvalidator, validate *validator.Validate, logger *zap.Logger) *BookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &BookingService{
		repo:      repo,
		packages:  packages,
		vouchers:  vouchers,
		audit:     audit,
		views:     views,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetDashboard attaches the dashboard cache so booking writes refresh its
// counters.
func (s *BookingService) SetDashboard(dashboard dashboardInvalidator) {
	s.dashboard = dashboard
}

// Create accepts a public booking submission. The unit price is locked from
// the package's effective price at submission time, so later discount
// changes never alter an existing booking.
func (s *BookingService) Create(ctx context.Context, req dto.CreateBookingRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}

	travelDate, err := time.Parse(TravelDateLayout, req.TravelDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "travel_date must be YYYY-MM-DD")
	}
	now := s.now()
	if travelDate.Before(now.Truncate(24 * time.Hour)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "travel date must not be in the past")
	}

	pkg, err := s.packages.FindByID(ctx, req.PackageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "package not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load package")
	}
	if !pkg.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "package is not open for booking")
	}

	unitPrice := pkg.EffectivePrice(now)
	booking := &models.Booking{
		Reference:     s.generateReference(now),
		PackageID:     pkg.ID,
		PackageName:   pkg.Name,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		TravelDate:    travelDate,
		Travellers:    req.Travellers,
		UnitPrice:     unitPrice,
		TotalPrice:    unitPrice * float64(req.Travellers),
		Status:        models.BookingStatusPending,
		Notes:         req.Notes,
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create booking")
	}

	if s.views != nil {
		s.views.InvalidateMatching(bookingViewsPattern)
	}
	if s.dashboard != nil {
		s.dashboard.InvalidateCache(ctx)
	}
	s.logger.Info("booking created",
		zap.String("booking_id", booking.ID),
		zap.String("reference", booking.Reference),
		zap.String("package_id", booking.PackageID),
		zap.Float64("total_price", booking.TotalPrice))
	return booking, nil
}

// Get returns a booking by identifier.
func (s *BookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}
	return booking, nil
}

// GetByReference returns a booking by its public reference.
func (s *BookingService) GetByReference(ctx context.Context, reference string) (*models.Booking, error) {
	booking, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}
	return booking, nil
}

// List returns bookings matching the filter.
func (s *BookingService) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	bookings, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}

// UpdateStatus transitions a booking. Cancelled is terminal; pending may
// move to confirmed or cancelled, confirmed only to cancelled.
func (s *BookingService) UpdateStatus(ctx context.Context, id string, status models.BookingStatus, actor *models.JWTClaims) (*models.Booking, error) {
	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !validBookingTransition(booking.Status, status) {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("cannot transition booking from %s to %s", booking.Status, status))
	}

	now := s.now()
	if err := s.repo.UpdateStatus(ctx, id, status, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update booking status")
	}
	previous := booking.Status
	booking.Status = status
	booking.UpdatedAt = now

	if s.views != nil {
		s.views.InvalidateMatching(bookingViewsPattern)
	}
	if s.dashboard != nil {
		s.dashboard.InvalidateCache(ctx)
	}
	if s.audit != nil && actor != nil {
		log := &models.AuditLog{
			UserID:     &actor.UserID,
			Action:     models.AuditActionBookingStatus,
			Resource:   "booking",
			ResourceID: &booking.ID,
			OldValues:  []byte(fmt.Sprintf(`{"status":%q}`, previous)),
			NewValues:  []byte(fmt.Sprintf(`{"status":%q}`, status)),
		}
		if err := s.audit.CreateAuditLog(ctx, log); err != nil {
			s.logger.Warn("failed to persist audit log", zap.Error(err))
		}
	}

	s.logger.Info("booking status updated",
		zap.String("booking_id", booking.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(status)))
	return booking, nil
}

// Voucher renders a PDF voucher for a confirmed booking.
func (s *BookingService) Voucher(ctx context.Context, id string) ([]byte, error) {
	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusConfirmed {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "voucher is only available for confirmed bookings")
	}
	if s.vouchers == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "voucher rendering is not configured")
	}

	fields := []export.VoucherField{
		{Label: "Reference", Value: booking.Reference},
		{Label: "Package", Value: booking.PackageName},
		{Label: "Customer", Value: booking.CustomerName},
		{Label: "Email", Value: booking.CustomerEmail},
		{Label: "Phone", Value: booking.CustomerPhone},
		{Label: "Travel Date", Value: booking.TravelDate.Format(TravelDateLayout)},
		{Label: "Travellers", Value: strconv.Itoa(booking.Travellers)},
		{Label: "Total", Value: fmt.Sprintf("%.2f", booking.TotalPrice)},
		{Label: "Status", Value: string(booking.Status)},
	}
	voucher, err := s.vouchers.RenderVoucher("Booking Voucher", fields)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render voucher")
	}
	return voucher, nil
}

func validBookingTransition(from, to models.BookingStatus) bool {
	switch from {
	case models.BookingStatusPending:
		return to == models.BookingStatusConfirmed || to == models.BookingStatusCancelled
	case models.BookingStatusConfirmed:
		return to == models.BookingStatusCancelled
	default:
		return false
	}
}

func (s *BookingService) generateReference(now time.Time) string {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("TW-%s-%d", now.Format("20060102"), now.UnixNano()%1000000)
	}
	return fmt.Sprintf("TW-%s-%X", now.Format("20060102"), buf)
}
