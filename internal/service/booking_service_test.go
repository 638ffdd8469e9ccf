package service

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tripwise-in/tripwise-api/internal/dto"
	"github.com/tripwise-in/tripwise-api/internal/models"
	appErrors "github.com/tripwise-in/tripwise-api/pkg/errors"
	"github.com/tripwise-in/tripwise-api/pkg/export"
)

type bookingRepoStub struct {
	bookings map[string]*models.Booking
}

func newBookingRepoStub() *bookingRepoStub {
	return &bookingRepoStub{bookings: make(map[string]*models.Booking)}
}

func (s *bookingRepoStub) Create(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = "booking-1"
	}
	s.bookings[booking.ID] = booking
	return nil
}

func (s *bookingRepoStub) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	if booking, ok := s.bookings[id]; ok {
		copy := *booking
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *bookingRepoStub) FindByReference(ctx context.Context, reference string) (*models.Booking, error) {
	for _, booking := range s.bookings {
		if booking.Reference == reference {
			copy := *booking
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *bookingRepoStub) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	result := make([]models.Booking, 0, len(s.bookings))
	for _, booking := range s.bookings {
		result = append(result, *booking)
	}
	return result, nil
}

func (s *bookingRepoStub) UpdateStatus(ctx context.Context, id string, status models.BookingStatus, updatedAt time.Time) error {
	booking, ok := s.bookings[id]
	if !ok {
		return sql.ErrNoRows
	}
	booking.Status = status
	booking.UpdatedAt = updatedAt
	return nil
}

type bookingPackageStub struct {
	pkg *models.TourPackage
}

func (s *bookingPackageStub) FindByID(ctx context.Context, id string) (*models.TourPackage, error) {
	if s.pkg == nil || s.pkg.ID != id {
		return nil, sql.ErrNoRows
	}
	copy := *s.pkg
	return &copy, nil
}

func newBookingServiceForTest(repo *bookingRepoStub, pkg *models.TourPackage) *BookingService {
	svc := NewBookingService(repo, &bookingPackageStub{pkg: pkg}, export.NewPDFExporter(), nil, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC) }
	return svc
}

func activePackage() *models.TourPackage {
	discount := 9000.0
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
	return &models.TourPackage{
		ID:            "pkg-1",
		Name:          "Andaman Escape",
		Price:         12000,
		DiscountPrice: &discount,
		DiscountFrom:  &from,
		DiscountUntil: &until,
		Active:        true,
	}
}

func validBookingRequest() dto.CreateBookingRequest {
	return dto.CreateBookingRequest{
		PackageID:     "pkg-1",
		CustomerName:  "Asha Rao",
		CustomerEmail: "asha@example.com",
		CustomerPhone: "+91-9000000000",
		TravelDate:    "2026-10-15",
		Travellers:    3,
	}
}

func TestBookingCreateLocksEffectivePrice(t *testing.T) {
	repo := newBookingRepoStub()
	svc := newBookingServiceForTest(repo, activePackage())

	booking, err := svc.Create(context.Background(), validBookingRequest())
	require.NoError(t, err)
	require.Equal(t, 9000.0, booking.UnitPrice, "discount applies inside the window")
	require.Equal(t, 27000.0, booking.TotalPrice)
	require.Equal(t, models.BookingStatusPending, booking.Status)
	require.NotEmpty(t, booking.Reference)
}

func TestBookingCreateLocksBasePriceOutsideWindow(t *testing.T) {
	repo := newBookingRepoStub()
	pkg := activePackage()
	until := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	pkg.DiscountUntil = &until
	svc := newBookingServiceForTest(repo, pkg)

	booking, err := svc.Create(context.Background(), validBookingRequest())
	require.NoError(t, err)
	require.Equal(t, 12000.0, booking.UnitPrice)
}

func TestBookingCreateRejectsPastTravelDate(t *testing.T) {
	repo := newBookingRepoStub()
	svc := newBookingServiceForTest(repo, activePackage())

	req := validBookingRequest()
	req.TravelDate = "2026-01-01"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBookingCreateRejectsInactivePackage(t *testing.T) {
	repo := newBookingRepoStub()
	pkg := activePackage()
	pkg.Active = false
	svc := newBookingServiceForTest(repo, pkg)

	_, err := svc.Create(context.Background(), validBookingRequest())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBookingStatusTransitions(t *testing.T) {
	repo := newBookingRepoStub()
	svc := newBookingServiceForTest(repo, activePackage())

	booking, err := svc.Create(context.Background(), validBookingRequest())
	require.NoError(t, err)

	confirmed, err := svc.UpdateStatus(context.Background(), booking.ID, models.BookingStatusConfirmed, superadminClaims("super-1"))
	require.NoError(t, err)
	require.Equal(t, models.BookingStatusConfirmed, confirmed.Status)

	// Confirmed cannot go back to pending.
	_, err = svc.UpdateStatus(context.Background(), booking.ID, models.BookingStatusPending, superadminClaims("super-1"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	cancelled, err := svc.UpdateStatus(context.Background(), booking.ID, models.BookingStatusCancelled, superadminClaims("super-1"))
	require.NoError(t, err)
	require.Equal(t, models.BookingStatusCancelled, cancelled.Status)

	// Cancelled is terminal.
	_, err = svc.UpdateStatus(context.Background(), booking.ID, models.BookingStatusConfirmed, superadminClaims("super-1"))
	require.Error(t, err)
}

type dashboardStub struct {
	invalidations int
}

func (d *dashboardStub) InvalidateCache(ctx context.Context) {
	d.invalidations++
}

func TestBookingWritesRefreshCaches(t *testing.T) {
	repo := newBookingRepoStub()
	svc := newBookingServiceForTest(repo, activePackage())
	views := &viewsStub{}
	dash := &dashboardStub{}
	svc.views = views
	svc.SetDashboard(dash)

	booking, err := svc.Create(context.Background(), validBookingRequest())
	require.NoError(t, err)
	require.Equal(t, 1, dash.invalidations)

	_, err = svc.UpdateStatus(context.Background(), booking.ID, models.BookingStatusConfirmed, superadminClaims("super-1"))
	require.NoError(t, err)
	require.Equal(t, 2, dash.invalidations)

	// Status changes must evict the cached public tracking view.
	require.Len(t, views.patterns, 2)
	pattern := regexp.MustCompile(views.patterns[len(views.patterns)-1])
	require.True(t, pattern.MatchString("/api/v1/track/"+booking.Reference))
}

func TestBookingVoucherRequiresConfirmed(t *testing.T) {
	repo := newBookingRepoStub()
	svc := newBookingServiceForTest(repo, activePackage())

	booking, err := svc.Create(context.Background(), validBookingRequest())
	require.NoError(t, err)

	_, err = svc.Voucher(context.Background(), booking.ID)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	_, err = svc.UpdateStatus(context.Background(), booking.ID, models.BookingStatusConfirmed, superadminClaims("super-1"))
	require.NoError(t, err)

	voucher, err := svc.Voucher(context.Background(), booking.ID)
	require.NoError(t, err)
	require.NotEmpty(t, voucher)
}
