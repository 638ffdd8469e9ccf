package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/tripwise-in/tripwise-api/internal/dto"
	"github.com/tripwise-in/tripwise-api/internal/models"
	"github.com/tripwise-in/tripwise-api/internal/repository"
	appErrors "github.com/tripwise-in/tripwise-api/pkg/errors"
)

const dashboardCacheKey = "dashboard:summary"

type analyticsStore interface {
	CatalogSummary(ctx context.Context) (*repository.CatalogCounters, error)
	BookingSummary(ctx context.Context) (*repository.BookingCounters, error)
	RecentBookings(ctx context.Context, limit int) ([]models.Booking, error)
}

type pendingApprovalCounter interface {
	CountPending(ctx context.Context) (int, error)
}

type summaryCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// DashboardService composes the admin landing view counters. Summaries are
// cached in Redis for a short TTL because the aggregate queries fan out
// across several tables.
type DashboardService struct {
	analytics analyticsStore
	approvals pendingApprovalCounter
	cache     summaryCache
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(analytics analyticsStore, approvals pendingApprovalCounter, cache summaryCache, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &DashboardService{
		analytics: analytics,
		approvals: approvals,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// Summary returns the dashboard counters, served from cache when fresh.
func (s *DashboardService) Summary(ctx context.Context) (*dto.DashboardSummary, error) {
	if s.cache != nil {
		var cached dto.DashboardSummary
		err := s.cache.Get(ctx, dashboardCacheKey, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	catalog, err := s.analytics.CatalogSummary(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load catalog summary")
	}
	bookings, err := s.analytics.BookingSummary(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking summary")
	}
	recent, err := s.analytics.RecentBookings(ctx, 5)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent bookings")
	}
	if recent == nil {
		recent = []models.Booking{}
	}

	pendingApprovals := 0
	if s.approvals != nil {
		pendingApprovals, err = s.approvals.CountPending(ctx)
		if err != nil {
			s.logger.Warn("failed to count pending approvals", zap.Error(err))
			pendingApprovals = 0
		}
	}

	summary := &dto.DashboardSummary{
		TotalPackages:     catalog.TotalPackages,
		ActivePackages:    catalog.ActivePackages,
		TotalStates:       catalog.TotalStates,
		TotalCities:       catalog.TotalCities,
		TotalBookings:     bookings.Total,
		PendingBookings:   bookings.Pending,
		ConfirmedBookings: bookings.Confirmed,
		ConfirmedRevenue:  bookings.Revenue,
		PendingApprovals:  pendingApprovals,
		RecentBookings:    recent,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardCacheKey, summary, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return summary, nil
}

// InvalidateCache drops the cached summary.
func (s *DashboardService) InvalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, dashboardCacheKey); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}
