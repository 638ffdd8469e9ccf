package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tripwise-in/tripwise-api/internal/models"
)

// AnalyticsRepository runs the aggregate queries behind the admin dashboard.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository constructs the repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// CatalogCounters aggregates catalog row counts.
type CatalogCounters struct {
	TotalPackages  int `db:"total_packages"`
	ActivePackages int `db:"active_packages"`
	TotalStates    int `db:"total_states"`
	TotalCities    int `db:"total_cities"`
}

// BookingCounters aggregates booking counts and confirmed revenue.
type BookingCounters struct {
	Total     int     `db:"total"`
	Pending   int     `db:"pending"`
	Confirmed int     `db:"confirmed"`
	Revenue   float64 `db:"revenue"`
}

// CatalogSummary returns catalog counters in a single round trip.
func (r *AnalyticsRepository) CatalogSummary(ctx context.Context) (*CatalogCounters, error) {
	const query = `SELECT
	(SELECT COUNT(*) FROM packages) AS total_packages,
	(SELECT COUNT(*) FROM packages WHERE active = true) AS active_packages,
	(SELECT COUNT(*) FROM states) AS total_states,
	(SELECT COUNT(*) FROM cities) AS total_cities`
	var counters CatalogCounters
	if err := r.db.GetContext(ctx, &counters, query); err != nil {
		return nil, fmt.Errorf("catalog summary: %w", err)
	}
	return &counters, nil
}

// BookingSummary returns booking counters and confirmed revenue.
func (r *AnalyticsRepository) BookingSummary(ctx context.Context) (*BookingCounters, error) {
	const query = `SELECT
	COUNT(*) AS total,
	COUNT(*) FILTER (WHERE status = 'PENDING') AS pending,
	COUNT(*) FILTER (WHERE status = 'CONFIRMED') AS confirmed,
	COALESCE(SUM(total_price) FILTER (WHERE status = 'CONFIRMED'), 0) AS revenue
	FROM bookings`
	var counters BookingCounters
	if err := r.db.GetContext(ctx, &counters, query); err != nil {
		return nil, fmt.Errorf("booking summary: %w", err)
	}
	return &counters, nil
}

// RecentBookings returns the latest bookings for the dashboard feed.
func (r *AnalyticsRepository) RecentBookings(ctx context.Context, limit int) ([]models.Booking, error) {
	if limit <= 0 || limit > 20 {
		limit = 5
	}
	query := fmt.Sprintf("SELECT %s FROM bookings ORDER BY created_at DESC LIMIT %d", bookingColumns, limit)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query); err != nil {
		return nil, fmt.Errorf("recent bookings: %w", err)
	}
	return bookings, nil
}
