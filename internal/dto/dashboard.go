package dto

import "github.com/tripwise-in/tripwise-api/internal/models"

// DashboardSummary aggregates back-office counters for the admin landing view.
type DashboardSummary struct {
	TotalPackages     int              `json:"total_packages"`
	ActivePackages    int              `json:"active_packages"`
	TotalStates       int              `json:"total_states"`
	TotalCities       int              `json:"total_cities"`
	TotalBookings     int              `json:"total_bookings"`
	PendingBookings   int              `json:"pending_bookings"`
	ConfirmedBookings int              `json:"confirmed_bookings"`
	ConfirmedRevenue  float64          `json:"confirmed_revenue"`
	PendingApprovals  int              `json:"pending_approvals"`
	RecentBookings    []models.Booking `json:"recent_bookings"`
}
