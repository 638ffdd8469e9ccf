package dto

import "github.com/tripwise-in/tripwise-api/internal/models"

// CreateBookingRequest is the public booking submission payload.
type CreateBookingRequest struct {
	PackageID     string `json:"package_id" validate:"required"`
	CustomerName  string `json:"customer_name" validate:"required"`
	CustomerEmail string `json:"customer_email" validate:"required,email"`
	CustomerPhone string `json:"customer_phone" validate:"required"`
	TravelDate    string `json:"travel_date" validate:"required"`
	Travellers    int    `json:"travellers" validate:"required,min=1"`
	Notes         string `json:"notes"`
}

// UpdateBookingStatusRequest transitions a booking between states.
type UpdateBookingStatusRequest struct {
	Status models.BookingStatus `json:"status" validate:"required"`
}

// BookingQuery mirrors supported admin listing filters.
type BookingQuery struct {
	Status    []models.BookingStatus
	PackageID string
}
