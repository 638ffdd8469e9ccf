package models

import "time"

// BookingStatus captures the lifecycle of a customer booking.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// Booking is a customer's reservation against a tour package. The unit price
// is locked at booking time from the package's effective price.
type Booking struct {
	ID            string        `db:"id" json:"id"`
	Reference     string        `db:"reference" json:"reference"`
	PackageID     string        `db:"package_id" json:"package_id"`
	PackageName   string        `db:"package_name" json:"package_name"`
	CustomerName  string        `db:"customer_name" json:"customer_name"`
	CustomerEmail string        `db:"customer_email" json:"customer_email"`
	CustomerPhone string        `db:"customer_phone" json:"customer_phone"`
	TravelDate    time.Time     `db:"travel_date" json:"travel_date"`
	Travellers    int           `db:"travellers" json:"travellers"`
	UnitPrice     float64       `db:"unit_price" json:"unit_price"`
	TotalPrice    float64       `db:"total_price" json:"total_price"`
	Status        BookingStatus `db:"status" json:"status"`
	Notes         string        `db:"notes" json:"notes"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// BookingFilter constrains admin booking listings.
type BookingFilter struct {
	Status    []BookingStatus
	PackageID string
	FromDate  *time.Time
	ToDate    *time.Time
	Limit     int
	Offset    int
}
