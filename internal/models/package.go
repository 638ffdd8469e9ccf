package models

import "time"

// TourPackage is a bookable tour offering in the catalog.
type TourPackage struct {
	ID            string     `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	Slug          string     `db:"slug" json:"slug"`
	Description   string     `db:"description" json:"description"`
	StateID       *string    `db:"state_id" json:"state_id,omitempty"`
	CityID        *string    `db:"city_id" json:"city_id,omitempty"`
	DurationDays  int        `db:"duration_days" json:"duration_days"`
	Price         float64    `db:"price" json:"price"`
	DiscountPrice *float64   `db:"discount_price" json:"discount_price,omitempty"`
	DiscountFrom  *time.Time `db:"discount_from" json:"discount_from,omitempty"`
	DiscountUntil *time.Time `db:"discount_until" json:"discount_until,omitempty"`
	ImageURL      string     `db:"image_url" json:"image_url"`
	Featured      bool       `db:"featured" json:"featured"`
	Active        bool       `db:"active" json:"active"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// EffectivePrice returns the price applicable at the given instant. The
// discount applies only when a discount price is set and the instant falls
// inside the configured window (an unset bound is open-ended).
func (p *TourPackage) EffectivePrice(now time.Time) float64 {
	if p.DiscountPrice == nil || *p.DiscountPrice <= 0 || *p.DiscountPrice >= p.Price {
		return p.Price
	}
	if p.DiscountFrom != nil && now.Before(*p.DiscountFrom) {
		return p.Price
	}
	if p.DiscountUntil != nil && now.After(*p.DiscountUntil) {
		return p.Price
	}
	return *p.DiscountPrice
}

// PackageFilter constrains catalog listing queries.
type PackageFilter struct {
	StateID  string
	CityID   string
	Featured *bool
	Active   *bool
	Search   string
	Limit    int
	Offset   int
}
