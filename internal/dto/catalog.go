package dto

import "time"

// CreatePackageRequest payload for adding a tour package.
type CreatePackageRequest struct {
	Name          string   `json:"name" validate:"required"`
	Slug          string   `json:"slug"`
	Description   string   `json:"description"`
	StateID       *string  `json:"state_id"`
	CityID        *string  `json:"city_id"`
	DurationDays  int      `json:"duration_days" validate:"required,min=1"`
	Price         float64  `json:"price" validate:"required,gt=0"`
	DiscountPrice *float64 `json:"discount_price" validate:"omitempty,gt=0"`
	DiscountFrom  *string  `json:"discount_from"`
	DiscountUntil *string  `json:"discount_until"`
	ImageURL      string   `json:"image_url"`
	Featured      bool     `json:"featured"`
}

// UpdatePackageRequest carries partial package updates; nil fields are left
// untouched.
type UpdatePackageRequest struct {
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	StateID       *string  `json:"state_id"`
	CityID        *string  `json:"city_id"`
	DurationDays  *int     `json:"duration_days" validate:"omitempty,min=1"`
	Price         *float64 `json:"price" validate:"omitempty,gt=0"`
	DiscountPrice *float64 `json:"discount_price"`
	DiscountFrom  *string  `json:"discount_from"`
	DiscountUntil *string  `json:"discount_until"`
	ImageURL      *string  `json:"image_url"`
	Featured      *bool    `json:"featured"`
	Active        *bool    `json:"active"`
}

// CreateStateRequest payload for adding a destination state.
type CreateStateRequest struct {
	Name        string `json:"name" validate:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

// UpdateStateRequest carries partial state updates.
type UpdateStateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
	Active      *bool   `json:"active"`
}

// CreateCityRequest payload for adding a destination city.
type CreateCityRequest struct {
	StateID     string `json:"state_id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

// UpdateCityRequest carries partial city updates.
type UpdateCityRequest struct {
	StateID     *string `json:"state_id"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
	Active      *bool   `json:"active"`
}

// CreateArticleRequest payload for publishing content.
type CreateArticleRequest struct {
	Title     string `json:"title" validate:"required"`
	Slug      string `json:"slug"`
	Body      string `json:"body" validate:"required"`
	CoverURL  string `json:"cover_url"`
	Published bool   `json:"published"`
}

// UpdateArticleRequest carries partial article updates.
type UpdateArticleRequest struct {
	Title     *string `json:"title"`
	Body      *string `json:"body"`
	CoverURL  *string `json:"cover_url"`
	Published *bool   `json:"published"`
}

// DiscountDateLayout is the accepted format for discount window bounds.
const DiscountDateLayout = "2006-01-02"

// ParseDiscountDate parses an optional YYYY-MM-DD bound.
func ParseDiscountDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	ts, err := time.Parse(DiscountDateLayout, *raw)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}
