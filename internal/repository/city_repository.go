package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tripwise-in/tripwise-api/internal/models"
)

// CityRepository persists destination cities.
type CityRepository struct {
	db *sqlx.DB
}

// NewCityRepository constructs the repository.
func NewCityRepository(db *sqlx.DB) *CityRepository {
	return &CityRepository{db: db}
}

// Create inserts a new city row.
func (r *CityRepository) Create(ctx context.Context, city *models.City) error {
	if city.ID == "" {
		city.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if city.CreatedAt.IsZero() {
		city.CreatedAt = now
	}
	city.UpdatedAt = now
	const query = `INSERT INTO cities (id, state_id, name, slug, description, image_url, active, created_at, updated_at)
	VALUES (:id, :state_id, :name, :slug, :description, :image_url, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, city); err != nil {
		return fmt.Errorf("create city: %w", err)
	}
	return nil
}

// FindByID fetches a city by identifier.
func (r *CityRepository) FindByID(ctx context.Context, id string) (*models.City, error) {
	const query = `SELECT id, state_id, name, slug, description, image_url, active, created_at, updated_at
	FROM cities WHERE id = $1`
	var city models.City
	if err := r.db.GetContext(ctx, &city, query, id); err != nil {
		return nil, err
	}
	return &city, nil
}

// List returns cities, optionally scoped to a state, ordered by name.
func (r *CityRepository) List(ctx context.Context, stateID string, activeOnly bool) ([]models.City, error) {
	query := `SELECT id, state_id, name, slug, description, image_url, active, created_at, updated_at FROM cities`
	conditions := make([]string, 0, 2)
	args := make([]interface{}, 0, 1)
	if stateID != "" {
		args = append(args, stateID)
		conditions = append(conditions, fmt.Sprintf("state_id = $%d", len(args)))
	}
	if activeOnly {
		conditions = append(conditions, "active = true")
	}
	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY name ASC"
	var cities []models.City
	if err := r.db.SelectContext(ctx, &cities, query, args...); err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	return cities, nil
}

// Update rewrites mutable columns of an existing city.
func (r *CityRepository) Update(ctx context.Context, city *models.City) error {
	city.UpdatedAt = time.Now().UTC()
	const query = `UPDATE cities SET state_id = :state_id, name = :name, slug = :slug,
	description = :description, image_url = :image_url, active = :active, updated_at = :updated_at
	WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, city); err != nil {
		return fmt.Errorf("update city: %w", err)
	}
	return nil
}

// Delete removes a city row.
func (r *CityRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM cities WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete city: %w", err)
	}
	return nil
}
