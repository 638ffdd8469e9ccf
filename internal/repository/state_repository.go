package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tripwise-in/tripwise-api/internal/models"
)

// StateRepository persists destination states.
type StateRepository struct {
	db *sqlx.DB
}

// NewStateRepository constructs the repository.
func NewStateRepository(db *sqlx.DB) *StateRepository {
	return &StateRepository{db: db}
}

// Create inserts a new state row.
func (r *StateRepository) Create(ctx context.Context, state *models.State) error {
	if state.ID == "" {
		state.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if state.CreatedAt.IsZero() {
		state.CreatedAt = now
	}
	state.UpdatedAt = now
	const query = `INSERT INTO states (id, name, slug, description, image_url, active, created_at, updated_at)
	VALUES (:id, :name, :slug, :description, :image_url, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, state); err != nil {
		return fmt.Errorf("create state: %w", err)
	}
	return nil
}

// FindByID fetches a state by identifier.
func (r *StateRepository) FindByID(ctx context.Context, id string) (*models.State, error) {
	const query = `SELECT id, name, slug, description, image_url, active, created_at, updated_at
	FROM states WHERE id = $1`
	var state models.State
	if err := r.db.GetContext(ctx, &state, query, id); err != nil {
		return nil, err
	}
	return &state, nil
}

// List returns all states ordered by name.
func (r *StateRepository) List(ctx context.Context, activeOnly bool) ([]models.State, error) {
	query := `SELECT id, name, slug, description, image_url, active, created_at, updated_at FROM states`
	if activeOnly {
		query += ` WHERE active = true`
	}
	query += ` ORDER BY name ASC`
	var states []models.State
	if err := r.db.SelectContext(ctx, &states, query); err != nil {
		return nil, fmt.Errorf("list states: %w", err)
	}
	return states, nil
}

// Update rewrites mutable columns of an existing state.
func (r *StateRepository) Update(ctx context.Context, state *models.State) error {
	state.UpdatedAt = time.Now().UTC()
	const query = `UPDATE states SET name = :name, slug = :slug, description = :description,
	image_url = :image_url, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, state); err != nil {
		return fmt.Errorf("update state: %w", err)
	}
	return nil
}

// Delete removes a state row.
func (r *StateRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM states WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete state: %w", err)
	}
	return nil
}
