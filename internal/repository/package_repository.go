package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tripwise-in/tripwise-api/internal/models"
)

// PackageRepository persists tour packages.
type PackageRepository struct {
	db *sqlx.DB
}

// NewPackageRepository constructs the repository.
func NewPackageRepository(db *sqlx.DB) *PackageRepository {
	return &PackageRepository{db: db}
}

const packageColumns = `id, name, slug, description, state_id, city_id, duration_days, price,
       discount_price, discount_from, discount_until, image_url, featured, active, created_at, updated_at`

// Create inserts a new package row.
func (r *PackageRepository) Create(ctx context.Context, pkg *models.TourPackage) error {
	if pkg.ID == "" {
		pkg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if pkg.CreatedAt.IsZero() {
		pkg.CreatedAt = now
	}
	pkg.UpdatedAt = now
	const query = `INSERT INTO packages
	(id, name, slug, description, state_id, city_id, duration_days, price, discount_price, discount_from, discount_until, image_url, featured, active, created_at, updated_at)
	VALUES (:id, :name, :slug, :description, :state_id, :city_id, :duration_days, :price, :discount_price, :discount_from, :discount_until, :image_url, :featured, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, pkg); err != nil {
		return fmt.Errorf("create package: %w", err)
	}
	return nil
}

// FindByID fetches a package by identifier.
func (r *PackageRepository) FindByID(ctx context.Context, id string) (*models.TourPackage, error) {
	query := fmt.Sprintf("SELECT %s FROM packages WHERE id = $1", packageColumns)
	var pkg models.TourPackage
	if err := r.db.GetContext(ctx, &pkg, query, id); err != nil {
		return nil, err
	}
	return &pkg, nil
}

// List returns packages matching the filter ordered by newest first.
func (r *PackageRepository) List(ctx context.Context, filter models.PackageFilter) ([]models.TourPackage, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 5)
	builder.WriteString(fmt.Sprintf("SELECT %s FROM packages", packageColumns))

	conditions := make([]string, 0, 4)
	if filter.StateID != "" {
		args = append(args, filter.StateID)
		conditions = append(conditions, fmt.Sprintf("state_id = $%d", len(args)))
	}
	if filter.CityID != "" {
		args = append(args, filter.CityID)
		conditions = append(conditions, fmt.Sprintf("city_id = $%d", len(args)))
	}
	if filter.Featured != nil {
		args = append(args, *filter.Featured)
		conditions = append(conditions, fmt.Sprintf("featured = $%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var packages []models.TourPackage
	if err := r.db.SelectContext(ctx, &packages, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	return packages, nil
}

// Update rewrites all mutable columns of an existing package.
func (r *PackageRepository) Update(ctx context.Context, pkg *models.TourPackage) error {
	pkg.UpdatedAt = time.Now().UTC()
	const query = `UPDATE packages SET
	name = :name, slug = :slug, description = :description, state_id = :state_id, city_id = :city_id,
	duration_days = :duration_days, price = :price, discount_price = :discount_price,
	discount_from = :discount_from, discount_until = :discount_until, image_url = :image_url,
	featured = :featured, active = :active, updated_at = :updated_at
	WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, pkg); err != nil {
		return fmt.Errorf("update package: %w", err)
	}
	return nil
}

// Delete removes a package row.
func (r *PackageRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM packages WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete package: %w", err)
	}
	return nil
}

// ExistsBySlug checks slug uniqueness, optionally excluding one package.
func (r *PackageRepository) ExistsBySlug(ctx context.Context, slug, excludeID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM packages WHERE slug = $1 AND id <> $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, slug, excludeID); err != nil {
		return false, fmt.Errorf("check package slug: %w", err)
	}
	return exists, nil
}
