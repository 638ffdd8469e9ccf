package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tripwise-in/tripwise-api/internal/dto"
	"github.com/tripwise-in/tripwise-api/internal/models"
	appErrors "github.com/tripwise-in/tripwise-api/pkg/errors"
)

type packageStore interface {
	Create(ctx context.Context, pkg *models.TourPackage) error
	FindByID(ctx context.Context, id string) (*models.TourPackage, error)
	List(ctx context.Context, filter models.PackageFilter) ([]models.TourPackage, error)
	Update(ctx context.Context, pkg *models.TourPackage) error
	Delete(ctx context.Context, id string) error
	ExistsBySlug(ctx context.Context, slug, excludeID string) (bool, error)
}

// PackageService manages the tour package catalog.
type PackageService struct {
	repo      packageStore
	views     viewInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPackageService constructs a PackageService.
func NewPackageService(repo packageStore, views viewInvalidator, validate *validator.Validate, logger *zap.Logger) *PackageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &PackageService{repo: repo, views: views, validator: validate, logger: logger}
}

// Get returns a single package by identifier.
func (s *PackageService) Get(ctx context.Context, id string) (*models.TourPackage, error) {
	pkg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "package not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load package")
	}
	return pkg, nil
}

// List returns packages matching the filter.
func (s *PackageService) List(ctx context.Context, filter models.PackageFilter) ([]models.TourPackage, error) {
	packages, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list packages")
	}
	if packages == nil {
		packages = []models.TourPackage{}
	}
	return packages, nil
}

// Create validates and stores a new package.
func (s *PackageService) Create(ctx context.Context, req dto.CreatePackageRequest) (*models.TourPackage, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid package payload")
	}

	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.Name)
	}
	exists, err := s.repo.ExistsBySlug(ctx, slug, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slug")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a package with this slug already exists")
	}

	discountFrom, err := dto.ParseDiscountDate(req.DiscountFrom)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "discount_from must be YYYY-MM-DD")
	}
	discountUntil, err := dto.ParseDiscountDate(req.DiscountUntil)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "discount_until must be YYYY-MM-DD")
	}
	if req.DiscountPrice != nil && *req.DiscountPrice >= req.Price {
		return nil, appErrors.Clone(appErrors.ErrValidation, "discount price must be below the base price")
	}

	pkg := &models.TourPackage{
		Name:          req.Name,
		Slug:          slug,
		Description:   req.Description,
		StateID:       req.StateID,
		CityID:        req.CityID,
		DurationDays:  req.DurationDays,
		Price:         req.Price,
		DiscountPrice: req.DiscountPrice,
		DiscountFrom:  discountFrom,
		DiscountUntil: discountUntil,
		ImageURL:      req.ImageURL,
		Featured:      req.Featured,
		Active:        true,
	}
	if err := s.repo.Create(ctx, pkg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create package")
	}

	s.invalidateViews()
	s.logger.Info("package created", zap.String("package_id", pkg.ID), zap.String("slug", pkg.Slug))
	return pkg, nil
}

// Update applies a partial update to an existing package.
func (s *PackageService) Update(ctx context.Context, id string, req dto.UpdatePackageRequest) (*models.TourPackage, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid package payload")
	}

	pkg, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		pkg.Name = *req.Name
	}
	if req.Description != nil {
		pkg.Description = *req.Description
	}
	if req.StateID != nil {
		pkg.StateID = req.StateID
	}
	if req.CityID != nil {
		pkg.CityID = req.CityID
	}
	if req.DurationDays != nil {
		pkg.DurationDays = *req.DurationDays
	}
	if req.Price != nil {
		pkg.Price = *req.Price
	}
	if req.DiscountPrice != nil {
		pkg.DiscountPrice = req.DiscountPrice
	}
	if req.DiscountFrom != nil {
		ts, err := dto.ParseDiscountDate(req.DiscountFrom)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "discount_from must be YYYY-MM-DD")
		}
		pkg.DiscountFrom = ts
	}
	if req.DiscountUntil != nil {
		ts, err := dto.ParseDiscountDate(req.DiscountUntil)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "discount_until must be YYYY-MM-DD")
		}
		pkg.DiscountUntil = ts
	}
	if req.ImageURL != nil {
		pkg.ImageURL = *req.ImageURL
	}
	if req.Featured != nil {
		pkg.Featured = *req.Featured
	}
	if req.Active != nil {
		pkg.Active = *req.Active
	}

	if pkg.DiscountPrice != nil && *pkg.DiscountPrice >= pkg.Price {
		return nil, appErrors.Clone(appErrors.ErrValidation, "discount price must be below the base price")
	}

	if err := s.repo.Update(ctx, pkg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update package")
	}

	s.invalidateViews()
	s.logger.Info("package updated", zap.String("package_id", pkg.ID))
	return pkg, nil
}

// Delete removes a package from the catalog.
func (s *PackageService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete package")
	}
	s.invalidateViews()
	s.logger.Info("package deleted", zap.String("package_id", id))
	return nil
}

// EffectivePrice resolves the currently applicable price for a package.
func (s *PackageService) EffectivePrice(ctx context.Context, id string) (float64, error) {
	pkg, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return pkg.EffectivePrice(time.Now().UTC()), nil
}

func (s *PackageService) invalidateViews() {
	if s.views == nil {
		return
	}
	s.views.InvalidateMatching(packageViewsPattern)
}
