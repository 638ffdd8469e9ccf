package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tripwise-in/tripwise-api/internal/dto"
	"github.com/tripwise-in/tripwise-api/internal/models"
	appErrors "github.com/tripwise-in/tripwise-api/pkg/errors"
)

type cityStore interface {
	Create(ctx context.Context, city *models.City) error
	FindByID(ctx context.Context, id string) (*models.City, error)
	List(ctx context.Context, stateID string, activeOnly bool) ([]models.City, error)
	Update(ctx context.Context, city *models.City) error
	Delete(ctx context.Context, id string) error
}

type cityStateStore interface {
	FindByID(ctx context.Context, id string) (*models.State, error)
}

// CityService manages destination cities.
type CityService struct {
	repo      cityStore
	states    cityStateStore
	views     viewInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCityService constructs a CityService.
func NewCityService(repo cityStore, states cityStateStore, views viewInvalidator, validate *validator.Validate, logger *zap.Logger) *CityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CityService{repo: repo, states: states, views: views, validator: validate, logger: logger}
}

// Get returns a city by identifier.
func (s *CityService) Get(ctx context.Context, id string) (*models.City, error) {
	city, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "city not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load city")
	}
	return city, nil
}

// List returns cities, optionally filtered by state and active flag.
func (s *CityService) List(ctx context.Context, stateID string, activeOnly bool) ([]models.City, error) {
	cities, err := s.repo.List(ctx, stateID, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cities")
	}
	if cities == nil {
		cities = []models.City{}
	}
	return cities, nil
}

// Create validates and stores a new city. The parent state must exist.
func (s *CityService) Create(ctx context.Context, req dto.CreateCityRequest) (*models.City, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid city payload")
	}

	if s.states != nil {
		if _, err := s.states.FindByID(ctx, req.StateID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "parent state does not exist")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check parent state")
		}
	}

	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.Name)
	}

	city := &models.City{
		StateID:     req.StateID,
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Active:      true,
	}
	if err := s.repo.Create(ctx, city); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create city")
	}

	s.invalidateViews()
	s.logger.Info("city created", zap.String("city_id", city.ID), zap.String("state_id", city.StateID))
	return city, nil
}

// Update applies a partial update to an existing city.
func (s *CityService) Update(ctx context.Context, id string, req dto.UpdateCityRequest) (*models.City, error) {
	city, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.StateID != nil {
		if s.states != nil {
			if _, err := s.states.FindByID(ctx, *req.StateID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return nil, appErrors.Clone(appErrors.ErrValidation, "parent state does not exist")
				}
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check parent state")
			}
		}
		city.StateID = *req.StateID
	}
	if req.Name != nil {
		city.Name = *req.Name
	}
	if req.Description != nil {
		city.Description = *req.Description
	}
	if req.ImageURL != nil {
		city.ImageURL = *req.ImageURL
	}
	if req.Active != nil {
		city.Active = *req.Active
	}

	if err := s.repo.Update(ctx, city); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update city")
	}

	s.invalidateViews()
	s.logger.Info("city updated", zap.String("city_id", city.ID))
	return city, nil
}

// Delete removes a city from the catalog.
func (s *CityService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete city")
	}
	s.invalidateViews()
	s.logger.Info("city deleted", zap.String("city_id", id))
	return nil
}

func (s *CityService) invalidateViews() {
	if s.views == nil {
		return
	}
	s.views.InvalidateMatching(cityViewsPattern)
}
