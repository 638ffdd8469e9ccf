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

type stateStore interface {
	Create(ctx context.Context, state *models.State) error
	FindByID(ctx context.Context, id string) (*models.State, error)
	List(ctx context.Context, activeOnly bool) ([]models.State, error)
	Update(ctx context.Context, state *models.State) error
	Delete(ctx context.Context, id string) error
}

type stateCityStore interface {
	List(ctx context.Context, stateID string, activeOnly bool) ([]models.City, error)
}

// StateService manages destination states.
type StateService struct {
	repo      stateStore
	cities    stateCityStore
	views     viewInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStateService constructs a StateService.
func NewStateService(repo stateStore, cities stateCityStore, views viewInvalidator, validate *validator.Validate, logger *zap.Logger) *StateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &StateService{repo: repo, cities: cities, views: views, validator: validate, logger: logger}
}

// Get returns a state by identifier.
func (s *StateService) Get(ctx context.Context, id string) (*models.State, error) {
	state, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "state not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load state")
	}
	return state, nil
}

// List returns all states, optionally only active ones.
func (s *StateService) List(ctx context.Context, activeOnly bool) ([]models.State, error) {
	states, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list states")
	}
	if states == nil {
		states = []models.State{}
	}
	return states, nil
}

// Create validates and stores a new state.
func (s *StateService) Create(ctx context.Context, req dto.CreateStateRequest) (*models.State, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid state payload")
	}

	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.Name)
	}

	state := &models.State{
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Active:      true,
	}
	if err := s.repo.Create(ctx, state); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create state")
	}

	s.invalidateViews()
	s.logger.Info("state created", zap.String("state_id", state.ID), zap.String("slug", state.Slug))
	return state, nil
}

// Update applies a partial update to an existing state.
func (s *StateService) Update(ctx context.Context, id string, req dto.UpdateStateRequest) (*models.State, error) {
	state, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		state.Name = *req.Name
	}
	if req.Description != nil {
		state.Description = *req.Description
	}
	if req.ImageURL != nil {
		state.ImageURL = *req.ImageURL
	}
	if req.Active != nil {
		state.Active = *req.Active
	}

	if err := s.repo.Update(ctx, state); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update state")
	}

	s.invalidateViews()
	s.logger.Info("state updated", zap.String("state_id", state.ID))
	return state, nil
}

// Delete removes a state. States with cities attached are refused so the
// catalog never holds orphaned cities.
func (s *StateService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if s.cities != nil {
		cities, err := s.cities.List(ctx, id, false)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check attached cities")
		}
		if len(cities) > 0 {
			return appErrors.Clone(appErrors.ErrConflict, "state still has cities attached")
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete state")
	}

	s.invalidateViews()
	s.logger.Info("state deleted", zap.String("state_id", id))
	return nil
}

func (s *StateService) invalidateViews() {
	if s.views == nil {
		return
	}
	s.views.InvalidateMatching(stateViewsPattern)
}
