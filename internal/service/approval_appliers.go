package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tripwise-in/tripwise-api/internal/dto"
	"github.com/tripwise-in/tripwise-api/internal/models"
	appErrors "github.com/tripwise-in/tripwise-api/pkg/errors"
)

// The appliers translate an approved request's stored payload back into the
// entity service call the admin originally asked for. They share all
// validation and cache invalidation with the direct superadmin path.

type packageMutator interface {
	Create(ctx context.Context, req dto.CreatePackageRequest) (*models.TourPackage, error)
	Update(ctx context.Context, id string, req dto.UpdatePackageRequest) (*models.TourPackage, error)
	Delete(ctx context.Context, id string) error
}

type stateMutator interface {
	Create(ctx context.Context, req dto.CreateStateRequest) (*models.State, error)
	Update(ctx context.Context, id string, req dto.UpdateStateRequest) (*models.State, error)
	Delete(ctx context.Context, id string) error
}

type cityMutator interface {
	Create(ctx context.Context, req dto.CreateCityRequest) (*models.City, error)
	Update(ctx context.Context, id string, req dto.UpdateCityRequest) (*models.City, error)
	Delete(ctx context.Context, id string) error
}

// PackageApplier replays approved package mutations.
type PackageApplier struct {
	svc packageMutator
}

// NewPackageApplier constructs a PackageApplier.
func NewPackageApplier(svc packageMutator) *PackageApplier {
	return &PackageApplier{svc: svc}
}

// Apply executes the stored package mutation.
func (a *PackageApplier) Apply(ctx context.Context, approval *models.ApprovalRequest) error {
	switch approval.Action {
	case models.ApprovalActionCreate:
		var req dto.CreatePackageRequest
		if err := decodePayload(approval.Payload, &req); err != nil {
			return err
		}
		_, err := a.svc.Create(ctx, req)
		return err
	case models.ApprovalActionUpdate:
		var req dto.UpdatePackageRequest
		if err := decodePayload(approval.Payload, &req); err != nil {
			return err
		}
		_, err := a.svc.Update(ctx, approval.EntityID, req)
		return err
	case models.ApprovalActionDelete:
		return a.svc.Delete(ctx, approval.EntityID)
	default:
		return appErrors.Clone(appErrors.ErrInternal, fmt.Sprintf("unsupported action %q", approval.Action))
	}
}

// StateApplier replays approved state mutations.
type StateApplier struct {
	svc stateMutator
}

// NewStateApplier constructs a StateApplier.
func NewStateApplier(svc stateMutator) *StateApplier {
	return &StateApplier{svc: svc}
}

// Apply executes the stored state mutation.
func (a *StateApplier) Apply(ctx context.Context, approval *models.ApprovalRequest) error {
	switch approval.Action {
	case models.ApprovalActionCreate:
		var req dto.CreateStateRequest
		if err := decodePayload(approval.Payload, &req); err != nil {
			return err
		}
		_, err := a.svc.Create(ctx, req)
		return err
	case models.ApprovalActionUpdate:
		var req dto.UpdateStateRequest
		if err := decodePayload(approval.Payload, &req); err != nil {
			return err
		}
		_, err := a.svc.Update(ctx, approval.EntityID, req)
		return err
	case models.ApprovalActionDelete:
		return a.svc.Delete(ctx, approval.EntityID)
	default:
		return appErrors.Clone(appErrors.ErrInternal, fmt.Sprintf("unsupported action %q", approval.Action))
	}
}

// CityApplier replays approved city mutations.
type CityApplier struct {
	svc cityMutator
}

// NewCityApplier constructs a CityApplier.
func NewCityApplier(svc cityMutator) *CityApplier {
	return &CityApplier{svc: svc}
}

// Apply executes the stored city mutation.
func (a *CityApplier) Apply(ctx context.Context, approval *models.ApprovalRequest) error {
	switch approval.Action {
	case models.ApprovalActionCreate:
		var req dto.CreateCityRequest
		if err := decodePayload(approval.Payload, &req); err != nil {
			return err
		}
		_, err := a.svc.Create(ctx, req)
		return err
	case models.ApprovalActionUpdate:
		var req dto.UpdateCityRequest
		if err := decodePayload(approval.Payload, &req); err != nil {
			return err
		}
		_, err := a.svc.Update(ctx, approval.EntityID, req)
		return err
	case models.ApprovalActionDelete:
		return a.svc.Delete(ctx, approval.EntityID)
	default:
		return appErrors.Clone(appErrors.ErrInternal, fmt.Sprintf("unsupported action %q", approval.Action))
	}
}

func decodePayload(payload []byte, dest interface{}) error {
	if err := json.Unmarshal(payload, dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "stored payload no longer decodes")
	}
	return nil
}
