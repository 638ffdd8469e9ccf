package service

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tripwise-in/tripwise-api/internal/dto"
	"github.com/tripwise-in/tripwise-api/internal/models"
	appErrors "github.com/tripwise-in/tripwise-api/pkg/errors"
)

type packageRepoStub struct {
	packages map[string]*models.TourPackage
	slugs    map[string]string
}

func newPackageRepoStub() *packageRepoStub {
	return &packageRepoStub{packages: make(map[string]*models.TourPackage), slugs: make(map[string]string)}
}

func (s *packageRepoStub) Create(ctx context.Context, pkg *models.TourPackage) error {
	if pkg.ID == "" {
		pkg.ID = "pkg-1"
	}
	s.packages[pkg.ID] = pkg
	s.slugs[pkg.Slug] = pkg.ID
	return nil
}

func (s *packageRepoStub) FindByID(ctx context.Context, id string) (*models.TourPackage, error) {
	if pkg, ok := s.packages[id]; ok {
		copy := *pkg
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *packageRepoStub) List(ctx context.Context, filter models.PackageFilter) ([]models.TourPackage, error) {
	result := make([]models.TourPackage, 0, len(s.packages))
	for _, pkg := range s.packages {
		result = append(result, *pkg)
	}
	return result, nil
}

func (s *packageRepoStub) Update(ctx context.Context, pkg *models.TourPackage) error {
	if _, ok := s.packages[pkg.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *pkg
	s.packages[pkg.ID] = &copy
	return nil
}

func (s *packageRepoStub) Delete(ctx context.Context, id string) error {
	delete(s.packages, id)
	return nil
}

func (s *packageRepoStub) ExistsBySlug(ctx context.Context, slug, excludeID string) (bool, error) {
	id, ok := s.slugs[slug]
	return ok && id != excludeID, nil
}

type viewsStub struct {
	patterns []string
}

func (v *viewsStub) InvalidateMatching(pattern *regexp.Regexp) int {
	v.patterns = append(v.patterns, pattern.String())
	return 1
}

func TestPackageCreateDerivesSlug(t *testing.T) {
	repo := newPackageRepoStub()
	views := &viewsStub{}
	svc := NewPackageService(repo, views, nil, nil)

	pkg, err := svc.Create(context.Background(), dto.CreatePackageRequest{
		Name:         "Backwaters of Kerala!",
		DurationDays: 5,
		Price:        25000,
	})
	require.NoError(t, err)
	require.Equal(t, "backwaters-of-kerala", pkg.Slug)
	require.True(t, pkg.Active)
	require.NotEmpty(t, views.patterns, "catalog views must be invalidated on create")
}

func TestPackageCreateRejectsDuplicateSlug(t *testing.T) {
	repo := newPackageRepoStub()
	svc := NewPackageService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreatePackageRequest{Name: "Goa Trip", DurationDays: 3, Price: 9000})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), dto.CreatePackageRequest{Name: "Goa Trip", DurationDays: 4, Price: 9500})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestPackageCreateValidatesDiscount(t *testing.T) {
	repo := newPackageRepoStub()
	svc := NewPackageService(repo, nil, nil, nil)

	discount := 12000.0
	_, err := svc.Create(context.Background(), dto.CreatePackageRequest{
		Name:          "Rajasthan Circuit",
		DurationDays:  7,
		Price:         10000,
		DiscountPrice: &discount,
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPackageUpdateAppliesPartialFields(t *testing.T) {
	repo := newPackageRepoStub()
	svc := NewPackageService(repo, nil, nil, nil)

	created, err := svc.Create(context.Background(), dto.CreatePackageRequest{Name: "Leh Ladakh", DurationDays: 8, Price: 40000})
	require.NoError(t, err)

	newPrice := 38000.0
	featured := true
	updated, err := svc.Update(context.Background(), created.ID, dto.UpdatePackageRequest{Price: &newPrice, Featured: &featured})
	require.NoError(t, err)
	require.Equal(t, 38000.0, updated.Price)
	require.True(t, updated.Featured)
	require.Equal(t, "Leh Ladakh", updated.Name, "unset fields stay untouched")
}

func TestPackageUpdateNotFound(t *testing.T) {
	repo := newPackageRepoStub()
	svc := NewPackageService(repo, nil, nil, nil)

	name := "x"
	_, err := svc.Update(context.Background(), "missing", dto.UpdatePackageRequest{Name: &name})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEffectivePriceWindow(t *testing.T) {
	discount := 8000.0
	from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	pkg := &models.TourPackage{
		Price:         10000,
		DiscountPrice: &discount,
		DiscountFrom:  &from,
		DiscountUntil: &until,
	}

	require.Equal(t, 10000.0, pkg.EffectivePrice(time.Date(2026, 5, 31, 23, 0, 0, 0, time.UTC)))
	require.Equal(t, 8000.0, pkg.EffectivePrice(time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)))
	require.Equal(t, 10000.0, pkg.EffectivePrice(time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)))

	// Open-ended window.
	pkg.DiscountFrom = nil
	pkg.DiscountUntil = nil
	require.Equal(t, 8000.0, pkg.EffectivePrice(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)))

	// Discount at or above base price never applies.
	bad := 10000.0
	pkg.DiscountPrice = &bad
	require.Equal(t, 10000.0, pkg.EffectivePrice(time.Now()))
}

func TestSlugify(t *testing.T) {
	require.Equal(t, "golden-triangle-tour", Slugify("  Golden Triangle Tour  "))
	require.Equal(t, "goa-3n-4d", Slugify("Goa (3N/4D)"))
	require.Equal(t, "", Slugify("!!!"))
}
