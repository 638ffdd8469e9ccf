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

type articleStore interface {
	Create(ctx context.Context, article *models.Article) error
	FindByID(ctx context.Context, id string) (*models.Article, error)
	FindBySlug(ctx context.Context, slug string) (*models.Article, error)
	List(ctx context.Context, publishedOnly bool, limit, offset int) ([]models.Article, error)
	Update(ctx context.Context, article *models.Article) error
	Delete(ctx context.Context, id string) error
}

// ArticleService manages marketing articles. Article mutations are not
// subject to the approval workflow.
type ArticleService struct {
	repo      articleStore
	views     viewInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewArticleService constructs an ArticleService.
func NewArticleService(repo articleStore, views viewInvalidator, validate *validator.Validate, logger *zap.Logger) *ArticleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ArticleService{repo: repo, views: views, validator: validate, logger: logger}
}

// Get returns an article by identifier.
func (s *ArticleService) Get(ctx context.Context, id string) (*models.Article, error) {
	article, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "article not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load article")
	}
	return article, nil
}

// GetBySlug returns an article by slug.
func (s *ArticleService) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	article, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "article not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load article")
	}
	return article, nil
}

// List returns articles, optionally only published ones.
func (s *ArticleService) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]models.Article, error) {
	articles, err := s.repo.List(ctx, publishedOnly, limit, offset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list articles")
	}
	if articles == nil {
		articles = []models.Article{}
	}
	return articles, nil
}

// Create validates and stores a new article authored by the given admin.
func (s *ArticleService) Create(ctx context.Context, authorID string, req dto.CreateArticleRequest) (*models.Article, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid article payload")
	}

	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.Title)
	}

	article := &models.Article{
		Title:     req.Title,
		Slug:      slug,
		Body:      req.Body,
		CoverURL:  req.CoverURL,
		AuthorID:  authorID,
		Published: req.Published,
	}
	if req.Published {
		now := time.Now().UTC()
		article.PublishedAt = &now
	}
	if err := s.repo.Create(ctx, article); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create article")
	}

	s.invalidateViews()
	s.logger.Info("article created", zap.String("article_id", article.ID), zap.String("slug", article.Slug))
	return article, nil
}

// Update applies a partial update to an existing article.
func (s *ArticleService) Update(ctx context.Context, id string, req dto.UpdateArticleRequest) (*models.Article, error) {
	article, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		article.Title = *req.Title
	}
	if req.Body != nil {
		article.Body = *req.Body
	}
	if req.CoverURL != nil {
		article.CoverURL = *req.CoverURL
	}
	if req.Published != nil {
		wasPublished := article.Published
		article.Published = *req.Published
		if article.Published && !wasPublished {
			now := time.Now().UTC()
			article.PublishedAt = &now
		}
	}

	if err := s.repo.Update(ctx, article); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update article")
	}

	s.invalidateViews()
	s.logger.Info("article updated", zap.String("article_id", article.ID))
	return article, nil
}

// Delete removes an article.
func (s *ArticleService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete article")
	}
	s.invalidateViews()
	s.logger.Info("article deleted", zap.String("article_id", id))
	return nil
}

func (s *ArticleService) invalidateViews() {
	if s.views == nil {
		return
	}
	s.views.InvalidateMatching(articleViewsPattern)
}
