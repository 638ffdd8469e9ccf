package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tripwise-in/tripwise-api/internal/dto"
	"github.com/tripwise-in/tripwise-api/internal/service"
	appErrors "github.com/tripwise-in/tripwise-api/pkg/errors"
	"github.com/tripwise-in/tripwise-api/pkg/response"
)

// ArticleHandler exposes article endpoints. Article writes are direct for
// any authenticated admin.
type ArticleHandler struct {
	service *service.ArticleService
}

// NewArticleHandler creates a new handler.
func NewArticleHandler(svc *service.ArticleService) *ArticleHandler {
	return &ArticleHandler{service: svc}
}

// List godoc
// @Summary List articles
// @Tags Articles
// @Produce json
// @Param published query bool false "Only published articles"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Router /articles [get]
func (h *ArticleHandler) List(c *gin.Context) {
	articles, err := h.service.List(c.Request.Context(),
		c.Query("published") == "true",
		parseIntQuery(c, "limit", 50),
		parseIntQuery(c, "offset", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, articles, nil)
}

// Get godoc
// @Summary Get an article
// @Description Accepts an article ID; slugs work too for public permalinks
// @Tags Articles
// @Produce json
// @Param id path string true "Article ID or slug"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /articles/{id} [get]
func (h *ArticleHandler) Get(c *gin.Context) {
	key := c.Param("id")
	article, err := h.service.Get(c.Request.Context(), key)
	if err != nil {
		if appErr := appErrors.FromError(err); appErr.Status == http.StatusNotFound {
			article, err = h.service.GetBySlug(c.Request.Context(), key)
		}
		if err != nil {
			response.Error(c, err)
			return
		}
	}
	response.JSON(c, http.StatusOK, article, nil)
}

// Create godoc
// @Summary Create an article
// @Tags Articles
// @Accept json
// @Produce json
// @Param payload body dto.CreateArticleRequest true "Article payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /articles [post]
func (h *ArticleHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid article payload"))
		return
	}

	article, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, article)
}

// Update godoc
// @Summary Update an article
// @Tags Articles
// @Accept json
// @Produce json
// @Param id path string true "Article ID"
// @Param payload body dto.UpdateArticleRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /articles/{id} [put]
func (h *ArticleHandler) Update(c *gin.Context) {
	var req dto.UpdateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid article payload"))
		return
	}

	article, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, article, nil)
}

// Delete godoc
// @Summary Delete an article
// @Tags Articles
// @Produce json
// @Param id path string true "Article ID"
// @Success 204 "No Content"
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /articles/{id} [delete]
func (h *ArticleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
