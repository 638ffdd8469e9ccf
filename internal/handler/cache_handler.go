package handler

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tripwise-in/tripwise-api/pkg/cache"
	appErrors "github.com/tripwise-in/tripwise-api/pkg/errors"
	"github.com/tripwise-in/tripwise-api/pkg/response"
)

// CacheHandler exposes superadmin maintenance operations on the response
// cache.
type CacheHandler struct {
	store  *cache.MemoryStore
	logger *zap.Logger
}

// NewCacheHandler creates a new handler.
func NewCacheHandler(store *cache.MemoryStore, logger *zap.Logger) *CacheHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheHandler{store: store, logger: logger}
}

type invalidateCacheRequest struct {
	Pattern string `json:"pattern" binding:"required"`
}

// Invalidate godoc
// @Summary Invalidate cached responses
// @Description Removes cached entries whose keys match the regular expression
// @Tags Cache
// @Accept json
// @Produce json
// @Param payload body invalidateCacheRequest true "Key pattern"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/cache/invalidate [post]
func (h *CacheHandler) Invalidate(c *gin.Context) {
	if h.store == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrPreconditionFailed, "response cache is disabled"))
		return
	}

	var req invalidateCacheRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "pattern is required"))
		return
	}
	pattern, err := regexp.Compile(req.Pattern)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "pattern is not a valid regular expression"))
		return
	}

	removed := h.store.InvalidateMatching(pattern)
	response.JSON(c, http.StatusOK, gin.H{"removed": removed}, nil)
}

// Flush godoc
// @Summary Flush the response cache
// @Description Removes every cached response
// @Tags Cache
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/cache/flush [post]
func (h *CacheHandler) Flush(c *gin.Context) {
	if h.store == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrPreconditionFailed, "response cache is disabled"))
		return
	}
	removed := h.store.Flush()
	response.JSON(c, http.StatusOK, gin.H{"removed": removed}, nil)
}

// Stats godoc
// @Summary Response cache statistics
// @Tags Cache
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/cache/stats [get]
func (h *CacheHandler) Stats(c *gin.Context) {
	if h.store == nil {
		response.JSON(c, http.StatusOK, gin.H{"enabled": false, "entries": 0}, nil)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"enabled": true, "entries": h.store.Len()}, nil)
}
