package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tripwise-in/tripwise-api/internal/dto"
	"github.com/tripwise-in/tripwise-api/internal/models"
	"github.com/tripwise-in/tripwise-api/internal/service"
	appErrors "github.com/tripwise-in/tripwise-api/pkg/errors"
	"github.com/tripwise-in/tripwise-api/pkg/response"
)

// PackageHandler exposes tour package endpoints. Writes from non-superadmin
// admins are routed into the approval workflow instead of being applied.
type PackageHandler struct {
	service   *service.PackageService
	approvals *service.ApprovalService
}

// NewPackageHandler creates a new handler.
func NewPackageHandler(svc *service.PackageService, approvals *service.ApprovalService) *PackageHandler {
	return &PackageHandler{service: svc, approvals: approvals}
}

// List godoc
// @Summary List tour packages
// @Tags Packages
// @Produce json
// @Param state_id query string false "Filter by state"
// @Param city_id query string false "Filter by city"
// @Param featured query bool false "Filter by featured flag"
// @Param active query bool false "Filter by active flag"
// @Param search query string false "Name search"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Router /packages [get]
func (h *PackageHandler) List(c *gin.Context) {
	filter := models.PackageFilter{
		StateID: c.Query("state_id"),
		CityID:  c.Query("city_id"),
		Search:  c.Query("search"),
		Limit:   parseIntQuery(c, "limit", 50),
		Offset:  parseIntQuery(c, "offset", 0),
	}
	if raw := c.Query("featured"); raw != "" {
		featured := raw == "true"
		filter.Featured = &featured
	}
	if raw := c.Query("active"); raw != "" {
		active := raw == "true"
		filter.Active = &active
	}

	packages, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, packages, nil)
}

// Get godoc
// @Summary Get a tour package
// @Tags Packages
// @Produce json
// @Param id path string true "Package ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /packages/{id} [get]
func (h *PackageHandler) Get(c *gin.Context) {
	pkg, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pkg, nil)
}

// Create godoc
// @Summary Create a tour package
// @Description Superadmins create directly; admins queue an approval request
// @Tags Packages
// @Accept json
// @Produce json
// @Param payload body dto.CreatePackageRequest true "Package payload"
// @Success 201 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /packages [post]
func (h *PackageHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid package payload"))
		return
	}

	if claims.IsSuperadmin() {
		pkg, err := h.service.Create(c.Request.Context(), req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Created(c, pkg)
		return
	}

	h.submitApproval(c, models.ApprovalActionCreate, models.ApprovalEntityPackage, "", req, claims)
}

// Update godoc
// @Summary Update a tour package
// @Description Superadmins update directly; admins queue an approval request
// @Tags Packages
// @Accept json
// @Produce json
// @Param id path string true "Package ID"
// @Param payload body dto.UpdatePackageRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /packages/{id} [put]
func (h *PackageHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.UpdatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid package payload"))
		return
	}

	if claims.IsSuperadmin() {
		pkg, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, pkg, nil)
		return
	}

	h.submitApproval(c, models.ApprovalActionUpdate, models.ApprovalEntityPackage, c.Param("id"), req, claims)
}

// Delete godoc
// @Summary Delete a tour package
// @Description Superadmins delete directly; admins queue an approval request
// @Tags Packages
// @Produce json
// @Param id path string true "Package ID"
// @Success 202 {object} response.Envelope
// @Success 204 "No Content"
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /packages/{id} [delete]
func (h *PackageHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if claims.IsSuperadmin() {
		if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
			response.Error(c, err)
			return
		}
		response.NoContent(c)
		return
	}

	h.submitApproval(c, models.ApprovalActionDelete, models.ApprovalEntityPackage, c.Param("id"), nil, claims)
}

func (h *PackageHandler) submitApproval(c *gin.Context, action models.ApprovalAction, entity models.ApprovalEntity, entityID string, payload interface{}, claims *models.JWTClaims) {
	submitApproval(c, h.approvals, action, entity, entityID, payload, claims)
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
