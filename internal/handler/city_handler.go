package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tripwise-in/tripwise-api/internal/dto"
	"github.com/tripwise-in/tripwise-api/internal/models"
	"github.com/tripwise-in/tripwise-api/internal/service"
	appErrors "github.com/tripwise-in/tripwise-api/pkg/errors"
	"github.com/tripwise-in/tripwise-api/pkg/response"
)

// CityHandler exposes destination city endpoints with gated writes.
type CityHandler struct {
	service   *service.CityService
	approvals *service.ApprovalService
}

// NewCityHandler creates a new handler.
func NewCityHandler(svc *service.CityService, approvals *service.ApprovalService) *CityHandler {
	return &CityHandler{service: svc, approvals: approvals}
}

// List godoc
// @Summary List destination cities
// @Tags Destinations
// @Produce json
// @Param state_id query string false "Filter by state"
// @Param active query bool false "Only active cities"
// @Success 200 {object} response.Envelope
// @Router /cities [get]
func (h *CityHandler) List(c *gin.Context) {
	cities, err := h.service.List(c.Request.Context(), c.Query("state_id"), c.Query("active") == "true")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cities, nil)
}

// ListByState godoc
// @Summary List cities within a state
// @Tags Destinations
// @Produce json
// @Param id path string true "State ID"
// @Success 200 {object} response.Envelope
// @Router /states/{id}/cities [get]
func (h *CityHandler) ListByState(c *gin.Context) {
	cities, err := h.service.List(c.Request.Context(), c.Param("id"), false)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cities, nil)
}

// Get godoc
// @Summary Get a destination city
// @Tags Destinations
// @Produce json
// @Param id path string true "City ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /cities/{id} [get]
func (h *CityHandler) Get(c *gin.Context) {
	city, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, city, nil)
}

// Create godoc
// @Summary Create a destination city
// @Description Superadmins create directly; admins queue an approval request
// @Tags Destinations
// @Accept json
// @Produce json
// @Param payload body dto.CreateCityRequest true "City payload"
// @Success 201 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /cities [post]
func (h *CityHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateCityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid city payload"))
		return
	}

	if claims.IsSuperadmin() {
		city, err := h.service.Create(c.Request.Context(), req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Created(c, city)
		return
	}

	submitApproval(c, h.approvals, models.ApprovalActionCreate, models.ApprovalEntityCity, "", req, claims)
}

// Update godoc
// @Summary Update a destination city
// @Description Superadmins update directly; admins queue an approval request
// @Tags Destinations
// @Accept json
// @Produce json
// @Param id path string true "City ID"
// @Param payload body dto.UpdateCityRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /cities/{id} [put]
func (h *CityHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.UpdateCityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid city payload"))
		return
	}

	if claims.IsSuperadmin() {
		city, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, city, nil)
		return
	}

	submitApproval(c, h.approvals, models.ApprovalActionUpdate, models.ApprovalEntityCity, c.Param("id"), req, claims)
}

// Delete godoc
// @Summary Delete a destination city
// @Description Superadmins delete directly; admins queue an approval request
// @Tags Destinations
// @Produce json
// @Param id path string true "City ID"
// @Success 202 {object} response.Envelope
// @Success 204 "No Content"
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /cities/{id} [delete]
func (h *CityHandler) Delete(c *gin.Context) {
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

	submitApproval(c, h.approvals, models.ApprovalActionDelete, models.ApprovalEntityCity, c.Param("id"), nil, claims)
}
