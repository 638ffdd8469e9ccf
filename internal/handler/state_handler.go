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

// StateHandler exposes destination state endpoints with gated writes.
type StateHandler struct {
	service   *service.StateService
	approvals *service.ApprovalService
}

// NewStateHandler creates a new handler.
func NewStateHandler(svc *service.StateService, approvals *service.ApprovalService) *StateHandler {
	return &StateHandler{service: svc, approvals: approvals}
}

// List godoc
// @Summary List destination states
// @Tags Destinations
// @Produce json
// @Param active query bool false "Only active states"
// @Success 200 {object} response.Envelope
// @Router /states [get]
func (h *StateHandler) List(c *gin.Context) {
	states, err := h.service.List(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, states, nil)
}

// Get godoc
// @Summary Get a destination state
// @Tags Destinations
// @Produce json
// @Param id path string true "State ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /states/{id} [get]
func (h *StateHandler) Get(c *gin.Context) {
	state, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// Create godoc
// @Summary Create a destination state
// @Description Superadmins create directly; admins queue an approval request
// @Tags Destinations
// @Accept json
// @Produce json
// @Param payload body dto.CreateStateRequest true "State payload"
// @Success 201 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /states [post]
func (h *StateHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid state payload"))
		return
	}

	if claims.IsSuperadmin() {
		state, err := h.service.Create(c.Request.Context(), req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Created(c, state)
		return
	}

	submitApproval(c, h.approvals, models.ApprovalActionCreate, models.ApprovalEntityState, "", req, claims)
}

// Update godoc
// @Summary Update a destination state
// @Description Superadmins update directly; admins queue an approval request
// @Tags Destinations
// @Accept json
// @Produce json
// @Param id path string true "State ID"
// @Param payload body dto.UpdateStateRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /states/{id} [put]
func (h *StateHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.UpdateStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid state payload"))
		return
	}

	if claims.IsSuperadmin() {
		state, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, state, nil)
		return
	}

	submitApproval(c, h.approvals, models.ApprovalActionUpdate, models.ApprovalEntityState, c.Param("id"), req, claims)
}

// Delete godoc
// @Summary Delete a destination state
// @Description Superadmins delete directly; admins queue an approval request
// @Tags Destinations
// @Produce json
// @Param id path string true "State ID"
// @Success 202 {object} response.Envelope
// @Success 204 "No Content"
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /states/{id} [delete]
func (h *StateHandler) Delete(c *gin.Context) {
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

	submitApproval(c, h.approvals, models.ApprovalActionDelete, models.ApprovalEntityState, c.Param("id"), nil, claims)
}
