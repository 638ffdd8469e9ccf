package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tripwise-in/tripwise-api/internal/dto"
	"github.com/tripwise-in/tripwise-api/internal/models"
	"github.com/tripwise-in/tripwise-api/internal/service"
	appErrors "github.com/tripwise-in/tripwise-api/pkg/errors"
	"github.com/tripwise-in/tripwise-api/pkg/response"
)

// ApprovalHandler exposes the approval workflow endpoints.
type ApprovalHandler struct {
	service *service.ApprovalService
}

// NewApprovalHandler creates a new handler.
func NewApprovalHandler(svc *service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{service: svc}
}

// List godoc
// @Summary List approval requests
// @Description Superadmins see every request; admins see only their own submissions
// @Tags Approvals
// @Produce json
// @Param status query string false "Comma-separated statuses (PENDING, APPROVED, REJECTED)"
// @Param entity query string false "Entity filter (package, state, city)"
// @Param action query string false "Action filter (CREATE, UPDATE, DELETE)"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /approvals [get]
func (h *ApprovalHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	query := parseApprovalQuery(c)
	limit := parseIntQuery(c, "limit", 50)
	offset := parseIntQuery(c, "offset", 0)

	var (
		approvals []models.ApprovalRequest
		err       error
	)
	if claims != nil && claims.IsSuperadmin() {
		approvals, err = h.service.ListAll(c.Request.Context(), query, limit, offset, claims)
	} else {
		approvals, err = h.service.ListMine(c.Request.Context(), query, limit, offset, claims)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, approvals, nil)
}

// Get godoc
// @Summary Get an approval request
// @Tags Approvals
// @Produce json
// @Param id path string true "Approval ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /approvals/{id} [get]
func (h *ApprovalHandler) Get(c *gin.Context) {
	approval, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, approval, nil)
}

// Approve godoc
// @Summary Approve a pending request
// @Description Applies the stored mutation and marks the request approved
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Approval ID"
// @Param payload body dto.ApproveRequest false "Optional reviewer note"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /approvals/{id}/approve [post]
func (h *ApprovalHandler) Approve(c *gin.Context) {
	var req dto.ApproveRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid approve payload"))
			return
		}
	}

	approval, err := h.service.Approve(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, approval, nil)
}

// Reject godoc
// @Summary Reject a pending request
// @Description Marks the request rejected; a non-empty reason is required
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Approval ID"
// @Param payload body dto.RejectRequest true "Rejection reason"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /approvals/{id}/reject [post]
func (h *ApprovalHandler) Reject(c *gin.Context) {
	var req dto.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reject payload"))
		return
	}

	approval, err := h.service.Reject(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, approval, nil)
}

func parseApprovalQuery(c *gin.Context) dto.ApprovalQuery {
	query := dto.ApprovalQuery{
		Entity: models.ApprovalEntity(c.Query("entity")),
		Action: models.ApprovalAction(strings.ToUpper(c.Query("action"))),
	}
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part != "" {
				query.Status = append(query.Status, models.ApprovalStatus(part))
			}
		}
	}
	return query
}
