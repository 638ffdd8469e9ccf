package handler

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/tripwise-in/tripwise-api/internal/dto"
	"github.com/tripwise-in/tripwise-api/internal/models"
	"github.com/tripwise-in/tripwise-api/internal/service"
	appErrors "github.com/tripwise-in/tripwise-api/pkg/errors"
	"github.com/tripwise-in/tripwise-api/pkg/response"
)

// submitApproval parks a gated mutation and answers 202 Accepted. The bound
// request is re-encoded so the stored payload is exactly what validation saw.
func submitApproval(c *gin.Context, approvals *service.ApprovalService, action models.ApprovalAction, entity models.ApprovalEntity, entityID string, payload interface{}, claims *models.JWTClaims) {
	raw := json.RawMessage(`{}`)
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode payload"))
			return
		}
		raw = encoded
	}

	approval, err := approvals.Submit(c.Request.Context(), action, entity, entityID, raw, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, dto.SubmittedResponse{
		Approval: approval,
		Message:  "mutation queued for superadmin approval",
	}, nil)
}
