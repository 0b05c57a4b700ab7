package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Moortu/authorization-registry-sub000/internal/apperr"
	"github.com/Moortu/authorization-registry-sub000/internal/delegationapi"
	"github.com/Moortu/authorization-registry-sub000/pkg/types"
)

type DelegationHandler struct {
	controller *delegationapi.Controller
}

func NewDelegationHandler(controller *delegationapi.Controller) *DelegationHandler {
	return &DelegationHandler{controller: controller}
}

// PostDelegation handles POST /delegation. When the Accept header requests
// application/json it returns the raw DelegationEvidenceContainer; otherwise
// it signs the evidence as a delegation token and returns {delegation_token}.
func (h *DelegationHandler) PostDelegation(c *gin.Context) {
	var body types.DelegationRequestContainer
	if err := c.ShouldBindJSON(&body); err != nil {
		c.Error(apperr.BadRequest("invalid delegation request body"))
		return
	}

	if err := validateDelegationRequest(body.DelegationRequest); err != nil {
		c.Error(err)
		return
	}

	role, _ := RoleFromContext(c)
	if !delegationapi.CheckAccess(role.CompanyID(), body.DelegationRequest) {
		c.Error(apperr.Unauthorized("not authorized to request delegation evidence for this policy issuer and access subject"))
		return
	}

	ev, err := h.controller.CreateDelegationEvidence(c.Request.Context(), body.DelegationRequest)
	if err != nil {
		c.Error(err)
		return
	}

	if c.GetHeader("Accept") == "application/json" {
		c.JSON(http.StatusOK, types.DelegationEvidenceContainer{
			DelegationRequest:  body.DelegationRequest,
			DelegationEvidence: ev,
		})
		return
	}

	token, err := h.controller.CreateDelegationToken(body.DelegationRequest, ev, role.CompanyID())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"delegation_token": token})
}

// validateDelegationRequest enforces the basic shape checks S4/S5: a wildcard
// resource_type or empty identifiers is rejected before the matching engine
// ever runs.
func validateDelegationRequest(req types.DelegationRequest) error {
	for _, ps := range req.PolicySets {
		for _, p := range ps.Policies {
			if p.Target.Resource.ResourceType == "*" {
				return apperr.BadRequest("resource type must not be a wildcard")
			}
			if len(p.Target.Resource.Identifiers) == 0 {
				return apperr.BadRequest("identifiers must not be empty")
			}
			if len(p.Target.Resource.Attributes) == 0 {
				return apperr.BadRequest("attributes must not be empty")
			}
		}
	}
	return nil
}
