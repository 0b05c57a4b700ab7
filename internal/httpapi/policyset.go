package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Moortu/authorization-registry-sub000/internal/apperr"
	"github.com/Moortu/authorization-registry-sub000/internal/policyset"
	"github.com/Moortu/authorization-registry-sub000/pkg/types"
)

type PolicySetHandler struct {
	controller *policyset.Controller
}

func NewPolicySetHandler(controller *policyset.Controller) *PolicySetHandler {
	return &PolicySetHandler{controller: controller}
}

func (h *PolicySetHandler) Create(c *gin.Context) {
	var ps types.PolicySet
	if err := c.ShouldBindJSON(&ps); err != nil {
		c.Error(apperr.BadRequest("invalid policy set body"))
		return
	}

	role, _ := RoleFromContext(c)
	id, err := h.controller.CreatePolicySet(c.Request.Context(), role.CompanyID(), ps, false)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *PolicySetHandler) CreateAdmin(c *gin.Context) {
	var ps types.PolicySet
	if err := c.ShouldBindJSON(&ps); err != nil {
		c.Error(apperr.BadRequest("invalid policy set body"))
		return
	}

	id, err := h.controller.CreatePolicySet(c.Request.Context(), ps.PolicyIssuer, ps, true)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *PolicySetHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperr.BadRequest("invalid policy set id"))
		return
	}

	role, _ := RoleFromContext(c)
	ps, err := h.controller.GetPolicySet(c.Request.Context(), role.CompanyID(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ps)
}

func (h *PolicySetHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperr.BadRequest("invalid policy set id"))
		return
	}

	role, _ := RoleFromContext(c)
	if err := h.controller.DeletePolicySet(c.Request.Context(), role.CompanyID(), id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PolicySetHandler) AddPolicy(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperr.BadRequest("invalid policy set id"))
		return
	}

	var p types.Policy
	if err := c.ShouldBindJSON(&p); err != nil {
		c.Error(apperr.BadRequest("invalid policy body"))
		return
	}

	role, _ := RoleFromContext(c)
	policyID, err := h.controller.AddPolicy(c.Request.Context(), role.CompanyID(), id, p)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": policyID})
}

func (h *PolicySetHandler) ReplacePolicy(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperr.BadRequest("invalid policy set id"))
		return
	}
	oldPolicyID, err := uuid.Parse(c.Param("policyId"))
	if err != nil {
		c.Error(apperr.BadRequest("invalid policy id"))
		return
	}

	var p types.Policy
	if err := c.ShouldBindJSON(&p); err != nil {
		c.Error(apperr.BadRequest("invalid policy body"))
		return
	}

	role, _ := RoleFromContext(c)
	newID, err := h.controller.ReplacePolicy(c.Request.Context(), role.CompanyID(), id, oldPolicyID, p)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": newID})
}

func (h *PolicySetHandler) RemovePolicy(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperr.BadRequest("invalid policy set id"))
		return
	}
	policyID, err := uuid.Parse(c.Param("policyId"))
	if err != nil {
		c.Error(apperr.BadRequest("invalid policy id"))
		return
	}

	role, _ := RoleFromContext(c)
	if err := h.controller.RemovePolicy(c.Request.Context(), role.CompanyID(), id, policyID); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
