package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Moortu/authorization-registry-sub000/internal/apperr"
	"github.com/Moortu/authorization-registry-sub000/internal/audit"
	"github.com/Moortu/authorization-registry-sub000/internal/guard"
)

const defaultAuditMaxResults = 500

// auditLogResourceType is the reserved resource type gating audit-log reads
// through the access guard, mirroring PDP.Policy for policy sets.
const auditLogResourceType = "AuditLog"

type AuditLogHandler struct {
	auditStore audit.Store
	guard      *guard.Guard
}

func NewAuditLogHandler(auditStore audit.Store, g *guard.Guard) *AuditLogHandler {
	return &AuditLogHandler{auditStore: auditStore, guard: g}
}

// Retrieve handles GET /audit-log, gated on the caller being permitted to
// Read the AuditLog resource owned by controllerEORI (the controllerEori
// query parameter, identifying whose log is being read).
func (h *AuditLogHandler) Retrieve(c *gin.Context) {
	controllerEORI := c.Query("controllerEori")
	role, _ := RoleFromContext(c)

	if !h.guard.May(role.CompanyID(), "Read", controllerEORI, auditLogResourceType, nil) {
		c.Error(apperr.Unauthorized("not authorized to read this audit log"))
		return
	}

	f := audit.Filter{MaxResults: defaultAuditMaxResults}
	if raw := c.Query("max-results"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			f.MaxResults = n
		}
	}
	if raw := c.Query("from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			f.From = &t
		}
	}
	if raw := c.Query("to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			f.To = &t
		}
	}
	if raw := c.Query("eventTypes"); raw != "" {
		f.EventTypes = strings.Split(raw, ",")
	}

	events, err := h.auditStore.RetrieveEvents(c.Request.Context(), f)
	if err != nil {
		c.Error(err)
		return
	}

	out := make([]any, 0, len(events))
	for _, ev := range events {
		out = append(out, audit.WithIssAndSub(ev, controllerEORI, role.CompanyID()))
	}
	c.JSON(http.StatusOK, out)
}
