// Package httpapi assembles the gin router: middleware, route groups, and
// the handlers backing each iSHARE Authorization Registry endpoint.
package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Moortu/authorization-registry-sub000/internal/audit"
	"github.com/Moortu/authorization-registry-sub000/internal/delegationapi"
	"github.com/Moortu/authorization-registry-sub000/internal/guard"
	"github.com/Moortu/authorization-registry-sub000/internal/policyset"
	"github.com/Moortu/authorization-registry-sub000/internal/session"
	"github.com/Moortu/authorization-registry-sub000/internal/trust"
)

// Deps are the collaborators the router needs; main wires these up from
// config, the database connection, and the trust client.
type Deps struct {
	Logger              *zap.Logger
	Tokens              *session.ServerToken
	Delegation          *delegationapi.Controller
	PolicySets          *policyset.Controller
	AuditStore          audit.Store
	Guard               *guard.Guard
	TrustClient         trust.Client
	ClientEORI          string
	IDPURL              string
	AllowedAdminCompany string
	DeployRoute         string
}

// NewRouter assembles the full gin engine: /healthz, /metrics, /connect and
// /capabilities at the root, and the session-authenticated API under
// deps.DeployRoute.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), Metrics(), ErrorHandler(deps.Logger))

	r.GET("/healthz", func(c *gin.Context) { c.Status(200) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	connect := NewConnectHandler(deps.Tokens, deps.IDPURL, "")
	capabilities := NewCapabilitiesHandler(deps.TrustClient, deps.ClientEORI)

	connectGroup := r.Group("/connect")
	{
		connectGroup.POST("/machine/token", connect.MachineToken)
		connectGroup.GET("/human/auth", connect.HumanAuthRedirect)
		connectGroup.GET("/human/auth/code", connect.HumanAuthCode)
	}
	r.GET("/capabilities", capabilities.Get)

	api := r.Group(deps.DeployRoute)
	api.Use(ExtractRole(deps.Tokens, deps.Logger))

	delegationHandler := NewDelegationHandler(deps.Delegation)
	api.POST("/delegation", delegationHandler.PostDelegation)

	policySetHandler := NewPolicySetHandler(deps.PolicySets)
	api.POST("/policy-set", policySetHandler.Create)
	api.GET("/policy-set/:id", policySetHandler.Get)
	api.DELETE("/policy-set/:id", policySetHandler.Delete)
	api.POST("/policy-set/:id/policy", policySetHandler.AddPolicy)
	api.PUT("/policy-set/:id/policy/:policyId", policySetHandler.ReplacePolicy)
	api.DELETE("/policy-set/:id/policy/:policyId", policySetHandler.RemovePolicy)

	admin := api.Group("/admin")
	admin.Use(RequireHuman(deps.AllowedAdminCompany), RequireRole(adminRole))
	admin.POST("/policy-set", policySetHandler.CreateAdmin)

	auditLogHandler := NewAuditLogHandler(deps.AuditStore, deps.Guard)
	api.GET("/audit-log", auditLogHandler.Retrieve)

	return r
}
