package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Moortu/authorization-registry-sub000/internal/apperr"
	"github.com/Moortu/authorization-registry-sub000/internal/session"
	"github.com/Moortu/authorization-registry-sub000/pkg/types"
)

const contextRoleKey = "authz_role"

// adminRole is the realm-access role that grants a Human caller the
// dexspace-admin surface (admin policy-set creation, etc.).
const adminRole = "dexspace_admin"

// ExtractRole decodes the bearer session token and stores the resulting Role
// in the gin context for downstream handlers and middleware.
func ExtractRole(tokens *session.ServerToken, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			abortExpected(c, apperr.Unauthorized("missing bearer token"))
			return
		}

		role, err := tokens.DecodeToken(raw)
		if err != nil {
			logger.Debug("rejected session token", zap.Error(err))
			abortExpected(c, apperr.Unauthorized("invalid session token"))
			return
		}

		c.Set(contextRoleKey, role)
		c.Next()
	}
}

// RequireHuman ensures the caller carries a Human role, promoting a Machine
// caller whose company_id matches allowed into a synthetic admin Human.
func RequireHuman(allowed string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)
		if !ok {
			abortExpected(c, apperr.Unauthorized("missing role"))
			return
		}

		if role.Kind == types.RoleHuman {
			c.Next()
			return
		}

		if role.Kind == types.RoleMachine && role.Machine.CompanyID == allowed {
			c.Set(contextRoleKey, types.Role{
				Kind: types.RoleHuman,
				Human: types.HumanRole{
					CompanyID:        role.Machine.CompanyID,
					UserID:           role.Machine.CompanyID,
					RealmAccessRoles: []string{adminRole},
				},
			})
			c.Next()
			return
		}

		abortExpected(c, apperr.Forbidden("human role required"))
	}
}

// RequireRole ensures the caller's Human role carries at least one of the
// required realm-access roles.
func RequireRole(required ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)
		if !ok || role.Kind != types.RoleHuman {
			abortExpected(c, apperr.Forbidden("human role required"))
			return
		}

		have := make(map[string]struct{}, len(role.Human.RealmAccessRoles))
		for _, r := range role.Human.RealmAccessRoles {
			have[r] = struct{}{}
		}
		for _, r := range required {
			if _, ok := have[r]; ok {
				c.Next()
				return
			}
		}
		abortExpected(c, apperr.Forbidden("missing required role"))
	}
}

// RoleFromContext retrieves the Role set by ExtractRole.
func RoleFromContext(c *gin.Context) (types.Role, bool) {
	v, ok := c.Get(contextRoleKey)
	if !ok {
		return types.Role{}, false
	}
	role, ok := v.(types.Role)
	return role, ok
}

// abortExpected writes an Expected error's status/message and aborts the chain.
func abortExpected(c *gin.Context, err *apperr.Expected) {
	c.AbortWithStatusJSON(err.StatusCode, gin.H{"error": err.Message})
}

// ErrorHandler centralizes translation from a handler's returned error into
// an HTTP response: Expected errors surface their message and status;
// anything else is logged in full and returned as a generic 500.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		var expected *apperr.Expected
		if asExpected(err, &expected) {
			body := gin.H{"error": expected.Message}
			if expected.Metadata != nil {
				body["metadata"] = expected.Metadata
			}
			c.JSON(expected.StatusCode, body)
			return
		}

		logger.Error("unexpected error handling request",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something unexpected went wrong"})
	}
}

func asExpected(err error, target **apperr.Expected) bool {
	for err != nil {
		if e, ok := err.(*apperr.Expected); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
