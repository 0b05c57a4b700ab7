package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Moortu/authorization-registry-sub000/internal/apperr"
	"github.com/Moortu/authorization-registry-sub000/internal/session"
)

// ConnectHandler implements the machine/human authentication surface: a
// machine posts a token request and receives a bearer session token; a human
// is redirected to the configured IdP, whose authorization-code callback is
// answered with 501 Not Implemented.
type ConnectHandler struct {
	tokens        *session.ServerToken
	idpURL        string
	idpRedirectTo string
}

func NewConnectHandler(tokens *session.ServerToken, idpURL, idpRedirectTo string) *ConnectHandler {
	return &ConnectHandler{tokens: tokens, idpURL: idpURL, idpRedirectTo: idpRedirectTo}
}

type machineTokenRequest struct {
	GrantType           string `json:"grant_type" binding:"required"`
	ClientID            string `json:"client_id" binding:"required"`
	ClientAssertion     string `json:"client_assertion" binding:"required"`
	ClientAssertionType string `json:"client_assertion_type" binding:"required"`
	Scope               string `json:"scope"`
}

// MachineToken handles POST /connect/machine/token: issues a Machine-role
// session token for client_id when grant_type is client_credentials. The
// client assertion must be present but is not validated; no satellite or
// trust-package call is made.
func (h *ConnectHandler) MachineToken(c *gin.Context) {
	var req machineTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperr.BadRequest("invalid token request"))
		return
	}
	if req.GrantType != "client_credentials" {
		c.Error(apperr.BadRequest("unsupported grant_type"))
		return
	}

	token, err := h.tokens.CreateToken(req.ClientID, nil)
	if err != nil {
		c.Error(apperr.Wrap("connect: issuing machine token", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "Bearer"})
}

// HumanAuthRedirect handles GET /connect/human/auth: redirects the caller to
// the configured identity provider's authorization endpoint.
func (h *ConnectHandler) HumanAuthRedirect(c *gin.Context) {
	c.Redirect(http.StatusFound, h.idpURL)
}

// HumanAuthCode handles GET /connect/human/auth/code, the IdP callback: it
// rejects a missing code with 400 and otherwise answers 501 Not Implemented;
// no code exchange takes place and no session token is issued.
func (h *ConnectHandler) HumanAuthCode(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.Error(apperr.BadRequest("missing code parameter"))
		return
	}
	c.Error(apperr.NewExpected(http.StatusNotImplemented, "human auth code exchange not configured", "idp connector not wired"))
}
