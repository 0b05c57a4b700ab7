package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Moortu/authorization-registry-sub000/internal/apperr"
	"github.com/Moortu/authorization-registry-sub000/internal/trust"
)

type CapabilitiesHandler struct {
	trustClient trust.Client
	clientEORI  string
}

func NewCapabilitiesHandler(trustClient trust.Client, clientEORI string) *CapabilitiesHandler {
	return &CapabilitiesHandler{trustClient: trustClient, clientEORI: clientEORI}
}

// capabilitiesInfo is the payload the iSHARE scheme requires every party to
// publish at /capabilities, describing which roles and endpoint versions it
// supports.
type capabilitiesInfo struct {
	PartyID           string             `json:"party_id"`
	IshareRoles       []string           `json:"ishare_roles"`
	SupportedVersions []supportedVersion `json:"supported_versions"`
}

type supportedVersion struct {
	Version           string   `json:"version"`
	SupportedFeatures []string `json:"supported_features"`
}

// Get handles GET /capabilities: returns a satellite-signed capabilities token.
func (h *CapabilitiesHandler) Get(c *gin.Context) {
	info := capabilitiesInfo{
		PartyID:     h.clientEORI,
		IshareRoles: []string{"AuthorizationRegistry"},
		SupportedVersions: []supportedVersion{
			{Version: "2.0", SupportedFeatures: []string{"delegation", "policy", "audit_log"}},
		},
	}

	token, err := h.trustClient.CreateCapabilitiesToken(gin.H{"capabilities_info": info})
	if err != nil {
		c.Error(apperr.Wrap("capabilities: signing token", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"capabilities_token": token})
}
