// Package delegationapi implements the public delegation endpoint: fold a
// DelegationRequest against stored policy sets, stamp a validity window, log
// the request to the audit journal, and optionally sign the result as a
// delegation token for the requesting party.
package delegationapi

import (
	"context"
	"encoding/json"

	"github.com/Moortu/authorization-registry-sub000/internal/apperr"
	"github.com/Moortu/authorization-registry-sub000/internal/audit"
	"github.com/Moortu/authorization-registry-sub000/internal/clock"
	"github.com/Moortu/authorization-registry-sub000/internal/evidence"
	"github.com/Moortu/authorization-registry-sub000/internal/matching"
	"github.com/Moortu/authorization-registry-sub000/internal/store"
	"github.com/Moortu/authorization-registry-sub000/internal/trust"
	"github.com/Moortu/authorization-registry-sub000/pkg/types"
)

// Controller wires together C1 (store), C2/C3 (matching/evidence) and C7
// (audit) behind the public delegation endpoint.
type Controller struct {
	store           store.Store
	auditStore      audit.Store
	trustClient     trust.Client
	clk             clock.Clock
	deExpirySeconds int64
}

func New(s store.Store, a audit.Store, t trust.Client, clk clock.Clock, deExpirySeconds int64) *Controller {
	return &Controller{store: s, auditStore: a, trustClient: t, clk: clk, deExpirySeconds: deExpirySeconds}
}

// CreateDelegationEvidence folds req against the policy sets stored under
// (req.PolicyIssuer, req.Target.AccessSubject), then records the request in
// the audit journal.
func (c *Controller) CreateDelegationEvidence(ctx context.Context, req types.DelegationRequest) (types.DelegationEvidence, error) {
	var lookupErr error
	lookup := func(requested types.RequestPolicySet) []matching.StoredPolicySet {
		sets, err := c.store.FindPolicySets(ctx, req.PolicyIssuer, req.Target.AccessSubject)
		if err != nil {
			lookupErr = err
			return nil
		}
		return toStoredPolicySets(sets)
	}

	ev := evidence.Build(c.clk, req, lookup, c.deExpirySeconds)
	if lookupErr != nil {
		return types.DelegationEvidence{}, apperr.Wrap("delegationapi: loading policy sets", lookupErr)
	}

	if err := c.logRequest(ctx, req); err != nil {
		return types.DelegationEvidence{}, err
	}

	return ev, nil
}

// CreateDelegationToken signs ev (paired with the request that produced it)
// as a delegation token addressed to audience.
func (c *Controller) CreateDelegationToken(req types.DelegationRequest, ev types.DelegationEvidence, audience string) (string, error) {
	container := types.DelegationEvidenceContainer{DelegationRequest: req, DelegationEvidence: ev}
	token, err := c.trustClient.CreateDelegationToken(audience, container)
	if err != nil {
		return "", apperr.Wrap("delegationapi: signing delegation token", err)
	}
	return token, nil
}

func (c *Controller) logRequest(ctx context.Context, req types.DelegationRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return apperr.Wrap("delegationapi: marshaling audit data", err)
	}
	if err := c.auditStore.LogEvent(ctx, req.PolicyIssuer, types.EventDelegationRequest, nil, json.RawMessage(data)); err != nil {
		return apperr.Wrap("delegationapi: logging audit event", err)
	}
	return nil
}

// CheckAccess reports whether requesterCompanyID may request delegation
// evidence for req: allowed if the requester is the access subject, the
// policy issuer, or every service provider named across req's policies is
// the requester itself. Grounded on the original's check_delegation_access;
// the previous-step client-assertion path isn't wired here since this wire
// shape carries no previousSteps field for one to validate.
func CheckAccess(requesterCompanyID string, req types.DelegationRequest) bool {
	if requesterCompanyID == req.Target.AccessSubject {
		return true
	}
	if requesterCompanyID == req.PolicyIssuer {
		return true
	}

	var serviceProviders []string
	for _, ps := range req.PolicySets {
		for _, p := range ps.Policies {
			if p.Target.Environment != nil {
				serviceProviders = append(serviceProviders, p.Target.Environment.ServiceProviders...)
			}
		}
	}
	if len(serviceProviders) == 0 {
		return false
	}
	for _, sp := range serviceProviders {
		if sp != requesterCompanyID {
			return false
		}
	}
	return true
}

func toStoredPolicySets(sets []types.PolicySet) []matching.StoredPolicySet {
	out := make([]matching.StoredPolicySet, 0, len(sets))
	for _, ps := range sets {
		out = append(out, matching.StoredPolicySet{
			MaxDelegationDepth: ps.MaxDelegationDepth,
			Licenses:           ps.Licenses,
			Policies:           ps.Policies,
		})
	}
	return out
}

