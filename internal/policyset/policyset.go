// Package policyset implements the policy-set CRUD lifecycle: every mutation
// other than an issuer acting on its own policy set is gated by the access
// guard, which re-runs the delegation engine against a synthetic PDP.Policy
// request before the store is touched.
package policyset

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/Moortu/authorization-registry-sub000/internal/apperr"
	"github.com/Moortu/authorization-registry-sub000/internal/audit"
	"github.com/Moortu/authorization-registry-sub000/internal/guard"
	"github.com/Moortu/authorization-registry-sub000/internal/store"
	"github.com/Moortu/authorization-registry-sub000/internal/trust"
	"github.com/Moortu/authorization-registry-sub000/pkg/types"
)

const (
	actionCreate = "Create"
	actionRead   = "Read"
	actionEdit   = "Edit"
	actionDelete = "Delete"
)

// Controller implements the policy-set lifecycle endpoints.
type Controller struct {
	store       store.Store
	auditStore  audit.Store
	guard       *guard.Guard
	trustClient trust.Client
}

func New(s store.Store, a audit.Store, g *guard.Guard, t trust.Client) *Controller {
	return &Controller{store: s, auditStore: a, guard: g, trustClient: t}
}

// CreatePolicySet inserts ps, requiring requesterCompanyID to be the
// policy issuer or to hold a delegation grant authorizing Create on the
// issuer's resource types (unless creating admin, in which case the caller
// is expected to have already authorized via the admin realm role). Every
// party named on ps — the issuer, the access subject, and any service
// providers named on its policies — must be known at the trust anchor.
func (c *Controller) CreatePolicySet(ctx context.Context, requesterCompanyID string, ps types.PolicySet, admin bool) (uuid.UUID, error) {
	if err := c.validateParties(ctx, ps); err != nil {
		return uuid.Nil, err
	}

	if !admin && !c.guard.May(requesterCompanyID, actionCreate, ps.PolicyIssuer, guard.PDPPolicyResourceType, resourceTypes(ps.Policies)) {
		return uuid.Nil, apperr.Forbidden("requester is not authorized to create this policy set")
	}

	id, err := c.store.InsertPolicySet(ctx, ps)
	if err != nil {
		return uuid.Nil, apperr.Wrap("policyset: inserting policy set", err)
	}

	c.logEdited(ctx, ps.PolicyIssuer, types.PolicySetCreatedMetadata{PolicySetID: id})
	return id, nil
}

// validateParties checks the policy issuer, access subject, and every
// service provider named on ps's policies against the trust anchor,
// rejecting with 400 naming the offending field on the first unknown party.
func (c *Controller) validateParties(ctx context.Context, ps types.PolicySet) error {
	if _, err := c.trustClient.ValidateParty(ctx, ps.PolicyIssuer); err != nil {
		return apperr.BadRequest("policyIssuer is not a known party: " + ps.PolicyIssuer)
	}
	if _, err := c.trustClient.ValidateParty(ctx, ps.Target.AccessSubject); err != nil {
		return apperr.BadRequest("target.accessSubject is not a known party: " + ps.Target.AccessSubject)
	}
	for _, p := range ps.Policies {
		if p.Target.Environment == nil {
			continue
		}
		for _, sp := range p.Target.Environment.ServiceProviders {
			if _, err := c.trustClient.ValidateParty(ctx, sp); err != nil {
				return apperr.BadRequest("target.environment.serviceProviders is not a known party: " + sp)
			}
		}
	}
	return nil
}

// resourceTypes collects the resource_type of every policy, the identifiers
// the access guard checks a delegation grant against for a policy-set-level
// operation.
func resourceTypes(policies []types.Policy) []string {
	out := make([]string, 0, len(policies))
	for _, p := range policies {
		out = append(out, p.Target.Resource.ResourceType)
	}
	return out
}

// resourceTypeOf returns the resource_type of the single policy identified
// by id within policies, as a single-element slice for the access guard
// check gating its removal.
func resourceTypeOf(policies []types.Policy, id uuid.UUID) []string {
	for _, p := range policies {
		if p.ID == id {
			return []string{p.Target.Resource.ResourceType}
		}
	}
	return nil
}

// GetPolicySet returns the policy set identified by id, if requesterCompanyID
// may Read it.
func (c *Controller) GetPolicySet(ctx context.Context, requesterCompanyID string, id uuid.UUID) (*types.PolicySet, error) {
	ps, err := c.store.GetPolicySet(ctx, id)
	if err != nil {
		return nil, apperr.Wrap("policyset: loading policy set", err)
	}
	if ps == nil {
		return nil, apperr.NotFound("policy set not found")
	}

	if !c.guard.May(requesterCompanyID, actionRead, ps.PolicyIssuer, guard.PDPPolicyResourceType, resourceTypes(ps.Policies)) {
		return nil, apperr.Forbidden("not authorized to read this policy set")
	}
	return ps, nil
}

// DeletePolicySet removes the policy set identified by id, if
// requesterCompanyID may Delete it.
func (c *Controller) DeletePolicySet(ctx context.Context, requesterCompanyID string, id uuid.UUID) error {
	ps, err := c.store.GetPolicySet(ctx, id)
	if err != nil {
		return apperr.Wrap("policyset: loading policy set", err)
	}
	if ps == nil {
		return apperr.NotFound("policy set not found")
	}
	if !c.guard.May(requesterCompanyID, actionDelete, ps.PolicyIssuer, guard.PDPPolicyResourceType, resourceTypes(ps.Policies)) {
		return apperr.Forbidden("not authorized to delete this policy set")
	}

	if err := c.store.DeletePolicySet(ctx, id); err != nil {
		return apperr.Wrap("policyset: deleting policy set", err)
	}
	c.logEdited(ctx, ps.PolicyIssuer, types.PolicySetDeletedMetadata{PolicySetID: id})
	return nil
}

// AddPolicy appends p to the policy set identified by policySetID, if
// requesterCompanyID may Edit it.
func (c *Controller) AddPolicy(ctx context.Context, requesterCompanyID string, policySetID uuid.UUID, p types.Policy) (uuid.UUID, error) {
	ps, err := c.store.GetPolicySet(ctx, policySetID)
	if err != nil {
		return uuid.Nil, apperr.Wrap("policyset: loading policy set", err)
	}
	if ps == nil {
		return uuid.Nil, apperr.NotFound("policy set not found")
	}
	if !c.guard.May(requesterCompanyID, actionEdit, ps.PolicyIssuer, guard.PDPPolicyResourceType, resourceTypes(ps.Policies)) {
		return uuid.Nil, apperr.Forbidden("not authorized to edit this policy set")
	}

	id, err := c.store.AddPolicy(ctx, policySetID, p)
	if err != nil {
		return uuid.Nil, apperr.Wrap("policyset: adding policy", err)
	}
	c.logEdited(ctx, ps.PolicyIssuer, types.PolicySetEditedMetadata{
		PolicySetID: policySetID, EditType: types.EditTypePolicyAdded, PolicyID: &id,
	})
	return id, nil
}

// ReplacePolicy swaps oldPolicyID for a new policy p within policySetID, if
// requesterCompanyID may Edit it.
func (c *Controller) ReplacePolicy(ctx context.Context, requesterCompanyID string, policySetID, oldPolicyID uuid.UUID, p types.Policy) (uuid.UUID, error) {
	ps, err := c.store.GetPolicySet(ctx, policySetID)
	if err != nil {
		return uuid.Nil, apperr.Wrap("policyset: loading policy set", err)
	}
	if ps == nil {
		return uuid.Nil, apperr.NotFound("policy set not found")
	}
	if !c.guard.May(requesterCompanyID, actionEdit, ps.PolicyIssuer, guard.PDPPolicyResourceType, resourceTypes(ps.Policies)) {
		return uuid.Nil, apperr.Forbidden("not authorized to edit this policy set")
	}

	newID, err := c.store.ReplacePolicy(ctx, policySetID, oldPolicyID, p)
	if err != nil {
		return uuid.Nil, apperr.Wrap("policyset: replacing policy", err)
	}
	c.logEdited(ctx, ps.PolicyIssuer, types.PolicySetEditedMetadata{
		PolicySetID: policySetID, EditType: types.EditTypePolicyReplaced, OldPolicyID: &oldPolicyID, NewPolicyID: &newID,
	})
	return newID, nil
}

// RemovePolicy removes policyID from policySetID, if requesterCompanyID may
// Edit it.
func (c *Controller) RemovePolicy(ctx context.Context, requesterCompanyID string, policySetID, policyID uuid.UUID) error {
	ps, err := c.store.GetPolicySet(ctx, policySetID)
	if err != nil {
		return apperr.Wrap("policyset: loading policy set", err)
	}
	if ps == nil {
		return apperr.NotFound("policy set not found")
	}
	if !c.guard.May(requesterCompanyID, actionEdit, ps.PolicyIssuer, guard.PDPPolicyResourceType, resourceTypeOf(ps.Policies, policyID)) {
		return apperr.Forbidden("not authorized to edit this policy set")
	}

	if err := c.store.DeletePolicy(ctx, policySetID, policyID); err != nil {
		return apperr.Wrap("policyset: removing policy", err)
	}
	c.logEdited(ctx, ps.PolicyIssuer, types.PolicySetEditedMetadata{
		PolicySetID: policySetID, EditType: types.EditTypePolicyRemoved, PolicyID: &policyID,
	})
	return nil
}

func (c *Controller) logEdited(ctx context.Context, source string, metadata any) {
	data, err := json.Marshal(metadata)
	if err != nil {
		return
	}
	eventType := types.EventPolicySetEdited
	switch metadata.(type) {
	case types.PolicySetCreatedMetadata:
		eventType = types.EventPolicySetCreated
	case types.PolicySetDeletedMetadata:
		eventType = types.EventPolicySetDeleted
	}
	_ = c.auditStore.LogEvent(ctx, source, eventType, &source, json.RawMessage(data))
}
