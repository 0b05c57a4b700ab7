// Package guard implements the access-control check used before any policy
// set mutation: "may this caller Edit/Delete/Read the given policy set?" is
// answered by running the same delegation machinery the public API exposes,
// against a synthetic request targeting the reserved PDP.Policy resource
// type. A caller is always permitted over its own issued policies.
package guard

import (
	"github.com/Moortu/authorization-registry-sub000/internal/evidence"
	"github.com/Moortu/authorization-registry-sub000/pkg/types"
)

// PDPPolicyResourceType is the reserved resource type used to model access
// to the registry's own stored policies as a delegation target.
const PDPPolicyResourceType = "PDP.Policy"

// EvidenceBuilder produces delegation evidence for a synthetic request; it is
// ordinarily evidence.Build bound to a store-backed StoredSetLookup.
type EvidenceBuilder func(req types.DelegationRequest) types.DelegationEvidence

// Guard gates policy-set mutations through the delegation evidence engine.
type Guard struct {
	build EvidenceBuilder
}

func New(build EvidenceBuilder) *Guard {
	return &Guard{build: build}
}

// May reports whether requesterCompanyID may perform action on a resource of
// resourceType, identified by identifiers (ordinarily the affected policies'
// own resource types) and owned by policyIssuer.
func (g *Guard) May(requesterCompanyID, action, policyIssuer string, resourceType string, identifiers []string) bool {
	if requesterCompanyID == policyIssuer {
		return true
	}

	req := types.DelegationRequest{
		PolicyIssuer: policyIssuer,
		Target:       types.DelegationTarget{AccessSubject: requesterCompanyID},
		PolicySets: []types.RequestPolicySet{{
			Policies: []types.Policy{{
				Target: types.ResourceTarget{
					Resource: types.Resource{
						ResourceType: resourceType,
						Identifiers:  identifiers,
						Attributes:   []string{"*"},
					},
					Actions: []string{action},
					Environment: &types.Environment{
						ServiceProviders: []string{requesterCompanyID},
					},
				},
				Rules: []types.ResourceRule{{Effect: types.EffectPermit}},
			}},
		}},
	}

	ev := g.build(req)
	return evidence.IsPermit(ev)
}
