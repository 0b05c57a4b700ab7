package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Moortu/authorization-registry-sub000/pkg/types"
)

func TestMay_OwnerAlwaysPermitted(t *testing.T) {
	g := New(func(req types.DelegationRequest) types.DelegationEvidence {
		t.Fatal("evidence builder should not be called when requester is the issuer")
		return types.DelegationEvidence{}
	})

	assert.True(t, g.May("EU.EORI.SAME", "Edit", "EU.EORI.SAME", PDPPolicyResourceType, []string{"policy-set-1"}))
}

func TestMay_DelegatesToEvidenceBuilderForOthers(t *testing.T) {
	var capturedReq types.DelegationRequest
	g := New(func(req types.DelegationRequest) types.DelegationEvidence {
		capturedReq = req
		return types.DelegationEvidence{
			PolicySets: []types.EvidencePolicySet{{
				Policies: []types.Policy{{Rules: []types.ResourceRule{{Effect: types.EffectPermit}}}},
			}},
		}
	})

	allowed := g.May("EU.EORI.OTHER", "Edit", "EU.EORI.ISSUER", PDPPolicyResourceType, []string{"policy-set-1"})

	assert.True(t, allowed)
	assert.Equal(t, "EU.EORI.ISSUER", capturedReq.PolicyIssuer)
	assert.Equal(t, "EU.EORI.OTHER", capturedReq.Target.AccessSubject)
	assert.Equal(t, PDPPolicyResourceType, capturedReq.PolicySets[0].Policies[0].Target.Resource.ResourceType)
}

func TestMay_UsesSuppliedResourceType(t *testing.T) {
	var capturedReq types.DelegationRequest
	g := New(func(req types.DelegationRequest) types.DelegationEvidence {
		capturedReq = req
		return types.DelegationEvidence{
			PolicySets: []types.EvidencePolicySet{{
				Policies: []types.Policy{{Rules: []types.ResourceRule{{Effect: types.EffectPermit}}}},
			}},
		}
	})

	g.May("EU.EORI.OTHER", "Read", "EU.EORI.ISSUER", "AuditLog", nil)

	assert.Equal(t, "AuditLog", capturedReq.PolicySets[0].Policies[0].Target.Resource.ResourceType)
}

func TestMay_DeniesWhenEvidenceIsNotPermit(t *testing.T) {
	g := New(func(req types.DelegationRequest) types.DelegationEvidence {
		return types.DelegationEvidence{
			PolicySets: []types.EvidencePolicySet{{
				Policies: []types.Policy{{Rules: []types.ResourceRule{{Effect: types.EffectDeny}}}},
			}},
		}
	})

	assert.False(t, g.May("EU.EORI.OTHER", "Edit", "EU.EORI.ISSUER", PDPPolicyResourceType, []string{"policy-set-1"}))
}
