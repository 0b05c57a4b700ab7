package evidence

import (
	"testing"

	"github.com/Moortu/authorization-registry-sub000/internal/matching"
	"github.com/Moortu/authorization-registry-sub000/pkg/types"
)

type fixedClock struct{ unix int64 }

func (f fixedClock) NowUnix() int64 { return f.unix }

func TestBuild_StampsValidityWindow(t *testing.T) {
	req := types.DelegationRequest{
		PolicyIssuer: "EU.EORI.ISSUER",
		Target:       types.DelegationTarget{AccessSubject: "EU.EORI.SUBJECT"},
		PolicySets: []types.RequestPolicySet{{
			Policies: []types.Policy{{
				Target: types.ResourceTarget{
					Resource: types.Resource{ResourceType: "Asset", Identifiers: []string{"a1"}, Attributes: []string{"*"}},
					Actions:  []string{"read"},
				},
			}},
		}},
	}

	lookup := func(requested types.RequestPolicySet) []matching.StoredPolicySet {
		return []matching.StoredPolicySet{{
			Licenses: []string{"ISHARE.0001"},
			Policies: []types.Policy{{
				Target: types.ResourceTarget{
					Resource: types.Resource{ResourceType: "Asset", Identifiers: []string{"*"}, Attributes: []string{"*"}},
					Actions:  []string{"read"},
				},
				Rules: []types.ResourceRule{{Effect: types.EffectPermit}},
			}},
		}}
	}

	ev := Build(fixedClock{unix: 1000}, req, lookup, 500)
	if ev.NotBefore != 1000 || ev.NotOnOrAfter != 1500 {
		t.Fatalf("unexpected window: %d..%d", ev.NotBefore, ev.NotOnOrAfter)
	}
	if !IsPermit(ev) {
		t.Fatal("expected evidence to be Permit")
	}
}

func TestBuild_DefaultValidityWhenUnspecified(t *testing.T) {
	req := types.DelegationRequest{PolicyIssuer: "X", Target: types.DelegationTarget{AccessSubject: "Y"}}
	lookup := func(types.RequestPolicySet) []matching.StoredPolicySet { return nil }

	ev := Build(fixedClock{unix: 0}, req, lookup, 0)
	if ev.NotOnOrAfter != DefaultValiditySeconds {
		t.Fatalf("expected default validity window, got %d", ev.NotOnOrAfter)
	}
}

func TestIsPermit_EmptyPolicySetsIsNotPermit(t *testing.T) {
	if IsPermit(types.DelegationEvidence{}) {
		t.Fatal("empty evidence must not be Permit")
	}
}
