// Package evidence builds signed-ready DelegationEvidence from a
// DelegationRequest and the matching engine's output, stamping the validity
// window from a clock.Clock so tests never depend on wall time.
package evidence

import (
	"github.com/Moortu/authorization-registry-sub000/internal/matching"
	"github.com/Moortu/authorization-registry-sub000/pkg/types"
)

// DefaultValiditySeconds is used when the caller passes validitySeconds <= 0.
const DefaultValiditySeconds = 3600

// StoredSetLookup resolves the candidate stored policy sets for one requested
// policy set; it is supplied by the caller (C1 via C4/C5/C6) so this package
// stays free of any storage dependency.
type StoredSetLookup func(requested types.RequestPolicySet) []matching.StoredPolicySet

// Clock is the minimal time source this package needs.
type Clock interface {
	NowUnix() int64
}

// Build produces a DelegationEvidence for req, folding each requested policy
// set against its own candidate lookup and emitting one masked policy set per
// matching stored set (or one default-deny set when none match), so the
// result is the cartesian emission across req.PolicySets.
func Build(clk Clock, req types.DelegationRequest, lookup StoredSetLookup, validitySeconds int64) types.DelegationEvidence {
	if validitySeconds <= 0 {
		validitySeconds = DefaultValiditySeconds
	}
	now := clk.NowUnix()

	var policySets []types.EvidencePolicySet
	for _, requested := range req.PolicySets {
		candidates := lookup(requested)
		policySets = append(policySets, matching.Evaluate(requested, candidates)...)
	}

	return types.DelegationEvidence{
		NotBefore:    now,
		NotOnOrAfter: now + validitySeconds,
		PolicyIssuer: req.PolicyIssuer,
		Target:       req.Target,
		PolicySets:   policySets,
	}
}

// IsPermit reports whether evidence grants Permit for every policy in every
// policy set — the predicate C4 uses to turn evidence into a boolean gate.
func IsPermit(ev types.DelegationEvidence) bool {
	if len(ev.PolicySets) == 0 {
		return false
	}
	for _, ps := range ev.PolicySets {
		for _, p := range ps.Policies {
			for _, r := range p.Rules {
				if !r.IsPermit() {
					return false
				}
			}
		}
	}
	return true
}
