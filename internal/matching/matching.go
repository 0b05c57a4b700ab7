// Package matching implements the pure masking/matching algorithm that folds
// a delegation request against candidate stored policy sets. Every function
// here is total and side-effect-free: no I/O, no locks, safe to call
// concurrently from any goroutine.
package matching

import "github.com/Moortu/authorization-registry-sub000/pkg/types"

// StoredPolicySet is a policy set already narrowed by the caller to
// (policy_issuer == request.policy_issuer AND access_subject ==
// request.target.access_subject); the matching engine never filters on
// those fields itself.
type StoredPolicySet struct {
	MaxDelegationDepth int
	Licenses           []string
	Policies           []types.Policy
}

// ContainedBy reports whether every element of a is a member of b.
func ContainedBy(a, b []string) bool {
	set := make(map[string]struct{}, len(b))
	for _, v := range b {
		set[v] = struct{}{}
	}
	for _, v := range a {
		if _, ok := set[v]; !ok {
			return false
		}
	}
	return true
}

// StarOrContainedBy reports b[0] == "*" OR ContainedBy(a, b). Deliberately
// asymmetric: only the stored side's first element is inspected for a
// wildcard, so a stored ["x","*"] does NOT wildcard while stored ["*"] does.
// Preserved from the reference implementation; see Open Questions.
func StarOrContainedBy(a, b []string) bool {
	if len(b) > 0 && b[0] == "*" {
		return true
	}
	return ContainedBy(a, b)
}

// IsMatch reports whether a requested policy p is matched by a stored policy sp.
func IsMatch(p types.Policy, sp types.Policy) bool {
	if p.Target.Resource.ResourceType != sp.Target.Resource.ResourceType {
		return false
	}
	if !StarOrContainedBy(p.Target.Resource.Identifiers, sp.Target.Resource.Identifiers) {
		return false
	}
	if !StarOrContainedBy(p.Target.Resource.Attributes, sp.Target.Resource.Attributes) {
		return false
	}
	if !StarOrContainedBy(p.Target.Actions, sp.Target.Actions) {
		return false
	}
	if p.Target.Environment != nil {
		var storedServiceProviders []string
		if sp.Target.Environment != nil {
			storedServiceProviders = sp.Target.Environment.ServiceProviders
		}
		if !ContainedBy(p.Target.Environment.ServiceProviders, storedServiceProviders) {
			return false
		}
	}
	return true
}

// isDenySubsuming reports whether a Deny rule's target fully subsumes a
// requested policy, per §4.2: identifiers/attributes/actions masked, exact
// resource_type match, service providers intentionally NOT consulted.
func isDenySubsuming(p types.Policy, target *types.Target) bool {
	if target == nil {
		return false
	}
	if p.Target.Resource.ResourceType != target.Resource.ResourceType {
		return false
	}
	if !StarOrContainedBy(p.Target.Resource.Identifiers, target.Resource.Identifiers) {
		return false
	}
	if !StarOrContainedBy(p.Target.Resource.Attributes, target.Resource.Attributes) {
		return false
	}
	if !StarOrContainedBy(p.Target.Actions, target.Actions) {
		return false
	}
	return true
}

// IsPermit decides Permit/Deny for a requested policy p against the stored
// policies within a single matching PolicySet: Permit iff every stored
// policy that matches p is Permit-effective for p (no Deny rule subsumes it).
func IsPermit(p types.Policy, stored StoredPolicySet) bool {
	matchedAny := false
	for _, sp := range stored.Policies {
		if !IsMatch(p, sp) {
			continue
		}
		matchedAny = true
		for _, rule := range sp.Rules {
			if rule.IsPermit() {
				continue
			}
			if isDenySubsuming(p, rule.Target) {
				return false
			}
		}
	}
	return matchedAny
}

// matchesPolicySet reports whether every requested policy in rs has at least
// one matching stored policy in ps.
func matchesPolicySet(requested []types.Policy, ps StoredPolicySet) bool {
	for _, p := range requested {
		matched := false
		for _, sp := range ps.Policies {
			if IsMatch(p, sp) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// defaultDenyLicense is the license carried on the default-deny fallback set.
const defaultDenyLicense = "ISHARE.0001"

// Evaluate runs the full masking/matching/Permit-Deny algorithm for one
// requested policy set against the candidate stored policy sets already
// narrowed to the (issuer, subject) pair. It returns one emitted
// EvidencePolicySet per matching stored set (cartesian emission across
// multiple requested sets is the caller's responsibility — call Evaluate once
// per requested set); if none match, it returns exactly one default-deny
// fallback set.
func Evaluate(requested types.RequestPolicySet, candidates []StoredPolicySet) []types.EvidencePolicySet {
	var emitted []types.EvidencePolicySet

	for _, ps := range candidates {
		if !matchesPolicySet(requested.Policies, ps) {
			continue
		}

		policies := make([]types.Policy, 0, len(requested.Policies))
		for _, p := range requested.Policies {
			effect := types.EffectDeny
			if IsPermit(p, ps) {
				effect = types.EffectPermit
			}
			policies = append(policies, types.Policy{
				ID:     p.ID,
				Target: p.Target,
				Rules:  []types.ResourceRule{{Effect: effect}},
			})
		}

		emitted = append(emitted, types.EvidencePolicySet{
			MaxDelegationDepth: ps.MaxDelegationDepth,
			Licenses:           ps.Licenses,
			Policies:           policies,
		})
	}

	if len(emitted) == 0 {
		policies := make([]types.Policy, 0, len(requested.Policies))
		for _, p := range requested.Policies {
			policies = append(policies, types.Policy{
				ID:     p.ID,
				Target: p.Target,
				Rules:  []types.ResourceRule{{Effect: types.EffectDeny}},
			})
		}
		emitted = append(emitted, types.EvidencePolicySet{
			MaxDelegationDepth: 0,
			Licenses:           []string{defaultDenyLicense},
			Policies:           policies,
		})
	}

	return emitted
}
