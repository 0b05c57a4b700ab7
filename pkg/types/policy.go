// Package types holds the wire and storage shapes shared across the
// authorization registry: policy sets, delegation requests/evidence, and
// audit events.
package types

import (
	"time"

	"github.com/google/uuid"
)

// ResourceRule is a Permit/Deny variant on the wire, discriminated by Effect.
// Only Deny carries a Target; Permit grants outright.
type ResourceRule struct {
	Effect string  `json:"effect"`
	Target *Target `json:"target,omitempty"`
}

// Target narrows a Deny rule's carve-out to a resource/action tuple.
type Target struct {
	Resource TargetResource `json:"resource"`
	Actions  []string       `json:"actions,omitempty"`
}

// TargetResource is the resource half of a Deny rule's Target.
type TargetResource struct {
	ResourceType string   `json:"type"`
	Identifiers  []string `json:"identifiers,omitempty"`
	Attributes   []string `json:"attributes,omitempty"`
}

const (
	EffectPermit = "Permit"
	EffectDeny   = "Deny"
)

// IsPermit reports whether the rule is a bare Permit rule.
func (r ResourceRule) IsPermit() bool {
	return r.Effect == EffectPermit
}

// Environment narrows a policy to a set of service providers.
type Environment struct {
	ServiceProviders []string `json:"serviceProviders"`
}

// Resource names the resource type, identifiers, and attributes a policy's
// target covers. The literal "*" denotes a wildcard for identifiers and
// attributes; resource_type is never wildcarded.
type Resource struct {
	ResourceType string   `json:"type"`
	Identifiers  []string `json:"identifiers"`
	Attributes   []string `json:"attributes"`
}

// ResourceTarget pairs a Resource with the actions a policy governs and the
// environment it applies in.
type ResourceTarget struct {
	Resource    Resource     `json:"resource"`
	Actions     []string     `json:"actions"`
	Environment *Environment `json:"environment,omitempty"`
}

// Policy is either a requested policy (inbound on a DelegationRequest) or a
// stored policy (persisted under a PolicySet). Rules is not validated on
// insert: an empty list, or one whose first rule is not Permit, is stored as
// given.
type Policy struct {
	ID     uuid.UUID      `json:"id,omitempty"`
	Target ResourceTarget `json:"target"`
	Rules  []ResourceRule `json:"rules"`
}

// PolicySet groups policies under one (issuer, subject, license, depth) tuple.
type PolicySet struct {
	ID                 uuid.UUID        `json:"id,omitempty"`
	PolicyIssuer       string           `json:"policyIssuer"`
	Target             DelegationTarget `json:"target"`
	Licenses           []string         `json:"licences"`
	MaxDelegationDepth int              `json:"maxDelegationDepth"`
	Policies           []Policy         `json:"policies"`
	CreatedAt          time.Time        `json:"-"`
}

// DelegationTarget names the access subject a policy set or request concerns.
type DelegationTarget struct {
	AccessSubject string `json:"accessSubject"`
}

// DelegationRequest is the inbound shape asking "may access-subject do X on
// behalf of policy-issuer?".
type DelegationRequest struct {
	PolicyIssuer string             `json:"policyIssuer"`
	Target       DelegationTarget   `json:"target"`
	PolicySets   []RequestPolicySet `json:"policySets"`
}

// RequestPolicySet is one requested grouping of policies within a
// DelegationRequest.
type RequestPolicySet struct {
	Policies []Policy `json:"policies"`
}

// DelegationRequestContainer wraps the request as iSHARE does on the wire.
type DelegationRequestContainer struct {
	DelegationRequest DelegationRequest `json:"delegationRequest"`
}

// DelegationEvidence is the signed-payload-ready output document.
type DelegationEvidence struct {
	NotBefore    int64               `json:"notBefore"`
	NotOnOrAfter int64               `json:"notOnOrAfter"`
	PolicyIssuer string              `json:"policyIssuer"`
	Target       DelegationTarget    `json:"target"`
	PolicySets   []EvidencePolicySet `json:"policySets"`
}

// EvidencePolicySet is one emitted policy set within a DelegationEvidence.
type EvidencePolicySet struct {
	MaxDelegationDepth int      `json:"maxDelegationDepth"`
	Licenses           []string `json:"licences"`
	Policies           []Policy `json:"policies"`
}

// DelegationEvidenceContainer wraps the evidence as iSHARE does on the wire.
type DelegationEvidenceContainer struct {
	DelegationRequest  DelegationRequest  `json:"delegationRequest"`
	DelegationEvidence DelegationEvidence `json:"delegationEvidence"`
}
