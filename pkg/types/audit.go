package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Audit event type tags, matching the iSHARE AR wire vocabulary exactly so
// downstream consumers written against the original system keep working.
const (
	EventDelegationRequest = "dmi:ar:delegation:request"
	EventPolicySetCreated  = "dmi:ar:policy_set:created"
	EventPolicySetEdited   = "dmi:ar:policy_set:edited"
	EventPolicySetDeleted  = "dmi:ar:policy_set:deleted"
)

// AuditEvent is the append-only journal row.
type AuditEvent struct {
	ID        uuid.UUID       `json:"id"`
	EntryID   string          `json:"-"`
	Timestamp time.Time       `json:"timestamp"`
	EventType string          `json:"type"`
	Source    *string         `json:"source,omitempty"`
	Context   json.RawMessage `json:"context,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// AuditEventWithIssAndSub augments a stored event with the requester's view of
// who issued and who is the subject of the event, computed at read time.
type AuditEventWithIssAndSub struct {
	AuditEvent
	Iss string `json:"iss"`
	Sub string `json:"sub"`
}

// PolicySetCreatedMetadata is the audit context for EventPolicySetCreated.
type PolicySetCreatedMetadata struct {
	PolicySetID uuid.UUID `json:"policy_set_id"`
}

// PolicySetDeletedMetadata is the audit context for EventPolicySetDeleted.
type PolicySetDeletedMetadata struct {
	PolicySetID uuid.UUID `json:"policy_set_id"`
}

// PolicySetEditedMetadata is the audit context for EventPolicySetEdited:
// PolicyID is set for PolicyAdded/PolicyRemoved, OldPolicyID and NewPolicyID
// for PolicyReplaced.
type PolicySetEditedMetadata struct {
	PolicySetID uuid.UUID  `json:"policy_set_id"`
	EditType    string     `json:"edit_type"`
	PolicyID    *uuid.UUID `json:"policy_id,omitempty"`
	OldPolicyID *uuid.UUID `json:"old_policy_id,omitempty"`
	NewPolicyID *uuid.UUID `json:"new_policy_id,omitempty"`
}

const (
	EditTypePolicyAdded    = "PolicyAdded"
	EditTypePolicyRemoved  = "PolicyRemoved"
	EditTypePolicyReplaced = "PolicyReplaced"
)
