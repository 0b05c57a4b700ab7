package types

import (
	"encoding/json"
	"fmt"
)

// Role is the tagged Machine/Human variant carried inside a session token,
// mirroring the original system's serde(tag = "role") wire shape.
type Role struct {
	Kind    string // "machine" or "human"
	Machine MachineRole
	Human   HumanRole
}

const (
	RoleMachine = "machine"
	RoleHuman   = "human"
)

// MachineRole identifies a service-to-service caller.
type MachineRole struct {
	CompanyID string `json:"company_id"`
}

// HumanRole identifies an operator-facing caller with realm-scoped access roles.
type HumanRole struct {
	CompanyID        string   `json:"company_id"`
	UserID           string   `json:"user_id"`
	RealmAccessRoles []string `json:"realm_access_roles"`
}

// CompanyID returns the acting company regardless of role kind.
func (r Role) CompanyID() string {
	if r.Kind == RoleHuman {
		return r.Human.CompanyID
	}
	return r.Machine.CompanyID
}

// MarshalJSON flattens the role with a "role" discriminator field.
func (r Role) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case RoleHuman:
		return json.Marshal(struct {
			Role string `json:"role"`
			HumanRole
		}{Role: RoleHuman, HumanRole: r.Human})
	case RoleMachine:
		return json.Marshal(struct {
			Role string `json:"role"`
			MachineRole
		}{Role: RoleMachine, MachineRole: r.Machine})
	default:
		return nil, fmt.Errorf("role: unknown kind %q", r.Kind)
	}
}

// UnmarshalJSON reads the "role" discriminator and populates the matching variant.
func (r *Role) UnmarshalJSON(data []byte) error {
	var tag struct {
		Role string `json:"role"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return fmt.Errorf("role: %w", err)
	}

	switch tag.Role {
	case RoleHuman:
		var h HumanRole
		if err := json.Unmarshal(data, &h); err != nil {
			return fmt.Errorf("role: decoding human: %w", err)
		}
		r.Kind, r.Human = RoleHuman, h
	case RoleMachine:
		var m MachineRole
		if err := json.Unmarshal(data, &m); err != nil {
			return fmt.Errorf("role: decoding machine: %w", err)
		}
		r.Kind, r.Machine = RoleMachine, m
	default:
		return fmt.Errorf("role: unknown kind %q", tag.Role)
	}
	return nil
}
