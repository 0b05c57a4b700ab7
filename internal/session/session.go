// Package session issues and verifies the registry's own HS256 session
// tokens, carrying either a Machine or a Human role claim.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Moortu/authorization-registry-sub000/pkg/types"
)

// ServerToken signs and verifies session tokens with a single shared secret.
type ServerToken struct {
	secret        []byte
	expirySeconds int64
}

// New builds a ServerToken from the shared secret and token lifetime.
func New(secret string, expirySeconds int64) *ServerToken {
	if expirySeconds <= 0 {
		expirySeconds = 3600
	}
	return &ServerToken{secret: []byte(secret), expirySeconds: expirySeconds}
}

// User optionally carries a human identity; when nil, CreateToken issues a
// Machine-role token for companyID.
type User struct {
	UserID           string
	RealmAccessRoles []string
}

// CreateToken issues a signed session token for companyID, as a Human token
// when user is non-nil, otherwise as a Machine token.
func (s *ServerToken) CreateToken(companyID string, user *User) (string, error) {
	now := time.Now()
	role := types.Role{Kind: types.RoleMachine, Machine: types.MachineRole{CompanyID: companyID}}
	if user != nil {
		role = types.Role{Kind: types.RoleHuman, Human: types.HumanRole{
			CompanyID:        companyID,
			UserID:           user.UserID,
			RealmAccessRoles: user.RealmAccessRoles,
		}}
	}

	roleJSON, err := role.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("session: marshaling role: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, flattenedClaims{
		raw: roleJSON,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.expirySeconds) * time.Second)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("session: signing token: %w", err)
	}
	return signed, nil
}

// DecodeToken verifies signature and expiry and returns the carried Role.
func (s *ServerToken) DecodeToken(raw string) (types.Role, error) {
	var fc flattenedClaims
	token, err := jwt.ParseWithClaims(raw, &fc, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("session: unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return types.Role{}, fmt.Errorf("session: %w", err)
	}
	if !token.Valid {
		return types.Role{}, errors.New("session: invalid token")
	}

	var role types.Role
	if err := role.UnmarshalJSON(fc.raw); err != nil {
		return types.Role{}, fmt.Errorf("session: decoding role: %w", err)
	}
	return role, nil
}

// flattenedClaims merges the Role's flattened wire shape with the standard
// registered claims, matching the original's #[serde(flatten)] layout.
type flattenedClaims struct {
	raw []byte
	jwt.RegisteredClaims
}

func (c flattenedClaims) MarshalJSON() ([]byte, error) {
	var roleFields map[string]any
	if err := json.Unmarshal(c.raw, &roleFields); err != nil {
		return nil, err
	}

	registered, err := json.Marshal(c.RegisteredClaims)
	if err != nil {
		return nil, err
	}
	var registeredFields map[string]any
	if err := json.Unmarshal(registered, &registeredFields); err != nil {
		return nil, err
	}

	for k, v := range registeredFields {
		roleFields[k] = v
	}
	return json.Marshal(roleFields)
}

func (c *flattenedClaims) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &c.RegisteredClaims); err != nil {
		return err
	}
	c.raw = data
	return nil
}
