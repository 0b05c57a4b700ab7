package session

import (
	"testing"

	"github.com/Moortu/authorization-registry-sub000/pkg/types"
)

func TestCreateAndDecodeToken_Machine(t *testing.T) {
	st := New("test-secret", 3600)

	raw, err := st.CreateToken("EU.EORI.COMPANY1", nil)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	role, err := st.DecodeToken(raw)
	if err != nil {
		t.Fatalf("DecodeToken: %v", err)
	}
	if role.Kind != types.RoleMachine {
		t.Fatalf("expected machine role, got %s", role.Kind)
	}
	if role.CompanyID() != "EU.EORI.COMPANY1" {
		t.Fatalf("unexpected company id: %s", role.CompanyID())
	}
}

func TestCreateAndDecodeToken_Human(t *testing.T) {
	st := New("test-secret", 3600)

	raw, err := st.CreateToken("EU.EORI.COMPANY1", &User{UserID: "u1", RealmAccessRoles: []string{"dexspace_admin"}})
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	role, err := st.DecodeToken(raw)
	if err != nil {
		t.Fatalf("DecodeToken: %v", err)
	}
	if role.Kind != types.RoleHuman {
		t.Fatalf("expected human role, got %s", role.Kind)
	}
	if role.Human.UserID != "u1" || len(role.Human.RealmAccessRoles) != 1 {
		t.Fatalf("unexpected human claims: %+v", role.Human)
	}
}

func TestDecodeToken_WrongSecretFails(t *testing.T) {
	st := New("secret-a", 3600)
	raw, err := st.CreateToken("EU.EORI.COMPANY1", nil)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	other := New("secret-b", 3600)
	if _, err := other.DecodeToken(raw); err == nil {
		t.Fatal("expected decode with wrong secret to fail")
	}
}
