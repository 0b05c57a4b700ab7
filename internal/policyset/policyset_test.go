package policyset

import (
	"context"
	"crypto/x509"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Moortu/authorization-registry-sub000/internal/audit"
	"github.com/Moortu/authorization-registry-sub000/internal/guard"
	"github.com/Moortu/authorization-registry-sub000/internal/trust"
	"github.com/Moortu/authorization-registry-sub000/pkg/types"
)

// fakeTrustClient treats every EORI as a known party, unless deny lists it.
type fakeTrustClient struct {
	deny map[string]bool
}

func (f *fakeTrustClient) ValidateParty(ctx context.Context, eori string) (*trust.PartyInfo, error) {
	if f.deny[eori] {
		return nil, errNotFound
	}
	return &trust.PartyInfo{PartyID: eori}, nil
}

func (f *fakeTrustClient) CreateDelegationToken(audience string, container types.DelegationEvidenceContainer) (string, error) {
	return "", nil
}

func (f *fakeTrustClient) CreateCapabilitiesToken(capabilities any) (string, error) {
	return "", nil
}

func (f *fakeTrustClient) ValidateCertificateChain(chain []*x509.Certificate) error {
	return nil
}

type fakeStore struct {
	sets map[uuid.UUID]types.PolicySet
}

func newFakeStore() *fakeStore { return &fakeStore{sets: map[uuid.UUID]types.PolicySet{}} }

func (f *fakeStore) InsertPolicySet(ctx context.Context, ps types.PolicySet) (uuid.UUID, error) {
	if ps.ID == uuid.Nil {
		ps.ID = uuid.New()
	}
	f.sets[ps.ID] = ps
	return ps.ID, nil
}

func (f *fakeStore) GetPolicySet(ctx context.Context, id uuid.UUID) (*types.PolicySet, error) {
	ps, ok := f.sets[id]
	if !ok {
		return nil, nil
	}
	return &ps, nil
}

func (f *fakeStore) FindPolicySets(ctx context.Context, policyIssuer, accessSubject string) ([]types.PolicySet, error) {
	return nil, nil
}

func (f *fakeStore) FindOwnPolicySets(ctx context.Context, policyIssuer string) ([]types.PolicySet, error) {
	return nil, nil
}

func (f *fakeStore) DeletePolicySet(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.sets[id]; !ok {
		return errNotFound
	}
	delete(f.sets, id)
	return nil
}

func (f *fakeStore) AddPolicy(ctx context.Context, policySetID uuid.UUID, p types.Policy) (uuid.UUID, error) {
	ps := f.sets[policySetID]
	p.ID = uuid.New()
	ps.Policies = append(ps.Policies, p)
	f.sets[policySetID] = ps
	return p.ID, nil
}

func (f *fakeStore) ReplacePolicy(ctx context.Context, policySetID, oldPolicyID uuid.UUID, p types.Policy) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (f *fakeStore) DeletePolicy(ctx context.Context, policySetID, policyID uuid.UUID) error {
	return nil
}

type errType struct{ msg string }

func (e errType) Error() string { return e.msg }

var errNotFound = errType{"not found"}

type fakeAuditStore struct {
	events []string
}

func (f *fakeAuditStore) LogEvent(ctx context.Context, entryID string, eventType string, source *string, data any) error {
	f.events = append(f.events, eventType)
	return nil
}

func (f *fakeAuditStore) RetrieveEvents(ctx context.Context, filter audit.Filter) ([]types.AuditEvent, error) {
	return nil, nil
}

func TestCreatePolicySet_RejectsNonIssuer(t *testing.T) {
	g := guard.New(func(req types.DelegationRequest) types.DelegationEvidence {
		return types.DelegationEvidence{}
	})
	c := New(newFakeStore(), &fakeAuditStore{}, g, &fakeTrustClient{})

	_, err := c.CreatePolicySet(context.Background(), "EU.EORI.OTHER", types.PolicySet{PolicyIssuer: "EU.EORI.ISSUER"}, false)
	require.Error(t, err)
}

func TestCreatePolicySet_AllowsIssuer(t *testing.T) {
	g := guard.New(func(req types.DelegationRequest) types.DelegationEvidence {
		return types.DelegationEvidence{}
	})
	c := New(newFakeStore(), &fakeAuditStore{}, g, &fakeTrustClient{})

	id, err := c.CreatePolicySet(context.Background(), "EU.EORI.ISSUER", types.PolicySet{PolicyIssuer: "EU.EORI.ISSUER"}, false)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)
}

func TestGetPolicySet_DeniesNonOwnerWithoutEvidence(t *testing.T) {
	g := guard.New(func(req types.DelegationRequest) types.DelegationEvidence {
		return types.DelegationEvidence{} // empty -> not permit
	})
	store := newFakeStore()
	c := New(store, &fakeAuditStore{}, g, &fakeTrustClient{})

	id, err := c.CreatePolicySet(context.Background(), "EU.EORI.ISSUER", types.PolicySet{PolicyIssuer: "EU.EORI.ISSUER"}, false)
	require.NoError(t, err)

	_, err = c.GetPolicySet(context.Background(), "EU.EORI.OTHER", id)
	require.Error(t, err)
}

func TestCreatePolicySet_RejectsUnknownParty(t *testing.T) {
	g := guard.New(func(req types.DelegationRequest) types.DelegationEvidence {
		return types.DelegationEvidence{}
	})
	trustClient := &fakeTrustClient{deny: map[string]bool{"EU.EORI.UNKNOWN": true}}
	c := New(newFakeStore(), &fakeAuditStore{}, g, trustClient)

	_, err := c.CreatePolicySet(context.Background(), "EU.EORI.ISSUER", types.PolicySet{
		PolicyIssuer: "EU.EORI.ISSUER",
		Target:       types.DelegationTarget{AccessSubject: "EU.EORI.UNKNOWN"},
	}, false)
	require.Error(t, err)
}

func TestCreatePolicySet_NonIssuerWithMatchingDelegationIsAllowed(t *testing.T) {
	g := guard.New(func(req types.DelegationRequest) types.DelegationEvidence {
		require.Equal(t, []string{"nl.KVK.Disclosure"}, req.PolicySets[0].Policies[0].Target.Resource.Identifiers)
		return types.DelegationEvidence{
			PolicySets: []types.EvidencePolicySet{{
				Policies: []types.Policy{{Rules: []types.ResourceRule{{Effect: types.EffectPermit}}}},
			}},
		}
	})
	c := New(newFakeStore(), &fakeAuditStore{}, g, &fakeTrustClient{})

	ps := types.PolicySet{
		PolicyIssuer: "EU.EORI.ISSUER",
		Policies: []types.Policy{{
			Target: types.ResourceTarget{Resource: types.Resource{ResourceType: "nl.KVK.Disclosure"}},
		}},
	}

	id, err := c.CreatePolicySet(context.Background(), "EU.EORI.OTHER", ps, false)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)
}
