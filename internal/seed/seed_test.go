package seed

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Moortu/authorization-registry-sub000/pkg/types"
)

type fakeStore struct {
	mu   sync.Mutex
	sets map[uuid.UUID]types.PolicySet
}

func newFakeStore() *fakeStore { return &fakeStore{sets: map[uuid.UUID]types.PolicySet{}} }

func (f *fakeStore) InsertPolicySet(ctx context.Context, ps types.PolicySet) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ps.ID == uuid.Nil {
		ps.ID = uuid.New()
	}
	f.sets[ps.ID] = ps
	return ps.ID, nil
}

func (f *fakeStore) GetPolicySet(ctx context.Context, id uuid.UUID) (*types.PolicySet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
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

func (f *fakeStore) DeletePolicySet(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeStore) AddPolicy(ctx context.Context, policySetID uuid.UUID, p types.Policy) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (f *fakeStore) ReplacePolicy(ctx context.Context, policySetID, oldPolicyID uuid.UUID, p types.Policy) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (f *fakeStore) DeletePolicy(ctx context.Context, policySetID, policyID uuid.UUID) error {
	return nil
}

func TestApply_EmptyFolderIsNoOp(t *testing.T) {
	if err := Apply(context.Background(), newFakeStore(), "", zap.NewNop()); err != nil {
		t.Fatalf("Apply: %v", err)
	}
}

func TestApply_InsertsNewPolicySetsAndSkipsExisting(t *testing.T) {
	dir := t.TempDir()
	id := uuid.New()
	body := `{"policy_sets":[{"id":"` + id.String() + `","policyIssuer":"EU.EORI.ISSUER","target":{"accessSubject":"EU.EORI.SUBJECT"},"licences":["ISHARE.0001"],"maxDelegationDepth":1,"policies":[]}]}`
	if err := os.WriteFile(filepath.Join(dir, "001-seed.json"), []byte(body), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	s := newFakeStore()
	if err := Apply(context.Background(), s, dir, zap.NewNop()); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, ok := s.sets[id]; !ok {
		t.Fatalf("expected policy set %s to be inserted", id)
	}

	// Re-applying must not error and must not duplicate the existing set.
	if err := Apply(context.Background(), s, dir, zap.NewNop()); err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if len(s.sets) != 1 {
		t.Fatalf("expected exactly one policy set after re-apply, got %d", len(s.sets))
	}
}

func TestApply_IgnoresFilesNotMatchingSeedPattern(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "readme.md"), []byte("not json"), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	if err := Apply(context.Background(), newFakeStore(), dir, zap.NewNop()); err != nil {
		t.Fatalf("Apply: %v", err)
	}
}
