// Package seed bootstraps fixture policy sets from a configured folder at
// startup, skipping any policy set whose ID already exists in the store.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Moortu/authorization-registry-sub000/internal/store"
	"github.com/Moortu/authorization-registry-sub000/pkg/types"
)

type file struct {
	PolicySets []types.PolicySet `json:"policy_sets"`
}

// Apply reads every *seed*.json file in folder, in filename order, inserting
// each policy set whose ID is not already stored; a policy set without an ID
// is always inserted. An unset folder ("") or a folder with no matching files
// is a no-op; a folder that cannot be read is an error.
func Apply(ctx context.Context, s store.Store, folder string, logger *zap.Logger) error {
	if folder == "" {
		logger.Info("no seed folder configured")
		return nil
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return fmt.Errorf("seed: reading %s: %w", folder, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.Contains(e.Name(), "seed") && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if err := applyFile(ctx, s, filepath.Join(folder, name), logger); err != nil {
			return err
		}
	}
	return nil
}

func applyFile(ctx context.Context, s store.Store, path string, logger *zap.Logger) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("seed: reading %s: %w", path, err)
	}

	var f file
	if err := json.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("seed: parsing %s: %w", path, err)
	}

	for _, ps := range f.PolicySets {
		if ps.ID != uuid.Nil {
			existing, err := s.GetPolicySet(ctx, ps.ID)
			if err != nil {
				return fmt.Errorf("seed: checking existing policy set %s: %w", ps.ID, err)
			}
			if existing != nil {
				continue
			}
		}

		if _, err := s.InsertPolicySet(ctx, ps); err != nil {
			return fmt.Errorf("seed: inserting policy set from %s: %w", path, err)
		}
		logger.Info("applied seed policy set", zap.String("file", path), zap.String("policy_issuer", ps.PolicyIssuer))
	}
	return nil
}
