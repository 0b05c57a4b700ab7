// Package store persists policy sets and their policies in PostgreSQL,
// loading a full policy set (with its policies folded in via json_build_object
// aggregation) in a single round trip.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Moortu/authorization-registry-sub000/pkg/types"
)

// Store is the persistence surface the rest of the registry depends on.
type Store interface {
	InsertPolicySet(ctx context.Context, ps types.PolicySet) (uuid.UUID, error)
	GetPolicySet(ctx context.Context, id uuid.UUID) (*types.PolicySet, error)
	FindPolicySets(ctx context.Context, policyIssuer, accessSubject string) ([]types.PolicySet, error)
	FindOwnPolicySets(ctx context.Context, policyIssuer string) ([]types.PolicySet, error)
	DeletePolicySet(ctx context.Context, id uuid.UUID) error
	AddPolicy(ctx context.Context, policySetID uuid.UUID, p types.Policy) (uuid.UUID, error)
	ReplacePolicy(ctx context.Context, policySetID, oldPolicyID uuid.UUID, p types.Policy) (uuid.UUID, error)
	DeletePolicy(ctx context.Context, policySetID, policyID uuid.UUID) error
}

// PostgresStore implements Store on top of database/sql and lib/pq.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) InsertPolicySet(ctx context.Context, ps types.PolicySet) (uuid.UUID, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback()

	id := ps.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO policy_set (id, policy_issuer, access_subject, licenses, max_delegation_depth)
		VALUES ($1, $2, $3, $4, $5)
	`, id, ps.PolicyIssuer, ps.Target.AccessSubject, pq.Array(ps.Licenses), ps.MaxDelegationDepth)
	if err != nil {
		return uuid.Nil, fmt.Errorf("store: insert policy_set: %w", err)
	}

	for _, p := range ps.Policies {
		if _, err := insertPolicy(ctx, tx, id, p); err != nil {
			return uuid.Nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("store: commit: %w", err)
	}
	return id, nil
}

func insertPolicy(ctx context.Context, tx *sql.Tx, policySetID uuid.UUID, p types.Policy) (uuid.UUID, error) {
	id := p.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	rulesJSON, err := json.Marshal(p.Rules)
	if err != nil {
		return uuid.Nil, fmt.Errorf("store: marshal rules: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO policy (id, policy_set_id, resource_type, identifiers, attributes, actions, service_providers, rules)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		id, policySetID, p.Target.Resource.ResourceType,
		pq.Array(p.Target.Resource.Identifiers), pq.Array(p.Target.Resource.Attributes),
		pq.Array(p.Target.Actions), pq.Array(serviceProviders(p)), rulesJSON,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("store: insert policy: %w", err)
	}
	return id, nil
}

func serviceProviders(p types.Policy) []string {
	if p.Target.Environment == nil {
		return nil
	}
	return p.Target.Environment.ServiceProviders
}

// policySetQuery aggregates a policy set with its policies in one round trip
// using json_build_object/json_agg, mirroring the join the original schema
// used to avoid an N+1 when loading policies for a set.
const policySetQuery = `
	SELECT
		ps.id, ps.policy_issuer, ps.access_subject, ps.licenses, ps.max_delegation_depth, ps.created_at,
		COALESCE(
			json_agg(
				json_build_object(
					'id', p.id,
					'resource_type', p.resource_type,
					'identifiers', p.identifiers,
					'attributes', p.attributes,
					'actions', p.actions,
					'service_providers', p.service_providers,
					'rules', p.rules
				)
			) FILTER (WHERE p.id IS NOT NULL),
			'[]'
		) AS policies
	FROM policy_set ps
	LEFT JOIN policy p ON p.policy_set_id = ps.id
	WHERE %s
	GROUP BY ps.id
`

type policyRow struct {
	ID               uuid.UUID       `json:"id"`
	ResourceType     string          `json:"resource_type"`
	Identifiers      pq.StringArray  `json:"identifiers"`
	Attributes       pq.StringArray  `json:"attributes"`
	Actions          pq.StringArray  `json:"actions"`
	ServiceProviders pq.StringArray  `json:"service_providers"`
	Rules            json.RawMessage `json:"rules"`
}

func scanPolicySet(scanner interface{ Scan(dest ...interface{}) error }) (*types.PolicySet, error) {
	var ps types.PolicySet
	var licenses pq.StringArray
	var policiesJSON []byte

	if err := scanner.Scan(&ps.ID, &ps.PolicyIssuer, &ps.Target.AccessSubject, &licenses, &ps.MaxDelegationDepth, &ps.CreatedAt, &policiesJSON); err != nil {
		return nil, fmt.Errorf("store: scan policy_set: %w", err)
	}
	ps.Licenses = []string(licenses)

	var rows []policyRow
	if err := json.Unmarshal(policiesJSON, &rows); err != nil {
		return nil, fmt.Errorf("store: decode policies: %w", err)
	}

	ps.Policies = make([]types.Policy, 0, len(rows))
	for _, r := range rows {
		var rules []types.ResourceRule
		if len(r.Rules) > 0 {
			if err := json.Unmarshal(r.Rules, &rules); err != nil {
				return nil, fmt.Errorf("store: decode rules: %w", err)
			}
		}
		ps.Policies = append(ps.Policies, types.Policy{
			ID: r.ID,
			Target: types.ResourceTarget{
				Resource: types.Resource{
					ResourceType: r.ResourceType,
					Identifiers:  []string(r.Identifiers),
					Attributes:   []string(r.Attributes),
				},
				Actions:     []string(r.Actions),
				Environment: &types.Environment{ServiceProviders: []string(r.ServiceProviders)},
			},
			Rules: rules,
		})
	}

	return &ps, nil
}

func (s *PostgresStore) GetPolicySet(ctx context.Context, id uuid.UUID) (*types.PolicySet, error) {
	query := fmt.Sprintf(policySetQuery, "ps.id = $1")
	row := s.db.QueryRowContext(ctx, query, id)
	ps, err := scanPolicySet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ps, nil
}

func (s *PostgresStore) FindPolicySets(ctx context.Context, policyIssuer, accessSubject string) ([]types.PolicySet, error) {
	query := fmt.Sprintf(policySetQuery, "lower(ps.policy_issuer) = lower($1) AND lower(ps.access_subject) = lower($2)")
	return s.queryPolicySets(ctx, query, policyIssuer, accessSubject)
}

func (s *PostgresStore) FindOwnPolicySets(ctx context.Context, policyIssuer string) ([]types.PolicySet, error) {
	query := fmt.Sprintf(policySetQuery, "lower(ps.policy_issuer) = lower($1)")
	return s.queryPolicySets(ctx, query, policyIssuer)
}

func (s *PostgresStore) queryPolicySets(ctx context.Context, query string, args ...interface{}) ([]types.PolicySet, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query policy_sets: %w", err)
	}
	defer rows.Close()

	var result []types.PolicySet
	for rows.Next() {
		ps, err := scanPolicySet(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ps)
	}
	return result, rows.Err()
}

func (s *PostgresStore) DeletePolicySet(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM policy_set WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("store: delete policy_set: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) AddPolicy(ctx context.Context, policySetID uuid.UUID, p types.Policy) (uuid.UUID, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback()

	id, err := insertPolicy(ctx, tx, policySetID, p)
	if err != nil {
		return uuid.Nil, err
	}
	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("store: commit: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) ReplacePolicy(ctx context.Context, policySetID, oldPolicyID uuid.UUID, p types.Policy) (uuid.UUID, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM policy WHERE id = $1 AND policy_set_id = $2`, oldPolicyID, policySetID); err != nil {
		return uuid.Nil, fmt.Errorf("store: delete old policy: %w", err)
	}

	newID, err := insertPolicy(ctx, tx, policySetID, p)
	if err != nil {
		return uuid.Nil, err
	}
	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("store: commit: %w", err)
	}
	return newID, nil
}

func (s *PostgresStore) DeletePolicy(ctx context.Context, policySetID, policyID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM policy WHERE id = $1 AND policy_set_id = $2`, policyID, policySetID)
	if err != nil {
		return fmt.Errorf("store: delete policy: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
