// Package audit persists and retrieves the append-only event journal, with
// the clamping and filtering rules the retrieval endpoint enforces.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Moortu/authorization-registry-sub000/pkg/types"
)

const (
	minMaxResults = 1
	maxMaxResults = 1000
)

// ClampMaxResults enforces the [1,1000] bound the retrieval endpoint applies
// to its max-results query parameter.
func ClampMaxResults(n int) int {
	if n < minMaxResults {
		return minMaxResults
	}
	if n > maxMaxResults {
		return maxMaxResults
	}
	return n
}

// Filter narrows a RetrieveEvents call.
type Filter struct {
	From       *time.Time
	To         *time.Time
	EventTypes []string
	MaxResults int
}

// Store is the persistence surface for the audit journal.
type Store interface {
	LogEvent(ctx context.Context, entryID string, eventType string, source *string, data any) error
	RetrieveEvents(ctx context.Context, f Filter) ([]types.AuditEvent, error)
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) LogEvent(ctx context.Context, entryID string, eventType string, source *string, data any) error {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("audit: marshal data: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_event (id, entry_id, source, "timestamp", event_type, data)
		VALUES ($1, $2, $3, now(), $4, $5)
	`, uuid.New(), entryID, nullString(source), eventType, dataJSON)
	if err != nil {
		return fmt.Errorf("audit: insert event: %w", err)
	}
	return nil
}

func (s *PostgresStore) RetrieveEvents(ctx context.Context, f Filter) ([]types.AuditEvent, error) {
	maxResults := ClampMaxResults(f.MaxResults)

	query := `
		SELECT id, entry_id, source, "timestamp", event_type, data
		FROM audit_event
		WHERE 1=1
	`
	var args []interface{}
	argIndex := 1

	if f.From != nil {
		query += fmt.Sprintf(" AND \"timestamp\" >= $%d", argIndex)
		args = append(args, *f.From)
		argIndex++
	}
	if f.To != nil {
		query += fmt.Sprintf(" AND \"timestamp\" <= $%d", argIndex)
		args = append(args, *f.To)
		argIndex++
	}
	if len(f.EventTypes) > 0 {
		query += fmt.Sprintf(" AND event_type = ANY($%d)", argIndex)
		args = append(args, pq.Array(f.EventTypes))
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY \"timestamp\" DESC, id DESC LIMIT $%d", argIndex)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: query events: %w", err)
	}
	defer rows.Close()

	var events []types.AuditEvent
	for rows.Next() {
		ev, err := scanAuditEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func scanAuditEvent(scanner interface{ Scan(dest ...interface{}) error }) (types.AuditEvent, error) {
	var ev types.AuditEvent
	var source sql.NullString

	if err := scanner.Scan(&ev.ID, &ev.EntryID, &source, &ev.Timestamp, &ev.EventType, &ev.Data); err != nil {
		return types.AuditEvent{}, fmt.Errorf("audit: scan event: %w", err)
	}
	if source.Valid {
		ev.Source = &source.String
	}
	return ev, nil
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// WithIssAndSub augments retrieved events with the requester's view of issuer
// and subject, computed at read time rather than stored.
func WithIssAndSub(ev types.AuditEvent, iss, sub string) types.AuditEventWithIssAndSub {
	return types.AuditEventWithIssAndSub{AuditEvent: ev, Iss: iss, Sub: sub}
}
