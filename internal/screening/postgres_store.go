package screening

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore persists audit events in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed audit event store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the screening_events table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS screening_events (
			id         VARCHAR(36) PRIMARY KEY,
			kind       VARCHAR(32) NOT NULL,
			subject    TEXT NOT NULL,
			outcome    TEXT NOT NULL,
			score      INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_screening_events_created
			ON screening_events (created_at DESC);

		CREATE INDEX IF NOT EXISTS idx_screening_events_kind
			ON screening_events (kind, created_at DESC);
	`)
	return err
}

func (s *PostgresStore) Record(ctx context.Context, event *Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO screening_events (id, kind, subject, outcome, score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		event.ID,
		event.Kind,
		event.Subject,
		event.Outcome,
		event.Score,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record screening event: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]*Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, subject, outcome, score, created_at
		FROM screening_events
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list screening events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Kind, &e.Subject, &e.Outcome, &e.Score, &e.CreatedAt); err != nil {
			continue
		}
		result = append(result, &e)
	}
	return result, rows.Err()
}
