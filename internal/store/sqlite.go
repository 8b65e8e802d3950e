package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS variant_assignments (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    created_at INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    type TEXT NOT NULL,
    intent_id TEXT NOT NULL,
    variant TEXT NOT NULL,
    created_at INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE INDEX IF NOT EXISTS idx_events_intent ON events(intent_id);
CREATE INDEX IF NOT EXISTS idx_events_variant_type ON events(variant, type);
`

func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LoadVariant(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM variant_assignments WHERE key = ?`, key,
	).Scan(&value)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to load variant: %w", err)
	}
	return value, true, nil
}

// SaveVariant stores value under key unless the key already exists.
// Assignments are never overwritten.
func (s *SQLiteStore) SaveVariant(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO variant_assignments (key, value, created_at) VALUES (?, ?, ?)`,
		key, value, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save variant: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetVariant(ctx context.Context, key string) (*VariantAssignment, error) {
	var a VariantAssignment
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT key, value, created_at FROM variant_assignments WHERE key = ?`, key,
	).Scan(&a.Key, &a.Value, &createdAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get variant: %w", err)
	}
	a.CreatedAt = time.Unix(createdAt, 0)
	return &a, nil
}

func (s *SQLiteStore) ListVariants(ctx context.Context) ([]*VariantAssignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value, created_at FROM variant_assignments ORDER BY created_at DESC, key`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list variants: %w", err)
	}
	defer rows.Close()

	var assignments []*VariantAssignment
	for rows.Next() {
		var a VariantAssignment
		var createdAt int64
		if err := rows.Scan(&a.Key, &a.Value, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		a.CreatedAt = time.Unix(createdAt, 0)
		assignments = append(assignments, &a)
	}

	return assignments, rows.Err()
}

// RecordEvent appends an event. Events are not deduplicated.
func (s *SQLiteStore) RecordEvent(ctx context.Context, eventType, intentID, variant string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (type, intent_id, variant, created_at) VALUES (?, ?, ?, ?)`,
		eventType, intentID, variant, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// GetEvents returns events in arrival order. An empty intentID returns all
// events.
func (s *SQLiteStore) GetEvents(ctx context.Context, intentID string) ([]*Event, error) {
	query := `SELECT id, type, intent_id, variant, created_at FROM events`
	var args []any
	if intentID != "" {
		query += ` WHERE intent_id = ?`
		args = append(args, intentID)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var e Event
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.Type, &e.IntentID, &e.Variant, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.CreatedAt = time.Unix(createdAt, 0)
		events = append(events, &e)
	}

	return events, rows.Err()
}

func (s *SQLiteStore) CountEvents(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return n, nil
}

// GetVariantStats counts distinct intents per variant and outcome.
func (s *SQLiteStore) GetVariantStats(ctx context.Context) ([]VariantStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			variant,
			COUNT(DISTINCT CASE WHEN type = 'impression' THEN intent_id END) as impressions,
			COUNT(DISTINCT CASE WHEN type = 'resolution' THEN intent_id END) as resolutions,
			COUNT(DISTINCT CASE WHEN type = 'ticket_created' THEN intent_id END) as tickets
		FROM events
		GROUP BY variant
		ORDER BY variant
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get variant stats: %w", err)
	}
	defer rows.Close()

	var stats []VariantStats
	for rows.Next() {
		var vs VariantStats
		if err := rows.Scan(&vs.Variant, &vs.Impressions, &vs.Resolutions, &vs.Tickets); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		stats = append(stats, vs)
	}

	return stats, rows.Err()
}
