package quota

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore persists usage counters in PostgreSQL. Update runs inside a
// transaction with a row lock, so check-then-increment is atomic per user.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed usage store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the usage_counters table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS usage_counters (
			user_id         TEXT PRIMARY KEY,
			deepfake_scans  INTEGER NOT NULL DEFAULT 0 CHECK (deepfake_scans >= 0),
			message_scans   INTEGER NOT NULL DEFAULT 0 CHECK (message_scans >= 0),
			call_lookups    INTEGER NOT NULL DEFAULT 0 CHECK (call_lookups >= 0),
			last_reset_date TEXT NOT NULL DEFAULT ''
		);
	`)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (*Counters, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT deepfake_scans, message_scans, call_lookups, last_reset_date
		FROM usage_counters WHERE user_id = $1
	`, userID)

	var c Counters
	err := row.Scan(&c.DeepfakeScans, &c.MessageScans, &c.CallLookups, &c.LastResetDate)
	if err == sql.ErrNoRows {
		return &Counters{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get usage counters: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) Update(ctx context.Context, userID string, fn func(*Counters) error) (*Counters, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Ensure the row exists, then lock it for the read-modify-write.
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO usage_counters (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID); err != nil {
		return nil, fmt.Errorf("failed to ensure counters row: %w", err)
	}

	row := tx.QueryRowContext(ctx, `
		SELECT deepfake_scans, message_scans, call_lookups, last_reset_date
		FROM usage_counters WHERE user_id = $1
		FOR UPDATE
	`, userID)

	var c Counters
	if err := row.Scan(&c.DeepfakeScans, &c.MessageScans, &c.CallLookups, &c.LastResetDate); err != nil {
		return nil, fmt.Errorf("failed to read counters: %w", err)
	}

	if err := fn(&c); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE usage_counters
		SET deepfake_scans = $2, message_scans = $3, call_lookups = $4, last_reset_date = $5
		WHERE user_id = $1
	`, userID, c.DeepfakeScans, c.MessageScans, c.CallLookups, c.LastResetDate); err != nil {
		return nil, fmt.Errorf("failed to write counters: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit counters: %w", err)
	}
	return &c, nil
}
