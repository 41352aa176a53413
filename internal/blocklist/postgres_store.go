package blocklist

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore persists blocked numbers in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed blocklist store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the blocked_numbers table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS blocked_numbers (
			user_id    TEXT NOT NULL,
			number     TEXT NOT NULL,
			blocked_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, number)
		);
	`)
	return err
}

func (s *PostgresStore) Add(ctx context.Context, userID, number string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blocked_numbers (user_id, number)
		VALUES ($1, $2)
		ON CONFLICT (user_id, number) DO NOTHING
	`, userID, number)
	if err != nil {
		return fmt.Errorf("failed to add blocked number: %w", err)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, userID, number string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM blocked_numbers WHERE user_id = $1 AND number = $2
	`, userID, number)
	if err != nil {
		return fmt.Errorf("failed to remove blocked number: %w", err)
	}
	return nil
}

func (s *PostgresStore) Contains(ctx context.Context, userID, number string) (bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM blocked_numbers WHERE user_id = $1 AND number = $2
	`, userID, number)

	var one int
	err := row.Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check blocked number: %w", err)
	}
	return true, nil
}

func (s *PostgresStore) List(ctx context.Context, userID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT number, blocked_at FROM blocked_numbers
		WHERE user_id = $1
		ORDER BY blocked_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocked numbers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Number, &e.BlockedAt); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
