package voiceprint

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore persists voice samples in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the voiceprints table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS voiceprints (
			id         TEXT PRIMARY KEY,
			blob       BYTEA NOT NULL,
			mime       TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

func (s *PostgresStore) Put(ctx context.Context, id string, blob []byte, mime string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO voiceprints (id, blob, mime)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET blob = EXCLUDED.blob, mime = EXCLUDED.mime
	`, id, blob, mime)
	if err != nil {
		return fmt.Errorf("failed to store voiceprint: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) ([]byte, string, error) {
	var blob []byte
	var mime string
	err := s.db.QueryRowContext(ctx, `
		SELECT blob, mime FROM voiceprints WHERE id = $1
	`, id).Scan(&blob, &mime)
	if err == sql.ErrNoRows {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to get voiceprint: %w", err)
	}
	return blob, mime, nil
}
