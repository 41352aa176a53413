package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PostgresStore persists profiles and call history in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed profile store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the profiles and call_history tables if they don't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS profiles (
			user_id    TEXT PRIMARY KEY,
			tier       TEXT NOT NULL DEFAULT 'free' CHECK (tier IN ('free', 'premium')),
			settings   JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS call_history (
			id          BIGSERIAL PRIMARY KEY,
			user_id     TEXT NOT NULL,
			number      TEXT NOT NULL,
			direction   TEXT NOT NULL,
			duration_s  INTEGER NOT NULL DEFAULT 0,
			risk_status TEXT NOT NULL,
			label       TEXT NOT NULL DEFAULT '',
			score       INTEGER NOT NULL DEFAULT 0,
			ended_by    TEXT NOT NULL,
			ended_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_call_history_user
			ON call_history (user_id, ended_at DESC);
	`)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (*Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, tier, settings, created_at, updated_at
		FROM profiles WHERE user_id = $1
	`, userID)

	var p Profile
	var settingsJSON []byte
	err := row.Scan(&p.UserID, &p.Tier, &settingsJSON, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if err := json.Unmarshal(settingsJSON, &p.Settings); err != nil {
		return nil, fmt.Errorf("failed to parse profile settings: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) Put(ctx context.Context, p *Profile) error {
	settingsJSON, err := json.Marshal(p.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, tier, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			tier = EXCLUDED.tier,
			settings = EXCLUDED.settings,
			updated_at = EXCLUDED.updated_at
	`, p.UserID, string(p.Tier), settingsJSON, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to put profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) AppendHistory(ctx context.Context, userID string, rec CallRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO call_history (user_id, number, direction, duration_s, risk_status, label, score, ended_by, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, userID, rec.Number, rec.Direction, rec.Duration, rec.RiskStatus, rec.Label, rec.Score, rec.EndedBy, rec.EndedAt)
	if err != nil {
		return fmt.Errorf("failed to append call history: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListHistory(ctx context.Context, userID string, limit int) ([]CallRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT number, direction, duration_s, risk_status, label, score, ended_by, ended_at
		FROM call_history
		WHERE user_id = $1
		ORDER BY ended_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list call history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var recs []CallRecord
	for rows.Next() {
		var r CallRecord
		if err := rows.Scan(&r.Number, &r.Direction, &r.Duration, &r.RiskStatus, &r.Label, &r.Score, &r.EndedBy, &r.EndedAt); err != nil {
			continue
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}
