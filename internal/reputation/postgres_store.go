package reputation

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// PostgresStore persists reputation records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed reputation store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the reputation_records table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS reputation_records (
			number        TEXT PRIMARY KEY,
			carrier       TEXT NOT NULL DEFAULT '',
			tags          TEXT[] NOT NULL DEFAULT '{}',
			report_count  INTEGER NOT NULL DEFAULT 0 CHECK (report_count >= 0),
			score         INTEGER NOT NULL CHECK (score >= 0 AND score <= 100),
			label         TEXT NOT NULL DEFAULT '',
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, number string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT number, carrier, tags, report_count, score, label, updated_at
		FROM reputation_records
		WHERE number = $1
	`, number)

	var rec Record
	var tags []string
	err := row.Scan(&rec.Number, &rec.Carrier, pq.Array(&tags), &rec.ReportCount, &rec.Score, &rec.Label, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reputation record: %w", err)
	}

	rec.Tags = make([]Tag, len(tags))
	for i, t := range tags {
		rec.Tags[i] = Tag(t)
	}
	return &rec, nil
}

func (s *PostgresStore) Put(ctx context.Context, record *Record) error {
	tags := make([]string, len(record.Tags))
	for i, t := range record.Tags {
		tags[i] = string(t)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reputation_records (number, carrier, tags, report_count, score, label, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (number) DO UPDATE SET
			carrier = EXCLUDED.carrier,
			tags = EXCLUDED.tags,
			report_count = EXCLUDED.report_count,
			score = EXCLUDED.score,
			label = EXCLUDED.label,
			updated_at = EXCLUDED.updated_at
	`,
		record.Number,
		record.Carrier,
		pq.Array(tags),
		record.ReportCount,
		record.Score,
		record.Label,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to put reputation record: %w", err)
	}
	return nil
}
