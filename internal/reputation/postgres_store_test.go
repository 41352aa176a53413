//go:build integration

package reputation

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
)

func setupTestDB(t *testing.T) (*PostgresStore, func()) {
	t.Helper()

	dbURL := os.Getenv("POSTGRES_URL")
	if dbURL == "" {
		t.Skip("POSTGRES_URL not set, skipping integration test")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	store := NewPostgresStore(db)
	ctx := context.Background()

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	cleanup := func() {
		db.ExecContext(ctx, "DELETE FROM reputation_records")
		db.Close()
	}

	return store, cleanup
}

func TestPostgresReputation_PutAndGet(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	rec := &Record{
		Number:      "+84912345678",
		Carrier:     "Viettel",
		Tags:        []Tag{TagScam},
		ReportCount: 3,
		Score:       10,
		Label:       "Fake police scam",
		UpdatedAt:   time.Now(),
	}

	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, "+84912345678")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected record, got nil")
	}

	if got.Score != 10 {
		t.Errorf("Score: got %d, want 10", got.Score)
	}
	if got.Carrier != "Viettel" {
		t.Errorf("Carrier: got %s, want Viettel", got.Carrier)
	}
	if len(got.Tags) != 1 || got.Tags[0] != TagScam {
		t.Errorf("Tags: got %v, want [scam]", got.Tags)
	}
	if got.Label != "Fake police scam" {
		t.Errorf("Label: got %s, want Fake police scam", got.Label)
	}
	if !got.Risky() {
		t.Error("Record with scam tag and score 10 should be risky")
	}
}

func TestPostgresReputation_GetMissing(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	got, err := store.Get(ctx, "+84900000000")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for unknown number, got %+v", got)
	}
}

func TestPostgresReputation_Overwrite(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	first := &Record{
		Number:      "+84911111111",
		Tags:        []Tag{TagSafe},
		ReportCount: 1,
		Score:       100,
		UpdatedAt:   time.Now(),
	}
	if err := store.Put(ctx, first); err != nil {
		t.Fatalf("First put failed: %v", err)
	}

	// A later report replaces the record wholesale.
	second := &Record{
		Number:      "+84911111111",
		Tags:        []Tag{TagScam},
		ReportCount: 1,
		Score:       10,
		Label:       "Investment fraud",
		UpdatedAt:   time.Now(),
	}
	if err := store.Put(ctx, second); err != nil {
		t.Fatalf("Second put failed: %v", err)
	}

	got, err := store.Get(ctx, "+84911111111")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Score != 10 {
		t.Errorf("Score: got %d, want 10", got.Score)
	}
	if got.ReportCount != 1 {
		t.Errorf("ReportCount: got %d, want 1", got.ReportCount)
	}
	if len(got.Tags) != 1 || got.Tags[0] != TagScam {
		t.Errorf("Tags: got %v, want [scam]", got.Tags)
	}
}

func TestPostgresReputation_EmptyTags(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	rec := &Record{
		Number:    "+84922222222",
		Tags:      nil,
		Score:     80,
		UpdatedAt: time.Now(),
	}
	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, "+84922222222")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got.Tags) != 0 {
		t.Errorf("Tags: got %v, want empty", got.Tags)
	}
}
