//go:build integration

package profile

import (
	"context"
	"testing"
	"time"

	"github.com/tmnguyen/scamshield/internal/testutil"
)

// Uses the shared goose-backed harness so the schema matches what
// cmd/migrate produces, not just the store's own Migrate DDL.
func setupTestStore(t *testing.T) (*PostgresStore, func()) {
	t.Helper()
	db, cleanup := testutil.PGTest(t)
	return NewPostgresStore(db), cleanup
}

func TestPostgresProfile_GetMissing(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	got, err := store.Get(ctx, "nobody")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for unknown user, got %+v", got)
	}
}

func TestPostgresProfile_PutAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	p := &Profile{
		UserID: "u1",
		Tier:   TierPremium,
		Settings: Settings{
			AutoHangupEnabled: true,
			DefaultRegion:     "VN",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.Put(ctx, p); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected profile, got nil")
	}
	if got.Tier != TierPremium {
		t.Errorf("Tier: got %s, want premium", got.Tier)
	}
	if !got.Settings.AutoHangupEnabled {
		t.Error("AutoHangupEnabled should persist")
	}
	if got.Settings.DefaultRegion != "VN" {
		t.Errorf("DefaultRegion: got %s, want VN", got.Settings.DefaultRegion)
	}
}

func TestPostgresProfile_Upsert(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	p := &Profile{UserID: "u2", Tier: TierFree, CreatedAt: now, UpdatedAt: now}
	if err := store.Put(ctx, p); err != nil {
		t.Fatalf("First put failed: %v", err)
	}

	p.Tier = TierPremium
	p.UpdatedAt = now.Add(time.Minute)
	if err := store.Put(ctx, p); err != nil {
		t.Fatalf("Second put failed: %v", err)
	}

	got, err := store.Get(ctx, "u2")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Tier != TierPremium {
		t.Errorf("Tier: got %s, want premium after upsert", got.Tier)
	}
}

func TestPostgresProfile_History(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 3; i++ {
		rec := CallRecord{
			Number:     "+8491234567" + string(rune('0'+i)),
			Direction:  "incoming",
			Duration:   30 * i,
			RiskStatus: "safe",
			Score:      80,
			EndedBy:    "ended",
			EndedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.AppendHistory(ctx, "u3", rec); err != nil {
			t.Fatalf("AppendHistory #%d failed: %v", i, err)
		}
	}

	recs, err := store.ListHistory(ctx, "u3", 10)
	if err != nil {
		t.Fatalf("ListHistory failed: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(recs))
	}
	// Newest first.
	if recs[0].Number != "+84912345672" {
		t.Errorf("Expected newest record first, got %s", recs[0].Number)
	}

	limited, err := store.ListHistory(ctx, "u3", 2)
	if err != nil {
		t.Fatalf("ListHistory with limit failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("Expected 2 records with limit, got %d", len(limited))
	}

	other, err := store.ListHistory(ctx, "someone-else", 10)
	if err != nil {
		t.Fatalf("ListHistory for other user failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("History must not leak across users, got %d records", len(other))
	}
}
