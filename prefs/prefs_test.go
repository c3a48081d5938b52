package prefs

import (
	"context"
	"testing"

	"budgetplanner/backend/database"
	"budgetplanner/backend/migrations"

	"github.com/rs/zerolog"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "rate.EUR"); err != nil || ok {
		t.Fatalf("Expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, "rate.EUR", "4.97"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set(ctx, "rate.EUR", "4.98"); err != nil {
		t.Fatalf("Overwrite failed: %v", err)
	}

	v, ok, err := s.Get(ctx, "rate.EUR")
	if err != nil || !ok || v != "4.98" {
		t.Errorf("Expected 4.98, got %q ok=%v err=%v", v, ok, err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestSQLStore(t *testing.T) {
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if err := migrations.RunMigrations(context.Background(), db, zerolog.Nop()); err != nil {
		t.Fatal(err)
	}

	exerciseStore(t, NewSQLStore(db))
}
