package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"budgetplanner/backend/models"

	"github.com/shopspring/decimal"
)

func TestTransactionCreateNormalizes(t *testing.T) {
	env := newTestEnv(t, &fixedSource{name: "fixed", rate: decimal.RequireFromString("4.9771")})
	ctx := context.Background()

	tx := &models.Transaction{
		Timestamp:        day(3),
		OriginalAmount:   -10,
		OriginalCurrency: "eur",
		Merchant:         "  Zara  ",
		Category:         "dorinte",
	}
	if err := env.txs.Create(ctx, tx); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	got := env.get(t, tx.ID)
	if got.NormalizedAmount != -49.77 || got.OriginalCurrency != "EUR" {
		t.Errorf("Unexpected normalization %+v", got)
	}
	if got.Category != models.CategoryDorinte || got.Merchant != "Zara" || got.Source != models.SourceManual {
		t.Errorf("Unexpected fields %+v", got)
	}

	if err := env.txs.Create(ctx, &models.Transaction{Timestamp: day(3), OriginalAmount: -10, OriginalCurrency: "EUR", Merchant: "Zara"}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected duplicate to be rejected, got %v", err)
	}
}

func TestTransactionCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		tx   models.Transaction
		want error
	}{
		{"zero amount", models.Transaction{Timestamp: day(1)}, ErrInvalidArgument},
		{"unknown category", models.Transaction{Timestamp: day(1), OriginalAmount: -1, Category: "GIFTS"}, ErrInvalidArgument},
		{"no rate", models.Transaction{Timestamp: day(1), OriginalAmount: -1, OriginalCurrency: "USD"}, ErrNoRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := tt.tx
			if err := env.txs.Create(ctx, &tx); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
	txs, _ := env.txs.ListMonth(ctx, "2025-03")
	if len(txs) != 0 {
		t.Errorf("Expected nothing stored, got %d", len(txs))
	}
}

func TestTransactionUpdateRenormalizes(t *testing.T) {
	env := newTestEnv(t, &fixedSource{name: "fixed", rate: decimal.RequireFromString("5")})
	ctx := context.Background()

	tx := &models.Transaction{Timestamp: day(3), OriginalAmount: -10, OriginalCurrency: "EUR", Merchant: "IKEA"}
	if err := env.txs.Create(ctx, tx); err != nil {
		t.Fatal(err)
	}
	tx.OriginalAmount = -20
	if err := env.txs.Update(ctx, tx); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got := env.get(t, tx.ID); got.NormalizedAmount != -100 {
		t.Errorf("Expected -100, got %v", got.NormalizedAmount)
	}

	missing := &models.Transaction{ID: 999, OriginalAmount: -1}
	if err := env.txs.Update(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestTransactionUpdateRespectsLinks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	exp := env.expense(t, 40, day(18), "CATENA")
	cr := env.credit(t, 70, day(20), testParty)
	if _, err := env.allocation.AllocateFromCredit(ctx, cr.ID, 14); err != nil {
		t.Fatal(err)
	}

	shrink := env.get(t, exp.ID)
	shrink.OriginalAmount = -10
	if err := env.txs.Update(ctx, shrink); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Expected ErrInvalidArgument shrinking below coverage, got %v", err)
	}
	got := env.get(t, exp.ID)
	if got.NormalizedAmount != -40 || got.ReimbursedGroup != testParty || env.covered(t, exp.ID) != 40 {
		t.Errorf("Expected the expense untouched, got %+v", got)
	}

	flip := env.get(t, exp.ID)
	flip.OriginalAmount = 40
	if err := env.txs.Update(ctx, flip); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument flipping a linked expense, got %v", err)
	}

	// The marker belongs to the allocation engine, an edit cannot clear it.
	rename := env.get(t, exp.ID)
	rename.Merchant = "CATENA 12"
	rename.ReimbursedGroup = ""
	if err := env.txs.Update(ctx, rename); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got := env.get(t, exp.ID).ReimbursedGroup; got != testParty {
		t.Errorf("Expected marker kept, got %q", got)
	}

	grow := env.get(t, exp.ID)
	grow.OriginalAmount = -60
	if err := env.txs.Update(ctx, grow); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	got = env.get(t, exp.ID)
	if got.ReimbursedGroup != "" {
		t.Errorf("Expected marker cleared once coverage is partial, got %q", got.ReimbursedGroup)
	}
	if c := env.covered(t, exp.ID); c != 40 {
		t.Errorf("Expected coverage to stay 40, got %v", c)
	}

	credit := env.get(t, cr.ID)
	credit.OriginalAmount = 30
	if err := env.txs.Update(ctx, credit); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument shrinking an allocated credit, got %v", err)
	}
}

func TestTransactionListMonthAndLinks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	exp := env.expense(t, 40, day(18), "CATENA")
	cr := env.credit(t, 40, day(20), testParty)
	env.insert(t, models.Transaction{Timestamp: time.Date(2025, time.February, 28, 23, 0, 0, 0, time.Local), OriginalAmount: -1, Merchant: "X"})

	txs, err := env.txs.ListMonth(ctx, "2025-03")
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 2 || txs[0].ID != cr.ID {
		t.Errorf("Expected March transactions newest first, got %+v", txs)
	}
	if _, err := env.txs.ListMonth(ctx, "March"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}

	if _, err := env.allocation.AllocateFromCredit(ctx, cr.ID, 14); err != nil {
		t.Fatal(err)
	}
	links, err := env.txs.Links(ctx, exp.ID)
	if err != nil || len(links) != 1 {
		t.Fatalf("Expected 1 link, got %d %v", len(links), err)
	}
	if got := env.get(t, exp.ID).ReimbursedGroup; got != testParty {
		t.Fatalf("Expected expense marked, got %q", got)
	}

	if err := env.txs.DeleteLink(ctx, links[0].ID); err != nil {
		t.Fatalf("DeleteLink failed: %v", err)
	}
	if got := env.get(t, exp.ID).ReimbursedGroup; got != "" {
		t.Errorf("Expected marker cleared, got %q", got)
	}
	if got := env.covered(t, exp.ID); got != 0 {
		t.Errorf("Expected no coverage, got %v", got)
	}
}

func TestTransactionSetters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tx := env.insert(t, models.Transaction{Timestamp: day(2), OriginalAmount: 100, Merchant: "TRANSFER"})

	if err := env.txs.SetParty(ctx, tx.ID, " MOM "); err != nil {
		t.Fatal(err)
	}
	if err := env.txs.SetExcludePersonal(ctx, tx.ID, true); err != nil {
		t.Fatal(err)
	}
	got := env.get(t, tx.ID)
	if got.Party != "MOM" || !got.ExcludePersonal {
		t.Errorf("Unexpected %+v", got)
	}
	if err := env.txs.SetParty(ctx, 4242, "MOM"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
