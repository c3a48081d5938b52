package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

func ptr(f float64) *float64 { return &f }

func TestRecurringSaveAndList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewRecurringService(env.store, time.Local)

	rent, err := svc.Save(ctx, "2025-03", "rent", ptr(400), nil, 4.97)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if rent.Name != "RENT" || rent.Amount == nil || *rent.Amount != 1988 {
		t.Errorf("Expected RENT = 1988, got %+v", rent)
	}
	if _, err := svc.Save(ctx, "2025-03", "DIGI", nil, ptr(55.5), 0); err != nil {
		t.Fatal(err)
	}
	gaz, err := svc.Save(ctx, "2025-03", "GAZ", nil, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if gaz.Amount == nil || *gaz.Amount != 0 {
		t.Errorf("Expected GAZ = 0, got %+v", gaz)
	}

	// Saving again replaces the bill.
	if _, err := svc.Save(ctx, "2025-03", "RENT", ptr(400), nil, 5); err != nil {
		t.Fatal(err)
	}

	items, err := svc.ListMonth(ctx, "2025-03")
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]int{}
	for _, it := range items {
		names[it.Name]++
	}
	for _, n := range []string{"RENT", "GAZ", "CURENT", "DIGI", "INTRETINERE"} {
		if names[n] != 1 {
			t.Errorf("Expected %s exactly once, got %d", n, names[n])
		}
	}

	total, err := svc.TotalMonth(ctx, "2025-03")
	if err != nil {
		t.Fatal(err)
	}
	if total != 2055.5 {
		t.Errorf("Expected 2055.5, got %v", total)
	}

	other, _ := svc.TotalMonth(ctx, "2025-04")
	if other != 0 {
		t.Errorf("Expected empty April, got %v", other)
	}
}

func TestRecurringValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := NewRecurringService(env.store, time.Local)
	ctx := context.Background()

	if _, err := svc.Save(ctx, "2025/03", "RENT", nil, ptr(1), 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for bad month, got %v", err)
	}
	if _, err := svc.Save(ctx, "2025-03", " ", nil, ptr(1), 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for empty name, got %v", err)
	}
}
