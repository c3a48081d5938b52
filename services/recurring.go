package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"budgetplanner/backend/models"
	"budgetplanner/backend/store"

	"github.com/shopspring/decimal"
)

// RecurringService manages the fixed monthly bills.
type RecurringService struct {
	store *store.Store
	loc   *time.Location
}

func NewRecurringService(st *store.Store, loc *time.Location) *RecurringService {
	if loc == nil {
		loc = time.Local
	}
	return &RecurringService{store: st, loc: loc}
}

// Save records a bill for month. The reference amount is base*rate when a
// base amount and a positive rate are given, else amount, else zero.
func (s *RecurringService) Save(ctx context.Context, month, name string, base, amount *float64, rate float64) (*models.RecurringExpense, error) {
	start, _, err := MonthRange(month, s.loc)
	if err != nil {
		return nil, err
	}
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return nil, fmt.Errorf("%w: bill name is required", ErrInvalidArgument)
	}

	r := &models.RecurringExpense{MonthStart: start, Name: name, BaseAmount: base}
	var ref decimal.Decimal
	switch {
	case base != nil && rate > 0:
		ref = decimal.NewFromFloat(*base).Mul(decimal.NewFromFloat(rate)).Round(2)
		r.Rate = &rate
	case amount != nil:
		ref = decimal.NewFromFloat(*amount)
	}
	v := ref.InexactFloat64()
	r.Amount = &v

	if err := s.store.UpsertRecurring(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// ListMonth returns the month's bills. Default bills that were never saved
// are included with no amounts.
func (s *RecurringService) ListMonth(ctx context.Context, month string) ([]models.RecurringExpense, error) {
	start, _, err := MonthRange(month, s.loc)
	if err != nil {
		return nil, err
	}
	saved, err := s.store.ListRecurring(ctx, start)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]bool, len(saved))
	for _, r := range saved {
		byName[r.Name] = true
	}
	out := make([]models.RecurringExpense, 0, len(saved)+len(models.DefaultRecurringNames))
	for _, name := range models.DefaultRecurringNames {
		if !byName[name] {
			out = append(out, models.RecurringExpense{MonthStart: start, Name: name})
		}
	}
	return append(out, saved...), nil
}

func (s *RecurringService) TotalMonth(ctx context.Context, month string) (float64, error) {
	start, _, err := MonthRange(month, s.loc)
	if err != nil {
		return 0, err
	}
	total, err := s.store.SumRecurring(ctx, start)
	if err != nil {
		return 0, err
	}
	return total.InexactFloat64(), nil
}
