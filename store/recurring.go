package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"budgetplanner/backend/models"

	"github.com/shopspring/decimal"
)

// UpsertRecurring inserts or replaces the bill identified by month and name.
func (s *Store) UpsertRecurring(ctx context.Context, r *models.RecurringExpense) error {
	id, err := s.insertReturningID(ctx, `
		INSERT INTO recurring_expenses (month_start, name, base_amount, amount, rate)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (month_start, name) DO UPDATE SET
			base_amount = excluded.base_amount, amount = excluded.amount, rate = excluded.rate`,
		toMillis(r.MonthStart), r.Name, nullFloat(r.BaseAmount), nullFloat(r.Amount), nullFloat(r.Rate))
	if err != nil {
		return fmt.Errorf("upsert recurring %q: %w", r.Name, err)
	}
	r.ID = id
	s.publish(models.EntityRecurring, models.ActionUpdated, id)
	return nil
}

func (s *Store) ListRecurring(ctx context.Context, monthStart time.Time) ([]models.RecurringExpense, error) {
	rows, err := s.query(ctx, `
		SELECT id, month_start, name, base_amount, amount, rate
		FROM recurring_expenses WHERE month_start = ? ORDER BY id ASC`, toMillis(monthStart))
	if err != nil {
		return nil, fmt.Errorf("list recurring: %w", err)
	}
	defer rows.Close()

	var out []models.RecurringExpense
	for rows.Next() {
		var (
			r                  models.RecurringExpense
			month              int64
			base, amount, rate sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &month, &r.Name, &base, &amount, &rate); err != nil {
			return nil, err
		}
		r.MonthStart = fromMillis(month)
		r.BaseAmount = floatPtr(base)
		r.Amount = floatPtr(amount)
		r.Rate = floatPtr(rate)
		out = append(out, r)
	}
	return out, rows.Err()
}

// SumRecurring totals the reference-currency amounts of a month, treating
// missing amounts as zero.
func (s *Store) SumRecurring(ctx context.Context, monthStart time.Time) (decimal.Decimal, error) {
	items, err := s.ListRecurring(ctx, monthStart)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, r := range items {
		if r.Amount != nil {
			total = total.Add(decimal.NewFromFloat(*r.Amount))
		}
	}
	return total, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
