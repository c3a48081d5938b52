package store

import (
	"context"
	"fmt"
	"time"

	"budgetplanner/backend/models"

	"github.com/shopspring/decimal"
)

// InsertLink records that amount of a credit was applied to an expense.
func (s *Store) InsertLink(ctx context.Context, expenseID, creditID int64, amount decimal.Decimal) (*models.ReimbursementLink, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("link amount must be >= 0, got %s", amount)
	}

	now := time.Now()
	amt := amount.InexactFloat64()
	id, err := s.insertReturningID(ctx, `
		INSERT INTO reimbursement_links (expense_tx_id, credit_tx_id, amount, created_at)
		VALUES (?, ?, ?, ?)`, expenseID, creditID, amt, toMillis(now))
	if err != nil {
		return nil, fmt.Errorf("insert link %d->%d: %w", creditID, expenseID, err)
	}

	s.publish(models.EntityLink, models.ActionCreated, id)
	return &models.ReimbursementLink{
		ID:          id,
		ExpenseTxID: expenseID,
		CreditTxID:  creditID,
		Amount:      amt,
		CreatedAt:   fromMillis(toMillis(now)),
	}, nil
}

func (s *Store) queryLinks(ctx context.Context, q string, args ...any) ([]models.ReimbursementLink, error) {
	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ReimbursementLink
	for rows.Next() {
		var (
			l       models.ReimbursementLink
			created int64
		)
		if err := rows.Scan(&l.ID, &l.ExpenseTxID, &l.CreditTxID, &l.Amount, &created); err != nil {
			return nil, err
		}
		l.CreatedAt = fromMillis(created)
		out = append(out, l)
	}
	return out, rows.Err()
}

// LinksForCredit lists links drawn from a credit, newest first.
func (s *Store) LinksForCredit(ctx context.Context, creditID int64) ([]models.ReimbursementLink, error) {
	return s.queryLinks(ctx, `
		SELECT id, expense_tx_id, credit_tx_id, amount, created_at
		FROM reimbursement_links WHERE credit_tx_id = ? ORDER BY id DESC`, creditID)
}

// LinksForExpense lists links covering an expense, newest first.
func (s *Store) LinksForExpense(ctx context.Context, expenseID int64) ([]models.ReimbursementLink, error) {
	return s.queryLinks(ctx, `
		SELECT id, expense_tx_id, credit_tx_id, amount, created_at
		FROM reimbursement_links WHERE expense_tx_id = ? ORDER BY id DESC`, expenseID)
}

func sumLinks(links []models.ReimbursementLink) decimal.Decimal {
	total := decimal.Zero
	for _, l := range links {
		total = total.Add(decimal.NewFromFloat(l.Amount))
	}
	return total
}

// SumCoveredForExpense is the total already applied to an expense.
func (s *Store) SumCoveredForExpense(ctx context.Context, expenseID int64) (decimal.Decimal, error) {
	links, err := s.LinksForExpense(ctx, expenseID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum links for expense %d: %w", expenseID, err)
	}
	return sumLinks(links), nil
}

// SumAllocatedFromCredit is the total already drawn from a credit.
func (s *Store) SumAllocatedFromCredit(ctx context.Context, creditID int64) (decimal.Decimal, error) {
	links, err := s.LinksForCredit(ctx, creditID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum links for credit %d: %w", creditID, err)
	}
	return sumLinks(links), nil
}

func (s *Store) GetLink(ctx context.Context, id int64) (*models.ReimbursementLink, error) {
	links, err := s.queryLinks(ctx, `
		SELECT id, expense_tx_id, credit_tx_id, amount, created_at
		FROM reimbursement_links WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get link %d: %w", id, err)
	}
	if len(links) == 0 {
		return nil, ErrNotFound
	}
	return &links[0], nil
}

func (s *Store) DeleteLink(ctx context.Context, id int64) error {
	res, err := s.exec(ctx, "DELETE FROM reimbursement_links WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete link %d: %w", id, err)
	}
	if err := expectAffected(res); err != nil {
		return err
	}
	s.publish(models.EntityLink, models.ActionDeleted, id)
	return nil
}
