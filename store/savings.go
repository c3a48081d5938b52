package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"budgetplanner/backend/models"

	"github.com/shopspring/decimal"
)

func scanPot(r rowScanner) (models.SavingsPot, error) {
	var (
		p    models.SavingsPot
		note sql.NullString
	)
	err := r.Scan(&p.ID, &p.Name, &p.Amount, &note)
	p.Note = note.String
	return p, err
}

func (s *Store) GetPot(ctx context.Context, name string) (*models.SavingsPot, error) {
	p, err := scanPot(s.queryRow(ctx, "SELECT id, name, amount, note FROM savings WHERE name = ?", name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get pot %q: %w", name, err)
	}
	return &p, nil
}

func (s *Store) ListPots(ctx context.Context) ([]models.SavingsPot, error) {
	rows, err := s.query(ctx, "SELECT id, name, amount, note FROM savings ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("list pots: %w", err)
	}
	defer rows.Close()

	var out []models.SavingsPot
	for rows.Next() {
		p, err := scanPot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreatePot inserts a new pot; a duplicate name is an error.
func (s *Store) CreatePot(ctx context.Context, p *models.SavingsPot) error {
	id, err := s.insertReturningID(ctx, "INSERT INTO savings (name, amount, note) VALUES (?, ?, ?)",
		p.Name, p.Amount, nullString(p.Note))
	if err != nil {
		return fmt.Errorf("create pot %q: %w", p.Name, err)
	}
	p.ID = id
	s.publish(models.EntitySavings, models.ActionCreated, id)
	return nil
}

// AddToPot adds amount to the named pot, creating it at zero first when
// it does not exist, and returns the updated pot.
func (s *Store) AddToPot(ctx context.Context, name string, amount decimal.Decimal) (*models.SavingsPot, error) {
	_, err := s.exec(ctx, `
		INSERT INTO savings (name, amount) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET amount = savings.amount + excluded.amount`,
		name, amount.InexactFloat64())
	if err != nil {
		return nil, fmt.Errorf("add to pot %q: %w", name, err)
	}

	p, err := s.GetPot(ctx, name)
	if err != nil {
		return nil, err
	}
	s.publish(models.EntitySavings, models.ActionUpdated, p.ID)
	return p, nil
}

func (s *Store) SetPotAmount(ctx context.Context, id int64, amount float64) error {
	res, err := s.exec(ctx, "UPDATE savings SET amount = ? WHERE id = ?", amount, id)
	if err != nil {
		return fmt.Errorf("set pot %d: %w", id, err)
	}
	if err := expectAffected(res); err != nil {
		return err
	}
	s.publish(models.EntitySavings, models.ActionUpdated, id)
	return nil
}

func (s *Store) UpdatePot(ctx context.Context, p *models.SavingsPot) error {
	res, err := s.exec(ctx, "UPDATE savings SET name = ?, amount = ?, note = ? WHERE id = ?",
		p.Name, p.Amount, nullString(p.Note), p.ID)
	if err != nil {
		return fmt.Errorf("update pot %d: %w", p.ID, err)
	}
	if err := expectAffected(res); err != nil {
		return err
	}
	s.publish(models.EntitySavings, models.ActionUpdated, p.ID)
	return nil
}

func (s *Store) DeletePot(ctx context.Context, id int64) error {
	res, err := s.exec(ctx, "DELETE FROM savings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete pot %d: %w", id, err)
	}
	if err := expectAffected(res); err != nil {
		return err
	}
	s.publish(models.EntitySavings, models.ActionDeleted, id)
	return nil
}

// SavingsTotal sums every pot.
func (s *Store) SavingsTotal(ctx context.Context) (decimal.Decimal, error) {
	pots, err := s.ListPots(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, p := range pots {
		total = total.Add(decimal.NewFromFloat(p.Amount))
	}
	return total, nil
}
