package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"budgetplanner/backend/models"

	"github.com/shopspring/decimal"
)

const txColumns = `id, occurred_at, original_amount, original_currency, normalized_amount,
	merchant, note, category, source, pending, exclude_personal, party, reimbursed_group`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanTransaction(r rowScanner) (models.Transaction, error) {
	var (
		t                            models.Transaction
		occurred                     int64
		merchant, note, party, group sql.NullString
		category, source             string
	)
	err := r.Scan(&t.ID, &occurred, &t.OriginalAmount, &t.OriginalCurrency, &t.NormalizedAmount,
		&merchant, &note, &category, &source, &t.Pending, &t.ExcludePersonal, &party, &group)
	if err != nil {
		return t, err
	}

	t.Timestamp = fromMillis(occurred)
	t.Merchant = merchant.String
	t.Category = models.ParseCategory(category)
	t.Source = models.ParseSource(source)
	t.Party = party.String
	t.ReimbursedGroup = group.String

	t.Note, err = s.cipher.Open(note.String)
	if err != nil {
		return t, fmt.Errorf("decrypt note of transaction %d: %w", t.ID, err)
	}
	return t, nil
}

func (s *Store) queryTransactions(ctx context.Context, q string, args ...any) ([]models.Transaction, error) {
	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		t, err := s.scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// InsertTransaction stores t and sets t.ID. A row with the same timestamp,
// amount, currency and merchant already present yields ErrDuplicate.
func (s *Store) InsertTransaction(ctx context.Context, t *models.Transaction) error {
	if t.Category == "" {
		t.Category = models.CategoryOther
	}
	if t.Source == "" {
		t.Source = models.SourceManual
	}

	note, err := s.cipher.Seal(t.Note)
	if err != nil {
		return fmt.Errorf("encrypt note: %w", err)
	}

	id, err := s.insertReturningID(ctx, `
		INSERT INTO transactions (occurred_at, original_amount, original_currency, normalized_amount,
			merchant, merchant_norm, note, category, source, pending, exclude_personal, party, reimbursed_group)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (occurred_at, original_amount, original_currency, merchant_norm) DO NOTHING`,
		toMillis(t.Timestamp), t.OriginalAmount, t.OriginalCurrency, t.NormalizedAmount,
		nullString(t.Merchant), t.MerchantNorm(), nullString(note), string(t.Category), string(t.Source),
		t.Pending, t.ExcludePersonal, nullString(t.Party), nullString(t.ReimbursedGroup))
	if errors.Is(err, sql.ErrNoRows) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	t.ID = id
	s.publish(models.EntityTransaction, models.ActionCreated, id)
	return nil
}

// InsertTransactionIgnore is InsertTransaction that reports duplicates as
// inserted=false instead of an error.
func (s *Store) InsertTransactionIgnore(ctx context.Context, t *models.Transaction) (bool, error) {
	err := s.InsertTransaction(ctx, t)
	if errors.Is(err, ErrDuplicate) {
		return false, nil
	}
	return err == nil, err
}

func (s *Store) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	return s.getTransaction(ctx, id, "")
}

// LockTransaction reads a transaction and, on dialects that support it,
// locks the row until the surrounding transaction ends.
func (s *Store) LockTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	return s.getTransaction(ctx, id, s.db.Dialect.ForUpdate())
}

func (s *Store) getTransaction(ctx context.Context, id int64, suffix string) (*models.Transaction, error) {
	row := s.queryRow(ctx, "SELECT "+txColumns+" FROM transactions WHERE id = ?"+suffix, id)
	t, err := s.scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return &t, nil
}

// UpdateTransaction rewrites every mutable column of t.
func (s *Store) UpdateTransaction(ctx context.Context, t *models.Transaction) error {
	note, err := s.cipher.Seal(t.Note)
	if err != nil {
		return fmt.Errorf("encrypt note: %w", err)
	}

	res, err := s.exec(ctx, `
		UPDATE transactions SET occurred_at = ?, original_amount = ?, original_currency = ?,
			normalized_amount = ?, merchant = ?, merchant_norm = ?, note = ?, category = ?, source = ?,
			pending = ?, exclude_personal = ?, party = ?, reimbursed_group = ?
		WHERE id = ?`,
		toMillis(t.Timestamp), t.OriginalAmount, t.OriginalCurrency, t.NormalizedAmount,
		nullString(t.Merchant), t.MerchantNorm(), nullString(note), string(t.Category), string(t.Source),
		t.Pending, t.ExcludePersonal, nullString(t.Party), nullString(t.ReimbursedGroup), t.ID)
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", t.ID, err)
	}
	if err := expectAffected(res); err != nil {
		return err
	}
	s.publish(models.EntityTransaction, models.ActionUpdated, t.ID)
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := s.exec(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if err := expectAffected(res); err != nil {
		return err
	}
	s.publish(models.EntityTransaction, models.ActionDeleted, id)
	return nil
}

func (s *Store) updateColumn(ctx context.Context, id int64, column string, value any) error {
	res, err := s.exec(ctx, "UPDATE transactions SET "+column+" = ? WHERE id = ?", value, id)
	if err != nil {
		return fmt.Errorf("update %s of transaction %d: %w", column, id, err)
	}
	if err := expectAffected(res); err != nil {
		return err
	}
	s.publish(models.EntityTransaction, models.ActionUpdated, id)
	return nil
}

// SetParty sets or, with an empty party, clears the party tag.
func (s *Store) SetParty(ctx context.Context, id int64, party string) error {
	return s.updateColumn(ctx, id, "party", nullString(party))
}

func (s *Store) SetExcludePersonal(ctx context.Context, id int64, exclude bool) error {
	return s.updateColumn(ctx, id, "exclude_personal", exclude)
}

func (s *Store) SetCategory(ctx context.Context, id int64, c models.Category) error {
	return s.updateColumn(ctx, id, "category", string(c))
}

// SetReimbursedGroup stamps the fully reimbursed marker.
func (s *Store) SetReimbursedGroup(ctx context.Context, id int64, group string) error {
	return s.updateColumn(ctx, id, "reimbursed_group", nullString(group))
}

// SurplusDeposited returns how much of credit id has been moved to the
// surplus pot so far.
func (s *Store) SurplusDeposited(ctx context.Context, id int64) (decimal.Decimal, error) {
	var v float64
	err := s.queryRow(ctx, "SELECT surplus_deposited FROM transactions WHERE id = ?", id).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, ErrNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("get surplus of transaction %d: %w", id, err)
	}
	return decimal.NewFromFloat(v), nil
}

func (s *Store) AddSurplusDeposited(ctx context.Context, id int64, amount decimal.Decimal) error {
	res, err := s.exec(ctx, "UPDATE transactions SET surplus_deposited = surplus_deposited + ? WHERE id = ?",
		amount.InexactFloat64(), id)
	if err != nil {
		return fmt.Errorf("record surplus of transaction %d: %w", id, err)
	}
	return expectAffected(res)
}

func (s *Store) UpdateNoteAndCategory(ctx context.Context, id int64, note string, c models.Category) error {
	sealed, err := s.cipher.Seal(note)
	if err != nil {
		return fmt.Errorf("encrypt note: %w", err)
	}
	res, err := s.exec(ctx, "UPDATE transactions SET note = ?, category = ? WHERE id = ?", nullString(sealed), string(c), id)
	if err != nil {
		return fmt.Errorf("update note of transaction %d: %w", id, err)
	}
	if err := expectAffected(res); err != nil {
		return err
	}
	s.publish(models.EntityTransaction, models.ActionUpdated, id)
	return nil
}

// ListTransactionsBetween returns transactions in [start, end), newest first.
func (s *Store) ListTransactionsBetween(ctx context.Context, start, end time.Time) ([]models.Transaction, error) {
	return s.queryTransactions(ctx, `
		SELECT `+txColumns+` FROM transactions
		WHERE occurred_at >= ? AND occurred_at < ?
		ORDER BY occurred_at DESC, id DESC`, toMillis(start), toMillis(end))
}

// ListMerchantTransactionsBetween is ListTransactionsBetween restricted to
// rows with a merchant label.
func (s *Store) ListMerchantTransactionsBetween(ctx context.Context, start, end time.Time) ([]models.Transaction, error) {
	return s.queryTransactions(ctx, `
		SELECT `+txColumns+` FROM transactions
		WHERE occurred_at >= ? AND occurred_at < ? AND merchant_norm <> ''
		ORDER BY occurred_at DESC, id DESC`, toMillis(start), toMillis(end))
}

// ReimbursementExpenseCandidates returns settled expenses flagged for the
// reimbursement track with from <= timestamp <= to, newest first.
func (s *Store) ReimbursementExpenseCandidates(ctx context.Context, from, to time.Time) ([]models.Transaction, error) {
	return s.queryTransactions(ctx, `
		SELECT `+txColumns+` FROM transactions
		WHERE pending = ? AND exclude_personal = ? AND original_amount < 0
		  AND occurred_at BETWEEN ? AND ?
		ORDER BY occurred_at DESC, id DESC`, false, true, toMillis(from), toMillis(to))
}

// PartyCredits returns settled credits tagged with party, from <= timestamp <= to,
// newest first.
func (s *Store) PartyCredits(ctx context.Context, party string, from, to time.Time) ([]models.Transaction, error) {
	return s.queryTransactions(ctx, `
		SELECT `+txColumns+` FROM transactions
		WHERE pending = ? AND original_amount > 0 AND party = ?
		  AND occurred_at BETWEEN ? AND ?
		ORDER BY occurred_at DESC, id DESC`, false, party, toMillis(from), toMillis(to))
}

// ExcludedExpensesBetween returns settled reimbursement-track expenses in [start, end).
func (s *Store) ExcludedExpensesBetween(ctx context.Context, start, end time.Time) ([]models.Transaction, error) {
	return s.queryTransactions(ctx, `
		SELECT `+txColumns+` FROM transactions
		WHERE pending = ? AND original_amount < 0 AND exclude_personal = ?
		  AND occurred_at >= ? AND occurred_at < ?
		ORDER BY occurred_at DESC, id DESC`, false, true, toMillis(start), toMillis(end))
}

// PersonalExpensesBetween returns settled expenses not on the reimbursement track in [start, end).
func (s *Store) PersonalExpensesBetween(ctx context.Context, start, end time.Time) ([]models.Transaction, error) {
	return s.queryTransactions(ctx, `
		SELECT `+txColumns+` FROM transactions
		WHERE pending = ? AND original_amount < 0 AND exclude_personal = ?
		  AND occurred_at >= ? AND occurred_at < ?
		ORDER BY occurred_at DESC, id DESC`, false, false, toMillis(start), toMillis(end))
}

// UnflaggedExpensesBetween is PersonalExpensesBetween including pending rows.
func (s *Store) UnflaggedExpensesBetween(ctx context.Context, start, end time.Time) ([]models.Transaction, error) {
	return s.queryTransactions(ctx, `
		SELECT `+txColumns+` FROM transactions
		WHERE original_amount < 0 AND exclude_personal = ?
		  AND occurred_at >= ? AND occurred_at < ?
		ORDER BY occurred_at DESC, id DESC`, false, toMillis(start), toMillis(end))
}

// SumPersonalSpendBetween is the absolute normalized total of
// PersonalExpensesBetween.
func (s *Store) SumPersonalSpendBetween(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	txs, err := s.PersonalExpensesBetween(ctx, start, end)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, t := range txs {
		total = total.Add(decimal.NewFromFloat(t.NormalizedAmount).Abs())
	}
	return total, nil
}

// NetSumBetween adds the signed normalized amounts of all transactions in [start, end).
func (s *Store) NetSumBetween(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	txs, err := s.ListTransactionsBetween(ctx, start, end)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, t := range txs {
		total = total.Add(decimal.NewFromFloat(t.NormalizedAmount))
	}
	return total, nil
}
