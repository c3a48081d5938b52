package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"budgetplanner/backend/models"
	"budgetplanner/backend/store"

	"github.com/shopspring/decimal"
)

// TransactionService validates and normalizes user-entered transactions.
type TransactionService struct {
	store *store.Store
	rates *RateService
	rules *RuleService
	loc   *time.Location
}

func NewTransactionService(st *store.Store, rates *RateService, rules *RuleService, loc *time.Location) *TransactionService {
	if loc == nil {
		loc = time.Local
	}
	return &TransactionService{store: st, rates: rates, rules: rules, loc: loc}
}

// MonthRange returns [first day of month, first day of next month) in loc.
func MonthRange(month string, loc *time.Location) (time.Time, time.Time, error) {
	m, err := time.ParseInLocation("2006-01", month, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: month must be YYYY-MM, got %q", ErrInvalidArgument, month)
	}
	return m, m.AddDate(0, 1, 0), nil
}

func (s *TransactionService) prepare(ctx context.Context, t *models.Transaction) error {
	if t.OriginalAmount == 0 {
		return fmt.Errorf("%w: amount must not be zero", ErrInvalidArgument)
	}
	t.OriginalCurrency = strings.ToUpper(strings.TrimSpace(t.OriginalCurrency))
	if t.OriginalCurrency == "" {
		t.OriginalCurrency = s.rates.Reference()
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now()
	}
	if t.Category == "" {
		t.Category = models.CategoryOther
	} else if c, ok := models.LookupCategory(string(t.Category)); ok {
		t.Category = c
	} else {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidArgument, t.Category)
	}
	t.Merchant = strings.TrimSpace(t.Merchant)

	if t.NormalizedAmount == 0 {
		n, err := s.rates.Normalize(ctx, decimal.NewFromFloat(t.OriginalAmount), t.OriginalCurrency)
		if err != nil {
			return fmt.Errorf("normalize amount: %w", err)
		}
		t.NormalizedAmount = n.InexactFloat64()
	}
	return nil
}

// Create stores a transaction, normalizing it when no normalized amount is
// given, and applies merchant rules to it.
func (s *TransactionService) Create(ctx context.Context, t *models.Transaction) error {
	if t.Source == "" {
		t.Source = models.SourceManual
	}
	if err := s.prepare(ctx, t); err != nil {
		return err
	}
	return s.store.InTx(ctx, func(tx *store.Store) error {
		if err := tx.InsertTransaction(ctx, t); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
			}
			return err
		}
		_, err := s.rules.applyToTransaction(ctx, tx, t)
		return err
	})
}

func (s *TransactionService) Get(ctx context.Context, id int64) (*models.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

// Update replaces a transaction's fields. The normalized amount is
// recomputed when the amount or currency changed and none was supplied.
func (s *TransactionService) Update(ctx context.Context, t *models.Transaction) error {
	return s.store.InTx(ctx, func(tx *store.Store) error {
		existing, err := tx.GetTransaction(ctx, t.ID)
		if err != nil {
			return err
		}
		if t.Source == "" {
			t.Source = existing.Source
		}
		if t.NormalizedAmount == existing.NormalizedAmount &&
			(t.OriginalAmount != existing.OriginalAmount || !strings.EqualFold(t.OriginalCurrency, existing.OriginalCurrency)) {
			t.NormalizedAmount = 0
		}
		if err := s.prepare(ctx, t); err != nil {
			return err
		}
		if err := checkLinkedAmount(ctx, tx, existing, t); err != nil {
			return err
		}
		return tx.UpdateTransaction(ctx, t)
	})
}

// checkLinkedAmount keeps an edit consistent with the reimbursement links
// already recorded for the transaction: links may never exceed the new
// amount and a linked transaction cannot change sign. The fully reimbursed
// marker is carried over and dropped once coverage is no longer complete.
func checkLinkedAmount(ctx context.Context, tx *store.Store, existing, t *models.Transaction) error {
	t.ReimbursedGroup = existing.ReimbursedGroup

	var (
		linked decimal.Decimal
		err    error
	)
	if existing.IsExpense() {
		linked, err = tx.SumCoveredForExpense(ctx, existing.ID)
	} else {
		linked, err = tx.SumAllocatedFromCredit(ctx, existing.ID)
	}
	if err != nil {
		return err
	}
	if !linked.IsPositive() {
		t.ReimbursedGroup = ""
		return nil
	}

	if existing.IsExpense() != t.IsExpense() {
		return fmt.Errorf("%w: transaction %d has reimbursement links and cannot change sign", ErrInvalidArgument, t.ID)
	}
	amount := decimal.NewFromFloat(t.NormalizedAmount).Abs()
	if linked.GreaterThan(amount) {
		return fmt.Errorf("%w: transaction %d has %s linked, more than the new amount %s",
			ErrInvalidArgument, t.ID, linked.String(), amount.String())
	}
	if t.IsExpense() && linked.LessThan(amount) {
		t.ReimbursedGroup = ""
	}
	return nil
}

func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteTransaction(ctx, id)
}

func (s *TransactionService) ListMonth(ctx context.Context, month string) ([]models.Transaction, error) {
	start, end, err := MonthRange(month, s.loc)
	if err != nil {
		return nil, err
	}
	return s.store.ListTransactionsBetween(ctx, start, end)
}

func (s *TransactionService) ListBetween(ctx context.Context, start, end time.Time) ([]models.Transaction, error) {
	return s.store.ListTransactionsBetween(ctx, start, end)
}

func (s *TransactionService) SetParty(ctx context.Context, id int64, party string) error {
	return s.store.SetParty(ctx, id, strings.TrimSpace(party))
}

func (s *TransactionService) SetExcludePersonal(ctx context.Context, id int64, exclude bool) error {
	return s.store.SetExcludePersonal(ctx, id, exclude)
}

func (s *TransactionService) Links(ctx context.Context, id int64) ([]models.ReimbursementLink, error) {
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.IsCredit() {
		return s.store.LinksForCredit(ctx, id)
	}
	return s.store.LinksForExpense(ctx, id)
}

// DeleteLink removes a reimbursement link and clears the fully reimbursed
// marker of its expense.
func (s *TransactionService) DeleteLink(ctx context.Context, id int64) error {
	return s.store.InTx(ctx, func(tx *store.Store) error {
		l, err := tx.GetLink(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteLink(ctx, id); err != nil {
			return err
		}
		return tx.SetReimbursedGroup(ctx, l.ExpenseTxID, "")
	})
}
