package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"budgetplanner/backend/models"
	"budgetplanner/backend/store"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultLookbackDays is the allocation window used when none is given.
const DefaultLookbackDays = 14

type AllocationConfig struct {
	// BenefactorParty tags benefactor credits and marks fully reimbursed expenses.
	BenefactorParty string
	// SurplusPot receives what is left of a benefactor credit.
	SurplusPot   string
	LookbackDays int
	Location     *time.Location
}

// AllocationService matches reimbursement credits against flagged expenses
// and records the result as reimbursement links. Each operation runs in one
// storage transaction and operations are serialized within the process.
type AllocationService struct {
	store *store.Store
	cfg   AllocationConfig
	log   zerolog.Logger
	mu    sync.Mutex
}

func NewAllocationService(st *store.Store, cfg AllocationConfig, log zerolog.Logger) *AllocationService {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = DefaultLookbackDays
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.BenefactorParty == "" {
		cfg.BenefactorParty = "MOM"
	}
	if cfg.SurplusPot == "" {
		cfg.SurplusPot = "Mom surplus"
	}
	return &AllocationService{store: st, cfg: cfg, log: log.With().Str("component", "allocation").Logger()}
}

// BenefactorParty returns the configured party label.
func (a *AllocationService) BenefactorParty() string {
	return a.cfg.BenefactorParty
}

// windowStart is local midnight lookbackDays before t.
func (a *AllocationService) windowStart(t time.Time, lookbackDays int) time.Time {
	if lookbackDays <= 0 {
		lookbackDays = a.cfg.LookbackDays
	}
	local := t.In(a.cfg.Location)
	return time.Date(local.Year(), local.Month(), local.Day()-lookbackDays, 0, 0, 0, 0, a.cfg.Location)
}

func (a *AllocationService) loadRole(ctx context.Context, tx *store.Store, id int64, wantCredit bool) (*models.Transaction, error) {
	t, err := tx.LockTransaction(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: transaction %d does not exist", ErrInvalidArgument, id)
	}
	if err != nil {
		return nil, err
	}
	if wantCredit && !t.IsCredit() {
		return nil, fmt.Errorf("%w: transaction %d is not a credit", ErrInvalidArgument, id)
	}
	if !wantCredit && !t.IsExpense() {
		return nil, fmt.Errorf("%w: transaction %d is not an expense", ErrInvalidArgument, id)
	}
	return t, nil
}

// AllocateFromCredit spreads the unallocated part of a credit over flagged
// expenses in its lookback window, newest first.
func (a *AllocationService) AllocateFromCredit(ctx context.Context, creditID int64, lookbackDays int) (models.CreditAllocation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var res models.CreditAllocation
	err := a.store.InTx(ctx, func(tx *store.Store) error {
		credit, err := a.loadRole(ctx, tx, creditID, true)
		if err != nil {
			return err
		}
		r, err := a.allocateCredit(ctx, tx, credit, lookbackDays)
		res = r.result()
		return err
	})
	if err != nil {
		return models.CreditAllocation{}, err
	}
	return res, nil
}

type creditOutcome struct {
	matched, surplus decimal.Decimal
	count            int
}

func (o creditOutcome) result() models.CreditAllocation {
	return models.CreditAllocation{
		Matched: o.matched.InexactFloat64(),
		Count:   o.count,
		Surplus: o.surplus.InexactFloat64(),
	}
}

func (a *AllocationService) allocateCredit(ctx context.Context, tx *store.Store, credit *models.Transaction, lookbackDays int) (creditOutcome, error) {
	out := creditOutcome{matched: decimal.Zero, surplus: decimal.Zero}

	allocated, err := tx.SumAllocatedFromCredit(ctx, credit.ID)
	if err != nil {
		return out, err
	}
	remaining := decimal.NewFromFloat(credit.NormalizedAmount).Abs().Sub(allocated)
	if !remaining.IsPositive() {
		return out, nil
	}

	from := a.windowStart(credit.Timestamp, lookbackDays)
	candidates, err := tx.ReimbursementExpenseCandidates(ctx, from, credit.Timestamp)
	if err != nil {
		return out, fmt.Errorf("load expense candidates: %w", err)
	}

	for _, e := range candidates {
		if !remaining.IsPositive() {
			break
		}
		covered, err := tx.SumCoveredForExpense(ctx, e.ID)
		if err != nil {
			return out, err
		}
		need := decimal.Max(decimal.NewFromFloat(e.NormalizedAmount).Abs().Sub(covered), decimal.Zero)
		if !need.IsPositive() {
			continue
		}

		cover := decimal.Min(need, remaining)
		if _, err := tx.InsertLink(ctx, e.ID, credit.ID, cover); err != nil {
			return out, err
		}
		remaining = remaining.Sub(cover)
		out.matched = out.matched.Add(cover)
		out.count++

		if cover.Equal(need) {
			if err := tx.SetReimbursedGroup(ctx, e.ID, a.cfg.BenefactorParty); err != nil {
				return out, err
			}
		}
	}

	out.surplus = decimal.Max(remaining, decimal.Zero)
	a.log.Info().
		Int64("credit_id", credit.ID).
		Str("matched", out.matched.String()).
		Int("count", out.count).
		Str("surplus", out.surplus.String()).
		Msg("allocated credit")
	return out, nil
}

// AllocateFromExpense covers an expense from the benefactor's credits in
// its lookback window, newest first.
func (a *AllocationService) AllocateFromExpense(ctx context.Context, expenseID int64, lookbackDays int) (models.ExpenseAllocation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var res models.ExpenseAllocation
	err := a.store.InTx(ctx, func(tx *store.Store) error {
		expense, err := a.loadRole(ctx, tx, expenseID, false)
		if err != nil {
			return err
		}

		total := decimal.NewFromFloat(expense.NormalizedAmount).Abs()
		covered, err := tx.SumCoveredForExpense(ctx, expense.ID)
		if err != nil {
			return err
		}
		uncovered := decimal.Max(total.Sub(covered), decimal.Zero)
		if !uncovered.IsPositive() {
			// Already covered: report the whole expense as allocated.
			res = models.ExpenseAllocation{Allocated: total.InexactFloat64()}
			return nil
		}

		from := a.windowStart(expense.Timestamp, lookbackDays)
		credits, err := tx.PartyCredits(ctx, a.cfg.BenefactorParty, from, expense.Timestamp)
		if err != nil {
			return fmt.Errorf("load credit candidates: %w", err)
		}

		allocated := decimal.Zero
		for _, c := range credits {
			if !uncovered.IsPositive() {
				break
			}
			drawn, err := tx.SumAllocatedFromCredit(ctx, c.ID)
			if err != nil {
				return err
			}
			remaining := decimal.NewFromFloat(c.NormalizedAmount).Sub(drawn)
			if !remaining.IsPositive() {
				continue
			}

			cover := decimal.Min(uncovered, remaining)
			if _, err := tx.InsertLink(ctx, expense.ID, c.ID, cover); err != nil {
				return err
			}
			allocated = allocated.Add(cover)
			uncovered = uncovered.Sub(cover)
		}

		if !uncovered.IsPositive() {
			if err := tx.SetReimbursedGroup(ctx, expense.ID, a.cfg.BenefactorParty); err != nil {
				return err
			}
		}

		res = models.ExpenseAllocation{
			Allocated: allocated.InexactFloat64(),
			Uncovered: decimal.Max(uncovered, decimal.Zero).InexactFloat64(),
		}
		a.log.Info().
			Int64("expense_id", expense.ID).
			Str("allocated", allocated.String()).
			Str("uncovered", uncovered.String()).
			Msg("allocated expense")
		return nil
	})
	if err != nil {
		return models.ExpenseAllocation{}, err
	}
	return res, nil
}

// MarkCreditFromBenefactor tags a credit with the benefactor party,
// allocates it with the default window and moves any surplus into the
// surplus pot. Only the part of the surplus not yet deposited for this
// credit is moved, so repeating the call does not count it twice.
func (a *AllocationService) MarkCreditFromBenefactor(ctx context.Context, creditID int64) (models.BenefactorCreditResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var res models.BenefactorCreditResult
	err := a.store.InTx(ctx, func(tx *store.Store) error {
		credit, err := a.loadRole(ctx, tx, creditID, true)
		if err != nil {
			return err
		}
		if credit.Party != a.cfg.BenefactorParty {
			if err := tx.SetParty(ctx, credit.ID, a.cfg.BenefactorParty); err != nil {
				return err
			}
			credit.Party = a.cfg.BenefactorParty
		}

		out, err := a.allocateCredit(ctx, tx, credit, a.cfg.LookbackDays)
		if err != nil {
			return err
		}
		res.Allocation = out.result()

		deposited, err := tx.SurplusDeposited(ctx, credit.ID)
		if err != nil {
			return err
		}
		due := out.surplus.Sub(deposited)
		if !due.IsPositive() {
			return nil
		}
		pot, err := tx.AddToPot(ctx, a.cfg.SurplusPot, due)
		if err != nil {
			return err
		}
		if err := tx.AddSurplusDeposited(ctx, credit.ID, due); err != nil {
			return err
		}
		res.Deposited = due.InexactFloat64()
		res.Pot = pot
		return nil
	})
	if err != nil {
		return models.BenefactorCreditResult{}, err
	}
	return res, nil
}

// DepositSurplus adds amount to the surplus pot, creating it if needed.
func (a *AllocationService) DepositSurplus(ctx context.Context, amount float64) (*models.SavingsPot, error) {
	if amount < 0 {
		return nil, fmt.Errorf("%w: surplus must not be negative", ErrInvalidArgument)
	}
	return a.store.AddToPot(ctx, a.cfg.SurplusPot, decimal.NewFromFloat(amount))
}
