package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"budgetplanner/backend/database"
	"budgetplanner/backend/events"
	"budgetplanner/backend/migrations"
	"budgetplanner/backend/models"
	"budgetplanner/backend/prefs"
	"budgetplanner/backend/store"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const testParty = "MOM"

// fixedSource is a RateSource returning a constant rate or an error.
type fixedSource struct {
	name  string
	rate  decimal.Decimal
	err   error
	calls int
}

func (f *fixedSource) Name() string { return f.name }

func (f *fixedSource) Fetch(_ context.Context, _, _ string) (decimal.Decimal, error) {
	f.calls++
	if f.err != nil {
		return decimal.Zero, f.err
	}
	return f.rate, nil
}

var errSourceDown = errors.New("source down")

type testEnv struct {
	store      *store.Store
	broker     *events.Broker
	prefs      *prefs.MemoryStore
	rates      *RateService
	rules      *RuleService
	allocation *AllocationService
	txs        *TransactionService
}

func newTestEnv(t *testing.T, sources ...RateSource) *testEnv {
	t.Helper()
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.RunMigrations(context.Background(), db, zerolog.Nop()); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	broker := events.NewBroker()
	t.Cleanup(broker.Close)

	st := store.New(db, nil, broker)
	p := prefs.NewMemoryStore()
	rates := NewRateService(p, "RON", broker, zerolog.Nop(), sources...)
	rules := NewRuleService(st, testParty, "POPESCU", zerolog.Nop())
	alloc := NewAllocationService(st, AllocationConfig{
		BenefactorParty: testParty,
		SurplusPot:      "Mom surplus",
		LookbackDays:    14,
		Location:        time.Local,
	}, zerolog.Nop())

	return &testEnv{
		store:      st,
		broker:     broker,
		prefs:      p,
		rates:      rates,
		rules:      rules,
		allocation: alloc,
		txs:        NewTransactionService(st, rates, rules, time.Local),
	}
}

func day(d int) time.Time {
	return time.Date(2025, time.March, d, 12, 0, 0, 0, time.Local)
}

func (e *testEnv) insert(t *testing.T, tx models.Transaction) models.Transaction {
	t.Helper()
	if tx.OriginalCurrency == "" {
		tx.OriginalCurrency = "RON"
	}
	if tx.NormalizedAmount == 0 {
		tx.NormalizedAmount = tx.OriginalAmount
	}
	if err := e.store.InsertTransaction(context.Background(), &tx); err != nil {
		t.Fatalf("InsertTransaction failed: %v", err)
	}
	return tx
}

func (e *testEnv) expense(t *testing.T, amount float64, at time.Time, merchant string) models.Transaction {
	t.Helper()
	return e.insert(t, models.Transaction{
		Timestamp:       at,
		OriginalAmount:  -amount,
		Merchant:        merchant,
		ExcludePersonal: true,
	})
}

func (e *testEnv) credit(t *testing.T, amount float64, at time.Time, party string) models.Transaction {
	t.Helper()
	return e.insert(t, models.Transaction{
		Timestamp:      at,
		OriginalAmount: amount,
		Merchant:       "TRANSFER",
		Party:          party,
	})
}

func (e *testEnv) get(t *testing.T, id int64) *models.Transaction {
	t.Helper()
	tx, err := e.store.GetTransaction(context.Background(), id)
	if err != nil {
		t.Fatalf("GetTransaction(%d) failed: %v", id, err)
	}
	return tx
}

func (e *testEnv) covered(t *testing.T, expenseID int64) float64 {
	t.Helper()
	sum, err := e.store.SumCoveredForExpense(context.Background(), expenseID)
	if err != nil {
		t.Fatalf("SumCoveredForExpense failed: %v", err)
	}
	return sum.InexactFloat64()
}

func modelsExpense(amount float64, at time.Time, pending, exclude bool) models.Transaction {
	return models.Transaction{
		Timestamp:       at,
		OriginalAmount:  -amount,
		Merchant:        "MISC",
		Pending:         pending,
		ExcludePersonal: exclude,
	}
}

func decimalOf(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}
