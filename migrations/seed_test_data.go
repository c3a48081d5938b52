package migrations

import (
	"context"
	"fmt"
	"time"

	"budgetplanner/backend/database"

	"github.com/rs/zerolog"
)

type sampleTx struct {
	daysAgo  int
	amount   float64
	merchant string
	category string
	exclude  bool
	party    string
}

var sampleTransactions = []sampleTx{
	{daysAgo: 1, amount: -84.37, merchant: "LIDL", category: "FOOD"},
	{daysAgo: 2, amount: -23.50, merchant: "BOLT", category: "TRANSPORT"},
	{daysAgo: 3, amount: -120.00, merchant: "CATENA", category: "FARMACY", exclude: true},
	{daysAgo: 5, amount: -45.99, merchant: "EMAG", category: "DORINTE"},
	{daysAgo: 6, amount: -310.00, merchant: "ENEL", category: "APARTMENT", exclude: true},
	{daysAgo: 2, amount: 500.00, merchant: "POPESCU MARIA", category: "OTHER", party: "MOM"},
}

var sampleSavings = []struct {
	name   string
	amount float64
}{
	{"Emergency", 2500},
	{"Mom surplus", 0},
}

// SeedTestData fills an empty ledger with a few transactions and savings
// pots for development. It does nothing when transactions already exist.
func SeedTestData(ctx context.Context, db *database.DB, log zerolog.Logger) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count); err != nil {
		return fmt.Errorf("failed to count transactions: %w", err)
	}
	if count > 0 {
		log.Info().Int("transactions", count).Msg("skipping sample data, ledger is not empty")
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	insertTx := db.Dialect.Rebind(`INSERT INTO transactions
		(occurred_at, original_amount, original_currency, normalized_amount, merchant, merchant_norm, category, source, exclude_personal, party)
		VALUES (?, ?, 'RON', ?, ?, ?, ?, 'MANUAL', ?, ?)`)
	for _, s := range sampleTransactions {
		at := now.AddDate(0, 0, -s.daysAgo).UnixMilli()
		var party any
		if s.party != "" {
			party = s.party
		}
		if _, err := tx.ExecContext(ctx, insertTx, at, s.amount, s.amount, s.merchant, s.merchant, s.category, s.exclude, party); err != nil {
			return fmt.Errorf("failed to insert sample transaction %s: %w", s.merchant, err)
		}
	}

	insertPot := db.Dialect.Rebind(`INSERT INTO savings (name, amount) VALUES (?, ?)`)
	for _, p := range sampleSavings {
		if _, err := tx.ExecContext(ctx, insertPot, p.name, p.amount); err != nil {
			return fmt.Errorf("failed to insert savings pot %s: %w", p.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sample data: %w", err)
	}
	log.Info().Int("transactions", len(sampleTransactions)).Int("savings", len(sampleSavings)).Msg("seeded sample data")
	return nil
}
