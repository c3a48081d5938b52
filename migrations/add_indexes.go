package migrations

import (
	"context"
	"fmt"

	"budgetplanner/backend/database"
)

// AddTransactionDedupeIndex makes re-imported SMS and bank rows collide
// instead of duplicating.
func AddTransactionDedupeIndex(ctx context.Context, db *database.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE UNIQUE INDEX IF NOT EXISTS ux_transactions_dedupe
		ON transactions (occurred_at, original_amount, original_currency, merchant_norm)
	`)
	if err != nil {
		return fmt.Errorf("failed to create dedupe index: %w", err)
	}
	return nil
}

func AddLinkIndexes(ctx context.Context, db *database.DB) error {
	stmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_links_expense ON reimbursement_links (expense_tx_id)`,
		`CREATE INDEX IF NOT EXISTS idx_links_credit ON reimbursement_links (credit_tx_id)`,
		`CREATE INDEX IF NOT EXISTS idx_rules_priority ON merchant_rules (priority, id)`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("failed to create link indexes: %w", err)
		}
	}
	return nil
}
