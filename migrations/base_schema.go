package migrations

import (
	"context"
	"fmt"

	"budgetplanner/backend/database"
)

// Timestamps are epoch milliseconds; amounts are stored as doubles and
// converted to decimals for arithmetic.
var baseSchema = []string{
	`CREATE TABLE IF NOT EXISTS transactions (
		id {{serial}},
		occurred_at BIGINT NOT NULL,
		original_amount DOUBLE PRECISION NOT NULL,
		original_currency TEXT NOT NULL,
		normalized_amount DOUBLE PRECISION NOT NULL,
		merchant TEXT,
		merchant_norm TEXT NOT NULL DEFAULT '',
		note TEXT,
		category TEXT NOT NULL DEFAULT 'OTHER',
		source TEXT NOT NULL DEFAULT 'MANUAL',
		pending BOOLEAN NOT NULL DEFAULT FALSE,
		exclude_personal BOOLEAN NOT NULL DEFAULT FALSE,
		party TEXT,
		reimbursed_group TEXT,
		created_at TIMESTAMP DEFAULT {{now}}
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_occurred_at ON transactions (occurred_at)`,

	`CREATE TABLE IF NOT EXISTS reimbursement_links (
		id {{serial}},
		expense_tx_id BIGINT NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
		credit_tx_id BIGINT NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
		amount DOUBLE PRECISION NOT NULL CHECK (amount >= 0),
		created_at BIGINT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS savings (
		id {{serial}},
		name TEXT NOT NULL UNIQUE,
		amount DOUBLE PRECISION NOT NULL DEFAULT 0,
		note TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS merchant_rules (
		id {{serial}},
		match_type TEXT NOT NULL DEFAULT 'CONTAINS',
		pattern TEXT NOT NULL,
		category TEXT,
		exclude_personal BOOLEAN NOT NULL DEFAULT FALSE,
		set_party TEXT,
		priority INTEGER NOT NULL DEFAULT 100
	)`,

	`CREATE TABLE IF NOT EXISTS recurring_expenses (
		id {{serial}},
		month_start BIGINT NOT NULL,
		name TEXT NOT NULL,
		base_amount DOUBLE PRECISION,
		amount DOUBLE PRECISION,
		rate DOUBLE PRECISION,
		UNIQUE (month_start, name)
	)`,

	`CREATE TABLE IF NOT EXISTS preferences (
		pref_key TEXT PRIMARY KEY,
		pref_value TEXT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
}

// CreateBaseSchema creates all the base tables needed for the application.
func CreateBaseSchema(ctx context.Context, db *database.DB) error {
	for _, ddl := range baseSchema {
		if _, err := db.ExecContext(ctx, db.Dialect.Expand(ddl)); err != nil {
			return fmt.Errorf("error creating base schema: %w", err)
		}
	}
	return nil
}
