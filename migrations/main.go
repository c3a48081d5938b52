package migrations

import (
	"context"
	"fmt"

	"budgetplanner/backend/database"

	"github.com/rs/zerolog"
)

// Migration is one named, run-once schema step.
type Migration struct {
	Name string
	Fn   func(ctx context.Context, db *database.DB) error
}

// All lists the migrations in the order they are applied.
var All = []Migration{
	{"base_schema", CreateBaseSchema},
	{"add_transaction_dedupe_index", AddTransactionDedupeIndex},
	{"add_link_indexes", AddLinkIndexes},
	{"add_surplus_deposited", AddSurplusDepositedColumn},
}

// RunMigrations applies every migration not yet recorded in the migrations table.
func RunMigrations(ctx context.Context, db *database.DB, log zerolog.Logger) error {
	log.Info().Str("dialect", string(db.Dialect)).Msg("running migrations")

	_, err := db.ExecContext(ctx, db.Dialect.Expand(`
		CREATE TABLE IF NOT EXISTS migrations (
			id {{serial}},
			name TEXT NOT NULL UNIQUE,
			applied_at TIMESTAMP DEFAULT {{now}}
		)
	`))
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, m := range All {
		var count int
		err := db.QueryRowContext(ctx, db.Dialect.Rebind("SELECT COUNT(*) FROM migrations WHERE name = ?"), m.Name).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if count > 0 {
			log.Debug().Str("migration", m.Name).Msg("skipping already applied migration")
			continue
		}

		log.Info().Str("migration", m.Name).Msg("applying migration")
		if err := m.Fn(ctx, db); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", m.Name, err)
		}
		if _, err := db.ExecContext(ctx, db.Dialect.Rebind("INSERT INTO migrations (name) VALUES (?)"), m.Name); err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
	}

	log.Info().Msg("all migrations completed successfully")
	return nil
}

// Reset drops every table so the next RunMigrations starts from scratch.
// Used by the -reset-db flag during development.
func Reset(ctx context.Context, db *database.DB) error {
	tables := []string{
		"reimbursement_links",
		"transactions",
		"savings",
		"merchant_rules",
		"recurring_expenses",
		"preferences",
		"migrations",
	}
	for _, t := range tables {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+t); err != nil {
			return fmt.Errorf("failed to drop %s: %w", t, err)
		}
	}
	return nil
}
