package migrations

import (
	"context"
	"fmt"

	"budgetplanner/backend/database"
)

// AddSurplusDepositedColumn records how much of a benefactor credit has
// already been moved to the surplus pot.
func AddSurplusDepositedColumn(ctx context.Context, db *database.DB) error {
	_, err := db.ExecContext(ctx, `
		ALTER TABLE transactions ADD COLUMN surplus_deposited DOUBLE PRECISION NOT NULL DEFAULT 0
	`)
	if err != nil {
		return fmt.Errorf("failed to add surplus_deposited column: %w", err)
	}
	return nil
}
