package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"budgetplanner/backend/database"
)

// SQLStore keeps preferences in the preferences table.
type SQLStore struct {
	db *database.DB
}

func NewSQLStore(db *database.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, s.db.Dialect.Rebind("SELECT pref_value FROM preferences WHERE pref_key = ?"), key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get preference %q: %w", key, err)
	}
	return v, true, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, s.db.Dialect.Rebind(`
		INSERT INTO preferences (pref_key, pref_value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (pref_key) DO UPDATE SET pref_value = excluded.pref_value, updated_at = excluded.updated_at`),
		key, value, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("set preference %q: %w", key, err)
	}
	return nil
}
