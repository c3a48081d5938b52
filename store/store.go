// Package store persists the ledger tables. Every method runs on the
// Store's Querier, so a Store obtained from InTx works inside one database
// transaction and publishes its change events only after commit.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"budgetplanner/backend/database"
	"budgetplanner/backend/events"
	"budgetplanner/backend/models"
	"budgetplanner/backend/security"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate transaction")
)

type Store struct {
	db      *database.DB
	q       database.Querier
	cipher  *security.Cipher
	broker  *events.Broker
	pending *[]models.Event
}

// New returns a store on db. cipher and broker may be nil.
func New(db *database.DB, cipher *security.Cipher, broker *events.Broker) *Store {
	return &Store{db: db, q: db.DB, cipher: cipher, broker: broker}
}

// Dialect reports the SQL dialect of the underlying handle.
func (s *Store) Dialect() database.Dialect {
	return s.db.Dialect
}

// InTx runs fn with a store bound to a new transaction. fn's error rolls
// the transaction back. Nested calls reuse the outer transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.pending != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	var buffered []models.Event
	txStore := &Store{db: s.db, q: tx, cipher: s.cipher, broker: s.broker, pending: &buffered}

	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	for _, e := range buffered {
		s.broker.Publish(e)
	}
	return nil
}

func (s *Store) publish(entity models.Entity, action models.Action, id int64) {
	e := models.Event{Entity: entity, Action: action, ID: id, At: time.Now()}
	if s.pending != nil {
		*s.pending = append(*s.pending, e)
		return
	}
	s.broker.Publish(e)
}

func (s *Store) rebind(q string) string {
	return s.db.Dialect.Rebind(q)
}

func (s *Store) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return s.q.ExecContext(ctx, s.rebind(q), args...)
}

func (s *Store) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return s.q.QueryContext(ctx, s.rebind(q), args...)
}

func (s *Store) queryRow(ctx context.Context, q string, args ...any) *sql.Row {
	return s.q.QueryRowContext(ctx, s.rebind(q), args...)
}

// insertReturningID runs an INSERT ... RETURNING id statement.
func (s *Store) insertReturningID(ctx context.Context, q string, args ...any) (int64, error) {
	var id int64
	if err := s.queryRow(ctx, q+" RETURNING id", args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
