package services

import (
	"errors"

	"budgetplanner/backend/store"
)

var (
	// ErrInvalidArgument reports a missing transaction, a transaction of the
	// wrong role or malformed input. No side effects happen before it is returned.
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = store.ErrNotFound
	// ErrNoRate means every rate source failed and nothing usable is cached.
	ErrNoRate = errors.New("no exchange rate available")
	// ErrUnavailable means an optional integration is not configured.
	ErrUnavailable = errors.New("feature not configured")
)
