package service

import (
	"context"
	"errors"

	"github.com/noah-isme/sma-testslot-api/internal/repository"
	appErrors "github.com/noah-isme/sma-testslot-api/pkg/errors"
)

// ConflictGuard answers whether a subject already has a test on a date.
type ConflictGuard struct {
	store repository.GraphStore
}

// NewConflictGuard constructs a ConflictGuard.
func NewConflictGuard(store repository.GraphStore) *ConflictGuard {
	return &ConflictGuard{store: store}
}

// HasConflict checks for a Test matching subject and date exactly, inside the
// caller's unit of work. It never writes.
func (g *ConflictGuard) HasConflict(ctx context.Context, tx repository.GraphTx, subject, date string) (bool, error) {
	exists, err := tx.TestExists(ctx, subject, date)
	if err != nil {
		return false, appErrors.StoreUnavailable(err, "failed to check scheduled tests")
	}
	return exists, nil
}

// Check runs HasConflict in its own read transaction.
func (g *ConflictGuard) Check(ctx context.Context, subject, date string) (bool, error) {
	var conflict bool
	err := g.store.Read(ctx, func(tx repository.GraphTx) error {
		var err error
		conflict, err = g.HasConflict(ctx, tx, subject, date)
		return err
	})
	if err != nil {
		return false, storeError(err, "failed to check scheduled tests")
	}
	return conflict, nil
}

// storeError passes typed errors through and wraps anything else from the
// store boundary as StoreUnavailable.
func storeError(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return appErrors.StoreUnavailable(err, "timetable store request timed out")
	}
	return appErrors.StoreUnavailable(err, message)
}
