// Package accounts defines the account manager contract and the registry the
// orchestrator pulls from.
//
// A manager wraps one raw source fetcher, converts its records into canonical
// transactions, and optionally runs the tagger chain over them. Variant
// implementations live in the subpackages (nordigen, myedenred, activebank,
// manual).
package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mgoncalves/expense-sync-backend/internal/domain/transaction"
)

// ErrSourceUnavailable marks a source that cannot authenticate or retrieve
// data. Fetch clients wrap it so callers can test with errors.Is; the
// orchestrator never swallows it.
var ErrSourceUnavailable = errors.New("source unavailable")

// AccountNotFoundError is returned at construction when the underlying
// fetcher cannot locate the requested account or card among the session's
// available ones.
type AccountNotFoundError struct {
	AccountID string
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("account %q not found", e.AccountID)
}

// Manager is the uniform contract over all account source variants.
type Manager interface {
	// Transactions fetches the account's movements inside [start, end] in
	// canonical form. With applyTaggers the tagger chain runs over every
	// produced transaction before returning.
	Transactions(ctx context.Context, start, end time.Time, applyTaggers bool) ([]*transaction.Transaction, error)

	// Balance returns the most recent known balance, or nil when the variant
	// does not support balances or none is available.
	Balance(ctx context.Context) (*transaction.Balance, error)

	// SetAccountNames informs the manager of the full set of sibling account
	// names in the current run, for transfer detection.
	SetAccountNames(names []string)

	// Close releases any held session or resource. Idempotent; safe to call
	// on a never-opened or already-closed manager.
	Close() error
}
