// Package manual adapts a manually-provided spreadsheet export into the
// accounts.Manager contract. The file mechanics live behind the Fetcher
// interface; internal/clients/manualfile provides the delimited-file
// implementation.
package manual

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mgoncalves/expense-sync-backend/internal/accounts"
	"github.com/mgoncalves/expense-sync-backend/internal/domain/tagger"
	"github.com/mgoncalves/expense-sync-backend/internal/domain/transaction"
)

// Row is one parsed file row. Balance is nil for rows without a balance
// column value.
type Row struct {
	AuthDate    time.Time
	CaptureDate time.Time
	Description string
	Amount      decimal.Decimal
	Balance     *decimal.Decimal
}

// Fetcher reads rows from the backing file. Zero start/end times mean an
// unbounded window (full read).
type Fetcher interface {
	Rows(ctx context.Context, start, end time.Time) ([]Row, error)
}

// Manager wraps one manual spreadsheet account. Unlike the other variants
// the balance is derived from the transaction rows themselves: the row with
// the most recent date among those carrying a balance value.
type Manager struct {
	fetcher      Fetcher
	accountName  string
	taggers      []tagger.Tagger
	stripPrefix  bool
	accountNames []string

	// Cached from the most recent Transactions call so Balance does not have
	// to re-read the file.
	lastBalance *transaction.Balance
}

var _ accounts.Manager = (*Manager)(nil)

// NewManager builds the manager. A nil fetcher means the configured file
// source could not be resolved.
func NewManager(fetcher Fetcher, accountName string, taggers []tagger.Tagger, stripPrefix bool) (*Manager, error) {
	if fetcher == nil {
		return nil, &accounts.AccountNotFoundError{AccountID: accountName}
	}
	return &Manager{
		fetcher:     fetcher,
		accountName: accountName,
		taggers:     taggers,
		stripPrefix: stripPrefix,
	}, nil
}

// Transactions reads file rows in [start, end] and refreshes the cached
// balance from the rows seen in this window.
func (m *Manager) Transactions(ctx context.Context, start, end time.Time, applyTaggers bool) ([]*transaction.Transaction, error) {
	rows, err := m.fetcher.Rows(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", m.accountName, err)
	}

	m.lastBalance = latestBalance(rows)

	txs := make([]*transaction.Transaction, 0, len(rows))
	for _, row := range rows {
		tx := transaction.New(row.AuthDate, row.CaptureDate, row.Amount, row.Description)
		if applyTaggers {
			if err := tagger.Apply(tx, m.taggers, m.accountNames, m.stripPrefix); err != nil {
				return nil, err
			}
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// Balance returns the balance cached by the most recent Transactions call,
// falling back to a fresh full read of the file (ignoring any date window)
// when nothing is cached. Nil when no row carries a balance.
func (m *Manager) Balance(ctx context.Context) (*transaction.Balance, error) {
	if m.lastBalance != nil {
		return m.lastBalance, nil
	}

	rows, err := m.fetcher.Rows(ctx, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", m.accountName, err)
	}
	return latestBalance(rows), nil
}

// latestBalance picks the balance of the row with the maximum date among rows
// carrying one. The auth date is preferred, the capture date is the fallback.
func latestBalance(rows []Row) *transaction.Balance {
	var best *transaction.Balance
	for _, row := range rows {
		if row.Balance == nil {
			continue
		}
		date := row.AuthDate
		if date.IsZero() {
			date = row.CaptureDate
		}
		if date.IsZero() {
			continue
		}
		if best == nil || date.After(best.Date) {
			best = &transaction.Balance{
				Date:      date,
				UpdatedAt: time.Now(),
				Amount:    *row.Balance,
			}
		}
	}
	return best
}

// SetAccountNames records the sibling account names for transfer detection.
func (m *Manager) SetAccountNames(names []string) { m.accountNames = names }

// Close is a no-op: the fetcher opens and closes the file per read.
func (m *Manager) Close() error { return nil }
