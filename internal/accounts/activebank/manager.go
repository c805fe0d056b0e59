// Package activebank adapts a web-scraped ActiveBank account into the
// accounts.Manager contract. The crawler itself (browser automation, retries
// against the live portal) lives behind the Crawler interface.
package activebank

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mgoncalves/expense-sync-backend/internal/accounts"
	"github.com/mgoncalves/expense-sync-backend/internal/domain/tagger"
	"github.com/mgoncalves/expense-sync-backend/internal/domain/transaction"
)

// Record is one scraped statement line.
type Record struct {
	AuthDate    time.Time
	CaptureDate time.Time
	Description string
	Amount      decimal.Decimal
}

// Fetcher fetches statement lines for one resolved account.
type Fetcher interface {
	Transactions(ctx context.Context, start, end time.Time) ([]Record, error)
}

// Crawler is an authenticated browser session against the bank portal.
// Account returns nil (with a nil error) when the account id is not listed
// for the logged-in user. Close quits the browser.
type Crawler interface {
	Account(id string) (Fetcher, error)
	Close() error
}

// Manager wraps one scraped bank account and owns the crawler session.
type Manager struct {
	crawler      Crawler
	fetcher      Fetcher
	accountID    string
	taggers      []tagger.Tagger
	stripPrefix  bool
	accountNames []string
	closed       bool
}

var _ accounts.Manager = (*Manager)(nil)

// NewManager resolves the account on the crawler session. An unresolved
// account fails with AccountNotFoundError.
func NewManager(crawler Crawler, accountID string, taggers []tagger.Tagger, stripPrefix bool) (*Manager, error) {
	fetcher, err := crawler.Account(accountID)
	if err != nil {
		return nil, fmt.Errorf("resolving account %s: %w", accountID, err)
	}
	if fetcher == nil {
		return nil, &accounts.AccountNotFoundError{AccountID: accountID}
	}
	return &Manager{
		crawler:     crawler,
		fetcher:     fetcher,
		accountID:   accountID,
		taggers:     taggers,
		stripPrefix: stripPrefix,
	}, nil
}

// Transactions fetches statement lines in [start, end].
func (m *Manager) Transactions(ctx context.Context, start, end time.Time, applyTaggers bool) ([]*transaction.Transaction, error) {
	raw, err := m.fetcher.Transactions(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", m.accountID, err)
	}

	txs := make([]*transaction.Transaction, 0, len(raw))
	for _, record := range raw {
		tx := transaction.New(record.AuthDate, record.CaptureDate, record.Amount, record.Description)
		if applyTaggers {
			if err := tagger.Apply(tx, m.taggers, m.accountNames, m.stripPrefix); err != nil {
				return nil, err
			}
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// Balance is unsupported for this variant.
func (m *Manager) Balance(context.Context) (*transaction.Balance, error) { return nil, nil }

// SetAccountNames records the sibling account names for transfer detection.
func (m *Manager) SetAccountNames(names []string) { m.accountNames = names }

// Close quits the browser session. Safe to call more than once.
func (m *Manager) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	return m.crawler.Close()
}
