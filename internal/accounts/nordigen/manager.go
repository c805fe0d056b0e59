// Package nordigen adapts an open-banking (Nordigen) account into the
// accounts.Manager contract.
package nordigen

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mgoncalves/expense-sync-backend/internal/accounts"
	"github.com/mgoncalves/expense-sync-backend/internal/domain/tagger"
	"github.com/mgoncalves/expense-sync-backend/internal/domain/transaction"
)

// Balance type keys reported by the open-banking API. The booking date comes
// from the closingBooked entry, the amount from interimAvailable.
const (
	balanceClosingBooked    = "closingBooked"
	balanceInterimAvailable = "interimAvailable"
)

// Transaction is one booked movement as returned by the API.
type Transaction struct {
	BookingDate time.Time
	ValueDate   time.Time
	Remittance  string
	Amount      decimal.Decimal
}

// BalanceEntry is one entry of the balances endpoint.
type BalanceEntry struct {
	Type          string
	Amount        decimal.Decimal
	ReferenceDate time.Time
}

// Client is the raw open-banking fetcher the manager delegates to.
type Client interface {
	Transactions(ctx context.Context, start, end time.Time) ([]Transaction, error)
	Balances(ctx context.Context) ([]BalanceEntry, error)
}

// Manager wraps one open-banking account.
type Manager struct {
	client       Client
	accountID    string
	taggers      []tagger.Tagger
	stripPrefix  bool
	accountNames []string
}

var _ accounts.Manager = (*Manager)(nil)

// NewManager builds the manager for accountID. A nil client means the account
// could not be resolved by the session that was supposed to provide it.
func NewManager(client Client, accountID string, taggers []tagger.Tagger, stripPrefix bool) (*Manager, error) {
	if client == nil {
		return nil, &accounts.AccountNotFoundError{AccountID: accountID}
	}
	return &Manager{
		client:      client,
		accountID:   accountID,
		taggers:     taggers,
		stripPrefix: stripPrefix,
	}, nil
}

// Transactions fetches booked movements in [start, end]. The booking date
// maps to the auth slot and the value date to the capture slot.
func (m *Manager) Transactions(ctx context.Context, start, end time.Time, applyTaggers bool) ([]*transaction.Transaction, error) {
	raw, err := m.client.Transactions(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", m.accountID, err)
	}

	txs := make([]*transaction.Transaction, 0, len(raw))
	for _, record := range raw {
		tx := transaction.New(record.BookingDate, record.ValueDate, record.Amount, record.Remittance)
		if applyTaggers {
			if err := tagger.Apply(tx, m.taggers, m.accountNames, m.stripPrefix); err != nil {
				return nil, err
			}
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// Balance reads the balances endpoint and combines the closingBooked date
// with the interimAvailable amount. When either entry is absent the balance
// is simply unknown, not an error.
func (m *Manager) Balance(ctx context.Context) (*transaction.Balance, error) {
	entries, err := m.client.Balances(ctx)
	if err != nil {
		return nil, fmt.Errorf("account %s balances: %w", m.accountID, err)
	}

	var closing, available *BalanceEntry
	for i := range entries {
		switch entries[i].Type {
		case balanceClosingBooked:
			closing = &entries[i]
		case balanceInterimAvailable:
			available = &entries[i]
		}
	}
	if closing == nil || available == nil {
		return nil, nil
	}

	return &transaction.Balance{
		Date:      closing.ReferenceDate,
		UpdatedAt: time.Now(),
		Amount:    available.Amount,
	}, nil
}

// SetAccountNames records the sibling account names for transfer detection.
func (m *Manager) SetAccountNames(names []string) { m.accountNames = names }

// Close is a no-op: the HTTP client holds no session state.
func (m *Manager) Close() error { return nil }
