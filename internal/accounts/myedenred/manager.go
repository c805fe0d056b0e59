// Package myedenred adapts a MyEdenred prepaid-card portal account into the
// accounts.Manager contract.
package myedenred

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mgoncalves/expense-sync-backend/internal/accounts"
	"github.com/mgoncalves/expense-sync-backend/internal/domain/tagger"
	"github.com/mgoncalves/expense-sync-backend/internal/domain/transaction"
)

// Transaction is one card movement. The portal exposes a single date, used
// for both the auth and capture slots.
type Transaction struct {
	Date   time.Time
	Name   string
	Amount decimal.Decimal
}

// Card fetches movements for one resolved card.
type Card interface {
	Transactions(ctx context.Context, start, end time.Time) ([]Transaction, error)
}

// Session is an authenticated portal session able to resolve cards by id.
// A nil card with a nil error means the card is not on this session.
type Session interface {
	Card(id int) (Card, error)
}

// Manager wraps one prepaid card.
type Manager struct {
	card         Card
	cardID       int
	taggers      []tagger.Tagger
	stripPrefix  bool
	accountNames []string
}

var _ accounts.Manager = (*Manager)(nil)

// NewManager resolves the card on the session. An unresolved card fails with
// AccountNotFoundError.
func NewManager(session Session, cardID int, taggers []tagger.Tagger, stripPrefix bool) (*Manager, error) {
	card, err := session.Card(cardID)
	if err != nil {
		return nil, fmt.Errorf("resolving card %d: %w", cardID, err)
	}
	if card == nil {
		return nil, &accounts.AccountNotFoundError{AccountID: strconv.Itoa(cardID)}
	}
	return &Manager{
		card:        card,
		cardID:      cardID,
		taggers:     taggers,
		stripPrefix: stripPrefix,
	}, nil
}

// Transactions fetches card movements in [start, end].
func (m *Manager) Transactions(ctx context.Context, start, end time.Time, applyTaggers bool) ([]*transaction.Transaction, error) {
	raw, err := m.card.Transactions(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("card %d: %w", m.cardID, err)
	}

	txs := make([]*transaction.Transaction, 0, len(raw))
	for _, record := range raw {
		tx := transaction.New(record.Date, record.Date, record.Amount, record.Name)
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

// Close is a no-op: the portal session is owned by whoever opened it.
func (m *Manager) Close() error { return nil }
