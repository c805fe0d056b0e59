package nordigen

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgoncalves/expense-sync-backend/internal/accounts"
	"github.com/mgoncalves/expense-sync-backend/internal/domain/tagger"
)

type fakeClient struct {
	transactions    []Transaction
	balances        []BalanceEntry
	transactionsErr error
	balancesErr     error
}

func (c *fakeClient) Transactions(context.Context, time.Time, time.Time) ([]Transaction, error) {
	return c.transactions, c.transactionsErr
}

func (c *fakeClient) Balances(context.Context) ([]BalanceEntry, error) {
	return c.balances, c.balancesErr
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewManager_NilClient(t *testing.T) {
	_, err := NewManager(nil, "acc-1", nil, false)

	var notFound *accounts.AccountNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "acc-1", notFound.AccountID)
}

func TestTransactions_MapsDatesAndAmount(t *testing.T) {
	client := &fakeClient{transactions: []Transaction{
		{
			BookingDate: day(2024, 3, 1),
			ValueDate:   day(2024, 3, 2),
			Remittance:  "SUPERMARKET LISBOA",
			Amount:      decimal.NewFromFloat(-15.70),
		},
	}}
	manager, err := NewManager(client, "acc-1", nil, false)
	require.NoError(t, err)

	txs, err := manager.Transactions(context.Background(), day(2024, 3, 1), day(2024, 3, 31), false)
	require.NoError(t, err)
	require.Len(t, txs, 1)

	tx := txs[0]
	assert.Equal(t, day(2024, 3, 1), tx.AuthDate(), "booking date fills the auth slot")
	assert.Equal(t, day(2024, 3, 2), tx.CaptureDate(), "value date fills the capture slot")
	assert.True(t, tx.IsDebt())
	description, err := tx.Description(false)
	require.NoError(t, err)
	assert.Equal(t, "SUPERMARKET LISBOA", description)
}

func TestTransactions_AppliesTaggers(t *testing.T) {
	client := &fakeClient{transactions: []Transaction{
		{BookingDate: day(2024, 3, 1), ValueDate: day(2024, 3, 1), Remittance: "GAS STATION 123", Amount: decimal.NewFromFloat(-40)},
	}}

	builder := tagger.NewRegexBuilder()
	require.NoError(t, builder.Add("Fuel", `GAS STATION`))
	manager, err := NewManager(client, "acc-1", []tagger.Tagger{builder.Build()}, false)
	require.NoError(t, err)

	txs, err := manager.Transactions(context.Background(), day(2024, 3, 1), day(2024, 3, 31), true)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "Fuel", txs[0].Category())

	// Without applyTaggers the same pull stays untagged.
	txs, err = manager.Transactions(context.Background(), day(2024, 3, 1), day(2024, 3, 31), false)
	require.NoError(t, err)
	assert.Empty(t, txs[0].Category())
}

func TestTransactions_SourceUnavailablePropagates(t *testing.T) {
	client := &fakeClient{transactionsErr: accounts.ErrSourceUnavailable}
	manager, err := NewManager(client, "acc-1", nil, false)
	require.NoError(t, err)

	_, err = manager.Transactions(context.Background(), day(2024, 3, 1), day(2024, 3, 31), false)
	assert.ErrorIs(t, err, accounts.ErrSourceUnavailable)
}

func TestBalance_CombinesClosingBookedAndInterimAvailable(t *testing.T) {
	client := &fakeClient{balances: []BalanceEntry{
		{Type: "closingBooked", Amount: decimal.NewFromFloat(90), ReferenceDate: day(2024, 3, 4)},
		{Type: "interimAvailable", Amount: decimal.NewFromFloat(100.50), ReferenceDate: day(2024, 3, 5)},
	}}
	manager, err := NewManager(client, "acc-1", nil, false)
	require.NoError(t, err)

	balance, err := manager.Balance(context.Background())
	require.NoError(t, err)
	require.NotNil(t, balance)
	assert.Equal(t, day(2024, 3, 4), balance.Date, "date comes from closingBooked")
	assert.True(t, balance.Amount.Equal(decimal.NewFromFloat(100.50)), "amount comes from interimAvailable")
	assert.False(t, balance.UpdatedAt.IsZero())
}

func TestBalance_MissingEntryYieldsNil(t *testing.T) {
	client := &fakeClient{balances: []BalanceEntry{
		{Type: "closingBooked", Amount: decimal.NewFromFloat(90), ReferenceDate: day(2024, 3, 4)},
	}}
	manager, err := NewManager(client, "acc-1", nil, false)
	require.NoError(t, err)

	balance, err := manager.Balance(context.Background())
	require.NoError(t, err)
	assert.Nil(t, balance, "absent balance-type keys mean no balance, not an error")
}

func TestBalance_ClientError(t *testing.T) {
	client := &fakeClient{balancesErr: errors.New("timeout")}
	manager, err := NewManager(client, "acc-1", nil, false)
	require.NoError(t, err)

	_, err = manager.Balance(context.Background())
	assert.Error(t, err)
}

func TestClose_Idempotent(t *testing.T) {
	manager, err := NewManager(&fakeClient{}, "acc-1", nil, false)
	require.NoError(t, err)

	assert.NoError(t, manager.Close())
	assert.NoError(t, manager.Close())
}
