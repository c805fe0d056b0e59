package accounts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgoncalves/expense-sync-backend/internal/domain/transaction"
)

type stubManager struct {
	closeErr    error
	closedCount int
}

func (m *stubManager) Transactions(context.Context, time.Time, time.Time, bool) ([]*transaction.Transaction, error) {
	return nil, nil
}
func (m *stubManager) Balance(context.Context) (*transaction.Balance, error) { return nil, nil }
func (m *stubManager) SetAccountNames([]string)                              {}
func (m *stubManager) Close() error {
	m.closedCount++
	return m.closeErr
}

func TestRegistry_RegisterAndOrder(t *testing.T) {
	registry := NewRegistry(nil)

	require.NoError(t, registry.Register("checking", &stubManager{}))
	require.NoError(t, registry.Register("savings", &stubManager{}))

	assert.Equal(t, []string{"checking", "savings"}, registry.Names())
	assert.Equal(t, 2, registry.Len())

	manager, err := registry.Get("checking")
	require.NoError(t, err)
	assert.NotNil(t, manager)

	_, err = registry.Get("missing")
	assert.Error(t, err)
}

func TestRegistry_DuplicateName(t *testing.T) {
	registry := NewRegistry(nil)
	require.NoError(t, registry.Register("checking", &stubManager{}))
	assert.Error(t, registry.Register("checking", &stubManager{}))
}

func TestRegistry_CloseAllContinuesPastFailures(t *testing.T) {
	registry := NewRegistry(nil)
	failing := &stubManager{closeErr: errors.New("session already gone")}
	healthy := &stubManager{}

	require.NoError(t, registry.Register("broken", failing))
	require.NoError(t, registry.Register("fine", healthy))

	err := registry.CloseAll()
	assert.Error(t, err)
	assert.Equal(t, 1, failing.closedCount)
	assert.Equal(t, 1, healthy.closedCount, "a failed close must not stop the rest")
}

func TestAccountNotFoundError_Message(t *testing.T) {
	err := &AccountNotFoundError{AccountID: "card-9"}
	assert.Equal(t, `account "card-9" not found`, err.Error())
}
