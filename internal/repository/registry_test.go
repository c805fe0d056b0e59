package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_PivotIsFirstRegistered(t *testing.T) {
	registry := NewRegistry(nil)

	_, ok := registry.Pivot()
	assert.False(t, ok, "empty registry has no pivot")

	first := NewMemoryLedger("")
	second := NewMemoryLedger("")
	require.NoError(t, registry.Register("primary", first))
	require.NoError(t, registry.Register("backup", second))

	pivot, ok := registry.Pivot()
	require.True(t, ok)
	assert.Same(t, Repository(first), pivot)
	assert.Equal(t, []string{"primary", "backup"}, registry.Names())
}

func TestRegistry_DuplicateName(t *testing.T) {
	registry := NewRegistry(nil)
	require.NoError(t, registry.Register("primary", NewMemoryLedger("")))
	assert.Error(t, registry.Register("primary", NewMemoryLedger("")))
}

func TestMemoryLedger_LastDateScansAccount(t *testing.T) {
	ledger := NewMemoryLedger("")
	ledger.Seed(
		[]string{"2024/01/05", "2024/01/05", "A", "checking", "Debt", "", "1", "-1"},
		[]string{"2024/01/09", "2024/01/09", "B", "checking", "Debt", "", "1", "-1"},
		[]string{"2024/02/01", "2024/02/01", "C", "savings", "Debt", "", "1", "-1"},
	)

	date, found, err := ledger.LastTransactionDateForAccount("checking")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "2024/01/09", date.Format("2006/01/02"))
}

func TestMemoryLedger_DedupMatchesSQLitePolicy(t *testing.T) {
	ledger := NewMemoryLedger("")
	row := []string{"2024/01/05", "2024/01/05", "A", "checking", "Debt", "", "1", "-1"}

	require.NoError(t, ledger.BatchInsert([][]string{row, row}))
	rows, err := ledger.Transactions()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
