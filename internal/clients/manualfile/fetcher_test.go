package manualfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mgoncalves/expense-sync-backend/internal/accounts"
	"github.com/mgoncalves/expense-sync-backend/internal/domain/transaction"
)

func writeExport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func col(i int) *int { return &i }

func TestNewFetcher_RequiresPath(t *testing.T) {
	_, err := NewFetcher(Config{})
	assert.Error(t, err)
}

func TestRows_DefaultLayout(t *testing.T) {
	path := writeExport(t, "2024-01-05,2024-01-06,GROCERIES,-22.10\n")
	fetcher, err := NewFetcher(Config{
		Path:    path,
		Columns: Columns{AuthDate: 0, CaptureDate: 1, Description: 2, Amount: 3},
	})
	require.NoError(t, err)

	rows, err := fetcher.Rows(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, day(2024, 1, 5), rows[0].AuthDate)
	assert.Equal(t, day(2024, 1, 6), rows[0].CaptureDate)
	assert.Equal(t, "GROCERIES", rows[0].Description)
	assert.True(t, rows[0].Amount.Equal(decimal.NewFromFloat(-22.10)))
	assert.Nil(t, rows[0].Balance)
}

func TestRows_PortugueseBankExport(t *testing.T) {
	// Semicolon delimiter, comma decimals, dot thousands, header and footer
	// noise, trailing balance column.
	content := "Data;Data valor;Descricao;Montante;Saldo\n" +
		"05-01-2024;06-01-2024;SUPERMERCADO;-1.234,56;2.000,00\n" +
		"07-01-2024;07-01-2024;ORDENADO;1.500,00;3.500,00\n" +
		"Saldo final;;;;3.500,00\n"
	path := writeExport(t, content)

	fetcher, err := NewFetcher(Config{
		Path:               path,
		SkipHeaderRows:     1,
		SkipFooterRows:     1,
		DateLayout:         "02-01-2006",
		Delimiter:          ";",
		DecimalSeparator:   ",",
		ThousandsSeparator: ".",
		Columns:            Columns{AuthDate: 0, CaptureDate: 1, Description: 2, Amount: 3, Balance: col(4)},
	})
	require.NoError(t, err)

	rows, err := fetcher.Rows(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].Amount.Equal(decimal.NewFromFloat(-1234.56)))
	require.NotNil(t, rows[0].Balance)
	assert.True(t, rows[0].Balance.Equal(decimal.NewFromFloat(2000)))
	assert.True(t, rows[1].Amount.Equal(decimal.NewFromFloat(1500)))
}

func TestRows_WindowFiltersOnAuthDate(t *testing.T) {
	content := "2024-01-05,2024-01-05,A,-1\n" +
		"2024-01-10,2024-01-10,B,-1\n" +
		"2024-01-20,2024-01-20,C,-1\n"
	path := writeExport(t, content)

	fetcher, err := NewFetcher(Config{
		Path:    path,
		Columns: Columns{AuthDate: 0, CaptureDate: 1, Description: 2, Amount: 3},
	})
	require.NoError(t, err)

	rows, err := fetcher.Rows(context.Background(), day(2024, 1, 8), day(2024, 1, 15))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "B", rows[0].Description)
}

func TestRows_MissingFile(t *testing.T) {
	fetcher, err := NewFetcher(Config{
		Path:    filepath.Join(t.TempDir(), "nope.csv"),
		Columns: Columns{AuthDate: 0, CaptureDate: 1, Description: 2, Amount: 3},
	})
	require.NoError(t, err)

	_, err = fetcher.Rows(context.Background(), time.Time{}, time.Time{})
	assert.ErrorIs(t, err, accounts.ErrSourceUnavailable)
}

func TestRows_BadAmount(t *testing.T) {
	path := writeExport(t, "2024-01-05,2024-01-05,A,not-a-number\n")
	fetcher, err := NewFetcher(Config{
		Path:    path,
		Columns: Columns{AuthDate: 0, CaptureDate: 1, Description: 2, Amount: 3},
	})
	require.NoError(t, err)

	_, err = fetcher.Rows(context.Background(), time.Time{}, time.Time{})
	assert.True(t, errors.Is(err, transaction.ErrValueNotNumeric))
}

func TestRows_BalanceKeyOmittedInYAML(t *testing.T) {
	path := writeExport(t, "2024-01-05,2024-01-06,GROCERIES,-22.10\n")
	raw := "path: " + path + "\n" +
		"columns:\n" +
		"  auth_date: 0\n" +
		"  capture_date: 1\n" +
		"  description: 2\n" +
		"  amount: 3\n"

	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte(raw), &cfg))
	require.Nil(t, cfg.Columns.Balance, "an absent balance key must not decode to column 0")

	fetcher, err := NewFetcher(cfg)
	require.NoError(t, err)

	rows, err := fetcher.Rows(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Balance)
	assert.Equal(t, day(2024, 1, 5), rows[0].AuthDate)
}

func TestRows_EmptyBalanceCell(t *testing.T) {
	path := writeExport(t, "2024-01-05,2024-01-05,A,-1,\n")
	fetcher, err := NewFetcher(Config{
		Path:    path,
		Columns: Columns{AuthDate: 0, CaptureDate: 1, Description: 2, Amount: 3, Balance: col(4)},
	})
	require.NoError(t, err)

	rows, err := fetcher.Rows(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Balance)
}
