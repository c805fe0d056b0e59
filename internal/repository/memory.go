package repository

import (
	"fmt"
	"time"
)

// MemoryLedger is an in-memory Repository for tests and dry runs. It applies
// the same exact-row dedup policy as the SQLite ledger.
type MemoryLedger struct {
	dateLayout string
	rows       [][]string
	balances   [][]string

	// FailBatchInsert, when set, is returned by the next BatchInsert call.
	// Lets tests exercise partial push failures.
	FailBatchInsert error
}

var _ Repository = (*MemoryLedger)(nil)

// NewMemoryLedger creates an empty ledger. Empty dateLayout selects
// "2006/01/02".
func NewMemoryLedger(dateLayout string) *MemoryLedger {
	if dateLayout == "" {
		dateLayout = "2006/01/02"
	}
	return &MemoryLedger{dateLayout: dateLayout}
}

// Seed appends rows without dedup, for building test fixtures.
func (l *MemoryLedger) Seed(rows ...[]string) {
	l.rows = append(l.rows, rows...)
}

// LastTransactionDateForAccount scans for the maximum auth date recorded for
// the account.
func (l *MemoryLedger) LastTransactionDateForAccount(account string) (time.Time, bool, error) {
	var best time.Time
	found := false
	for _, row := range l.rows {
		if len(row) != RowWidth || row[3] != account {
			continue
		}
		date, err := time.Parse(l.dateLayout, row[1])
		if err != nil {
			return time.Time{}, false, fmt.Errorf("parsing stored auth date %q: %w", row[1], err)
		}
		if !found || date.After(best) {
			best = date
			found = true
		}
	}
	return best, found, nil
}

// BatchInsert appends rows, skipping exact duplicates.
func (l *MemoryLedger) BatchInsert(rows [][]string) error {
	if l.FailBatchInsert != nil {
		err := l.FailBatchInsert
		l.FailBatchInsert = nil
		return err
	}
	for _, row := range rows {
		if len(row) != RowWidth {
			return fmt.Errorf("transaction row has %d fields, want %d", len(row), RowWidth)
		}
		if l.contains(row) {
			continue
		}
		l.rows = append(l.rows, append([]string(nil), row...))
	}
	return nil
}

func (l *MemoryLedger) contains(candidate []string) bool {
	for _, row := range l.rows {
		if equalRows(row, candidate) {
			return true
		}
	}
	return false
}

func equalRows(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// AppendBalances appends the balance rows.
func (l *MemoryLedger) AppendBalances(rows [][]string) error {
	for _, row := range rows {
		if len(row) != BalanceRowWidth {
			return fmt.Errorf("balance row has %d fields, want %d", len(row), BalanceRowWidth)
		}
		l.balances = append(l.balances, append([]string(nil), row...))
	}
	return nil
}

// Transactions returns the stored rows.
func (l *MemoryLedger) Transactions() ([][]string, error) {
	result := make([][]string, len(l.rows))
	copy(result, l.rows)
	return result, nil
}

// Balances returns the stored balance rows.
func (l *MemoryLedger) Balances() [][]string {
	result := make([][]string, len(l.balances))
	copy(result, l.balances)
	return result
}

// Close is a no-op.
func (l *MemoryLedger) Close() error { return nil }
