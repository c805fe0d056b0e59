package fetcher

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mgoncalves/expense-sync-backend/internal/domain/transaction"
)

// Labels are the configured type labels substituted when a transaction
// carries no explicit tagger-assigned type.
type Labels struct {
	Debt       string
	Income     string
	Transfer   string
	Investment string
}

// DefaultLabels returns the stock English labels.
func DefaultLabels() Labels {
	return Labels{
		Debt:       "Debt",
		Income:     "Income",
		Transfer:   "Transfer",
		Investment: "Investment",
	}
}

// Staged is one transaction accumulated in memory, not yet written to any
// sink. Dates stay canonical so sorting never depends on a string format.
type Staged struct {
	CaptureDate time.Time
	AuthDate    time.Time
	Description string
	Account     string
	Type        string
	Category    string
	Absolute    decimal.Decimal
	Signed      decimal.Decimal
}

// newStaged flattens a canonical transaction into a staged row.
//
// The type label is the transaction's explicit type when present; otherwise
// the first true predicate in the order debt > transfer > investment > income
// picks the configured label.
func newStaged(tx *transaction.Transaction, account string, labels Labels) Staged {
	description, _ := tx.Description(false)

	typeLabel := tx.Type()
	if typeLabel == "" {
		switch {
		case tx.IsDebt():
			typeLabel = labels.Debt
		case tx.IsTransfer():
			typeLabel = labels.Transfer
		case tx.IsInvestment():
			typeLabel = labels.Investment
		default:
			typeLabel = labels.Income
		}
	}

	return Staged{
		CaptureDate: tx.CaptureDate(),
		AuthDate:    tx.AuthDate(),
		Description: description,
		Account:     account,
		Type:        typeLabel,
		Category:    tx.Category(),
		Absolute:    tx.AbsValue(),
		Signed:      tx.Value(),
	}
}

// Row flattens the staged transaction into the 8-field sink row. An empty
// layout selects the default date layout.
func (s Staged) Row(layout string) []string {
	if layout == "" {
		layout = transaction.DefaultDateLayout
	}
	return []string{
		s.CaptureDate.Format(layout),
		s.AuthDate.Format(layout),
		s.Description,
		s.Account,
		s.Type,
		s.Category,
		s.Absolute.String(),
		s.Signed.String(),
	}
}
