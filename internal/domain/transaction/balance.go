package transaction

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is a point-in-time account balance observation.
type Balance struct {
	// Date is the date of the last observed closing/available balance.
	Date time.Time
	// UpdatedAt records when this read was performed, for audit.
	UpdatedAt time.Time
	// Amount is the observed balance.
	Amount decimal.Decimal
	// Account is the account name. Managers leave it empty; the orchestrator
	// fills it in when staging.
	Account string
}

// Row flattens the balance into the 4-field sink row. An empty layout selects
// DefaultDateLayout.
func (b Balance) Row(layout string) []string {
	if layout == "" {
		layout = DefaultDateLayout
	}
	return []string{
		b.Date.Format(layout),
		b.UpdatedAt.Format(time.RFC3339),
		b.Account,
		b.Amount.String(),
	}
}
