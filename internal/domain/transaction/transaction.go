// Package transaction holds the canonical transaction model shared by every
// account source.
//
// Each source adapter maps its two native dates onto the auth/capture slots
// and its native amount onto a signed decimal value. The sign fixes the
// income/debt classification at construction time; taggers may later override
// it by marking the transaction as a transfer.
package transaction

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDateLayout is the layout used when a caller does not supply one.
const DefaultDateLayout = "2006/01/02"

// ErrValueNotNumeric is returned when a source amount cannot be parsed as a
// decimal number.
var ErrValueNotNumeric = errors.New("value is not numeric")

// ErrPrefixStripUnsupported is returned when a caller asks for the
// description with its source prefix removed. No source implements the
// transform yet; the guard stays visible so enabling the flag fails loudly
// instead of silently returning the raw description.
var ErrPrefixStripUnsupported = errors.New("description prefix stripping is not supported")

// ParseAmount parses a source amount string into a decimal value.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrValueNotNumeric, s)
	}
	return d, nil
}

// Transaction is one financial movement in canonical form.
// Dates and value are fixed at construction; category, type and the transfer
// flag are mutable classification state owned by the tagging pipeline.
type Transaction struct {
	authDate    time.Time
	captureDate time.Time
	value       decimal.Decimal
	description string

	income     bool
	debt       bool
	transfer   bool
	investment bool

	category string
	txType   string
}

// New builds a transaction from a source record. A non-negative value marks
// income, a negative value marks debt.
func New(authDate, captureDate time.Time, value decimal.Decimal, description string) *Transaction {
	income := value.Sign() >= 0
	return &Transaction{
		authDate:    authDate,
		captureDate: captureDate,
		value:       value,
		description: description,
		income:      income,
		debt:        !income,
	}
}

// AuthDate returns the transaction completion date.
func (t *Transaction) AuthDate() time.Time { return t.authDate }

// CaptureDate returns the value/booking date.
func (t *Transaction) CaptureDate() time.Time { return t.captureDate }

// AuthDateString formats the auth date. An empty layout selects
// DefaultDateLayout.
func (t *Transaction) AuthDateString(layout string) string {
	if layout == "" {
		layout = DefaultDateLayout
	}
	return t.authDate.Format(layout)
}

// CaptureDateString formats the capture date. An empty layout selects
// DefaultDateLayout.
func (t *Transaction) CaptureDateString(layout string) string {
	if layout == "" {
		layout = DefaultDateLayout
	}
	return t.captureDate.Format(layout)
}

// Value returns the signed amount.
func (t *Transaction) Value() decimal.Decimal { return t.value }

// AbsValue returns the amount with the sign dropped.
func (t *Transaction) AbsValue() decimal.Decimal { return t.value.Abs() }

// Description returns the source description. stripPrefix requests the
// known-prefix transform, which no source implements.
func (t *Transaction) Description(stripPrefix bool) (string, error) {
	if stripPrefix {
		return "", ErrPrefixStripUnsupported
	}
	return t.description, nil
}

// Category returns the assigned category, empty while untagged.
func (t *Transaction) Category() string { return t.category }

// SetCategory assigns the category.
func (t *Transaction) SetCategory(category string) { t.category = category }

// Type returns the tagger-assigned type label, empty when none was supplied.
func (t *Transaction) Type() string { return t.txType }

// SetType assigns the type label.
func (t *Transaction) SetType(txType string) { t.txType = txType }

// SetTransfer marks or unmarks the transaction as a movement between own
// accounts. A transfer is neither income nor debt.
func (t *Transaction) SetTransfer(transfer bool) {
	t.transfer = transfer
	if transfer {
		t.income = false
		t.debt = false
	}
}

// SetInvestment marks the transaction as an investment movement.
func (t *Transaction) SetInvestment(investment bool) { t.investment = investment }

// IsIncome reports whether the transaction is classified as income.
func (t *Transaction) IsIncome() bool { return t.income }

// IsDebt reports whether the transaction is classified as debt.
func (t *Transaction) IsDebt() bool { return t.debt }

// IsTransfer reports whether the transaction moves money between own accounts.
func (t *Transaction) IsTransfer() bool { return t.transfer }

// IsInvestment reports whether the transaction is an investment movement.
func (t *Transaction) IsInvestment() bool { return t.investment }

// String is for debugging output only.
func (t *Transaction) String() string {
	return fmt.Sprintf("auth=%s capture=%s description=%q amount=%s",
		t.AuthDateString(""), t.CaptureDateString(""), t.description, t.value)
}
