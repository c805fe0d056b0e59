// Package tagger classifies transaction descriptions into categories and
// types.
//
// Taggers are composed into an ordered chain: the first tagger that supplies
// a non-empty category wins and evaluation stops. Type labels are assigned
// independently, so a transaction's type may come from an earlier tagger than
// the one that supplied its category.
package tagger

import (
	"fmt"

	"github.com/mgoncalves/expense-sync-backend/internal/domain/transaction"
)

// Tagger maps a transaction description to classification labels.
// Implementations return "" when they have nothing to say about a
// description.
type Tagger interface {
	Category(description string) string
	Type(description string) string
}

// Apply runs the tagger chain over one transaction.
//
// Taggers are consulted in order until the transaction's category becomes
// non-empty. Category and type are only ever set, never cleared. When the
// assigned category matches one of the sibling account names and no type has
// been set, the transaction is marked as a transfer: a category colliding
// with an account name means money moved between tracked accounts, not a true
// expense or income.
func Apply(tx *transaction.Transaction, taggers []Tagger, accountNames []string, stripPrefix bool) error {
	for _, tg := range taggers {
		if tx.Category() != "" {
			break
		}
		description, err := tx.Description(stripPrefix)
		if err != nil {
			return fmt.Errorf("tagging %s: %w", tx, err)
		}
		category := tg.Category(description)
		txType := tg.Type(description)
		if category != "" {
			tx.SetCategory(category)
		}
		if txType != "" && tx.Type() == "" {
			tx.SetType(txType)
		}
		if category != "" && tx.Type() == "" && containsName(accountNames, category) {
			tx.SetTransfer(true)
		}
	}
	return nil
}

func containsName(names []string, candidate string) bool {
	for _, name := range names {
		if name == candidate {
			return true
		}
	}
	return false
}
