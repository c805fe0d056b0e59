// Package repository defines the sink contract the orchestrator pushes to
// and provides the SQLite-backed ledger plus an in-memory ledger for tests.
//
// A sink stores 8-field transaction rows and 4-field balance rows and
// answers "last known date" queries. Deduplication is the sink's
// responsibility, not the orchestrator's.
package repository

import (
	"fmt"
	"log/slog"
	"time"
)

// Transaction row width pushed by the orchestrator:
// [capture_date, auth_date, description, account, type, category, abs, signed].
const RowWidth = 8

// Balance row width: [balance_date, updated_at, account, balance].
const BalanceRowWidth = 4

// Repository is the external ledger abstraction.
type Repository interface {
	// LastTransactionDateForAccount returns the most recent recorded auth
	// date for the account. ok is false when the sink has no record for it.
	LastTransactionDateForAccount(account string) (date time.Time, ok bool, err error)

	// BatchInsert appends transaction rows, skipping rows the sink already
	// holds.
	BatchInsert(rows [][]string) error

	// AppendBalances appends balance rows.
	AppendBalances(rows [][]string) error

	// Transactions returns all stored transaction rows, oldest first. Used by
	// the historical tagger.
	Transactions() ([][]string, error)

	// Close releases the sink's resources.
	Close() error
}

// Registry holds the named sinks for one run, in registration order. The
// first registered sink is the pivot: the reference for "last pulled date"
// when no explicit start date is given.
type Registry struct {
	order  []string
	sinks  map[string]Repository
	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sinks:  make(map[string]Repository),
		logger: logger,
	}
}

// Register adds a sink under a unique name.
func (r *Registry) Register(name string, sink Repository) error {
	if _, exists := r.sinks[name]; exists {
		return fmt.Errorf("repository %q already registered", name)
	}
	r.order = append(r.order, name)
	r.sinks[name] = sink
	r.logger.Info("registered repository", slog.String("repository", name))
	return nil
}

// Get returns the sink registered under name.
func (r *Registry) Get(name string) (Repository, error) {
	sink, exists := r.sinks[name]
	if !exists {
		return nil, fmt.Errorf("repository %q not registered", name)
	}
	return sink, nil
}

// Pivot returns the first registered sink. ok is false when the registry is
// empty.
func (r *Registry) Pivot() (Repository, bool) {
	if len(r.order) == 0 {
		return nil, false
	}
	return r.sinks[r.order[0]], true
}

// Names returns the sink names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// CloseAll closes every sink, best effort.
func (r *Registry) CloseAll() {
	for _, name := range r.order {
		if err := r.sinks[name].Close(); err != nil {
			r.logger.Error("closing repository failed",
				slog.String("repository", name),
				slog.String("error", err.Error()),
			)
		}
	}
}
