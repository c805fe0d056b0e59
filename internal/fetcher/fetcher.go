// Package fetcher orchestrates one batch run: pull transactions and balances
// from the registered accounts, sort the staged rows, and push them to the
// registered sinks.
//
// Execution is single-threaded and sequential; each account's pull completes
// before the next begins. A failure mid-pull leaves the rows staged by
// earlier accounts in place.
package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mgoncalves/expense-sync-backend/internal/accounts"
	"github.com/mgoncalves/expense-sync-backend/internal/domain/transaction"
	"github.com/mgoncalves/expense-sync-backend/internal/repository"
)

// epoch is the effective start when the pivot sink has no record for an
// account.
var epoch = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// OrderBy selects the staged column Sort compares on.
type OrderBy int

const (
	ByAuthDate OrderBy = iota
	ByCaptureDate
)

// PullOptions configures one Pull call. Zero Start/End mean "resolve from the
// pivot sink" and "now" respectively; an empty Account targets every
// registered account.
type PullOptions struct {
	Start           time.Time
	End             time.Time
	Account         string
	ApplyCategories bool
}

// ExpensesFetcher accumulates staged rows across pulls and hands them to
// sinks in one push. Not safe for concurrent use; it is driven by a single
// caller per run.
type ExpensesFetcher struct {
	accounts   *accounts.Registry
	sinks      *repository.Registry
	labels     Labels
	dateLayout string
	logger     *slog.Logger

	staged         []Staged
	stagedBalances []transaction.Balance
}

// New creates the orchestrator. An empty dateLayout selects the default
// ledger layout.
func New(accountRegistry *accounts.Registry, sinkRegistry *repository.Registry, labels Labels, dateLayout string, logger *slog.Logger) *ExpensesFetcher {
	if dateLayout == "" {
		dateLayout = transaction.DefaultDateLayout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExpensesFetcher{
		accounts:   accountRegistry,
		sinks:      sinkRegistry,
		labels:     labels,
		dateLayout: dateLayout,
		logger:     logger,
	}
}

// Pull fetches balances and transactions for the targeted accounts and
// appends them to the staged sequences. Repeated pulls append; dedup is the
// sink's job at push time.
//
// With no explicit start date the pivot sink's last recorded date for the
// account advances by one day; an account the sink has never seen starts at
// the epoch. An account whose effective start is after its effective end is
// skipped without error. A registry with no sinks to pivot on stops the pull
// silently: partial operation is allowed by design.
func (f *ExpensesFetcher) Pull(ctx context.Context, opts PullOptions) error {
	runID := uuid.NewString()

	names := f.accounts.Names()
	if opts.Account != "" {
		names = []string{opts.Account}
	}
	siblings := f.accounts.Names()

	for _, name := range names {
		manager, err := f.accounts.Get(name)
		if err != nil {
			return err
		}
		manager.SetAccountNames(siblings)

		balance, err := manager.Balance(ctx)
		if err != nil {
			return fmt.Errorf("pulling balance for %q: %w", name, err)
		}
		if balance != nil {
			balance.Account = name
			f.stagedBalances = append(f.stagedBalances, *balance)
		}

		start := opts.Start
		if start.IsZero() {
			pivot, ok := f.sinks.Pivot()
			if !ok {
				f.logger.Warn("no repositories registered, stopping pull",
					slog.String("run_id", runID),
					slog.String("account", name),
				)
				return nil
			}
			last, found, err := pivot.LastTransactionDateForAccount(name)
			if err != nil {
				return fmt.Errorf("resolving start date for %q: %w", name, err)
			}
			if found {
				start = last.AddDate(0, 0, 1)
			} else {
				start = epoch
			}
		}

		end := opts.End
		if end.IsZero() {
			end = time.Now()
		}

		if start.After(end) {
			f.logger.Info("nothing to pull",
				slog.String("run_id", runID),
				slog.String("account", name),
				slog.String("start", start.Format(f.dateLayout)),
				slog.String("end", end.Format(f.dateLayout)),
			)
			continue
		}

		txs, err := manager.Transactions(ctx, start, end, opts.ApplyCategories)
		if err != nil {
			return fmt.Errorf("pulling transactions for %q: %w", name, err)
		}
		for _, tx := range txs {
			f.staged = append(f.staged, newStaged(tx, name, f.labels))
		}

		f.logger.Info("pulled account",
			slog.String("run_id", runID),
			slog.String("account", name),
			slog.Int("transactions", len(txs)),
			slog.Bool("balance", balance != nil),
		)
	}

	return nil
}

// Sort orders the staged rows by the selected canonical date column. The
// sort is stable, so rows staged in pull order keep that order inside one
// date.
func (f *ExpensesFetcher) Sort(by OrderBy, reverse bool) {
	sort.SliceStable(f.staged, func(i, j int) bool {
		a, b := f.staged[i].AuthDate, f.staged[j].AuthDate
		if by == ByCaptureDate {
			a, b = f.staged[i].CaptureDate, f.staged[j].CaptureDate
		}
		if reverse {
			return b.Before(a)
		}
		return a.Before(b)
	})
}

// Push hands the staged rows and balances to the named sink, or to every
// registered sink when name is empty. Sinks are pushed in registration
// order; there is no rollback across sinks when a later one fails.
func (f *ExpensesFetcher) Push(name string) error {
	targets := f.sinks.Names()
	if name != "" {
		targets = []string{name}
	}

	rows := make([][]string, len(f.staged))
	for i, staged := range f.staged {
		rows[i] = staged.Row(f.dateLayout)
	}
	balanceRows := make([][]string, len(f.stagedBalances))
	for i, balance := range f.stagedBalances {
		balanceRows[i] = balance.Row(f.dateLayout)
	}

	for _, target := range targets {
		sink, err := f.sinks.Get(target)
		if err != nil {
			return err
		}
		if err := sink.BatchInsert(rows); err != nil {
			return fmt.Errorf("pushing transactions to %q: %w", target, err)
		}
		if err := sink.AppendBalances(balanceRows); err != nil {
			return fmt.Errorf("pushing balances to %q: %w", target, err)
		}
		f.logger.Info("pushed to repository",
			slog.String("repository", target),
			slog.Int("transactions", len(rows)),
			slog.Int("balances", len(balanceRows)),
		)
	}

	return nil
}

// RemoveStaged clears the staged state. An empty account clears everything;
// otherwise only the rows and balances belonging to that account are
// dropped. Account names compare by value.
func (f *ExpensesFetcher) RemoveStaged(account string) {
	if account == "" {
		f.staged = nil
		f.stagedBalances = nil
		return
	}

	kept := f.staged[:0]
	for _, staged := range f.staged {
		if staged.Account != account {
			kept = append(kept, staged)
		}
	}
	f.staged = kept

	keptBalances := f.stagedBalances[:0]
	for _, balance := range f.stagedBalances {
		if balance.Account != account {
			keptBalances = append(keptBalances, balance)
		}
	}
	f.stagedBalances = keptBalances
}

// Staged returns a copy of the staged rows.
func (f *ExpensesFetcher) Staged() []Staged {
	result := make([]Staged, len(f.staged))
	copy(result, f.staged)
	return result
}

// StagedBalances returns a copy of the staged balances.
func (f *ExpensesFetcher) StagedBalances() []transaction.Balance {
	result := make([]transaction.Balance, len(f.stagedBalances))
	copy(result, f.stagedBalances)
	return result
}

// CloseAll closes every registered account manager, best effort.
func (f *ExpensesFetcher) CloseAll() error {
	return f.accounts.CloseAll()
}
