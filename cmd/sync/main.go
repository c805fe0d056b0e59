// Command sync runs one batch: pull transactions and balances from every
// configured account, sort the staged rows, and push them to the configured
// sinks.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/mgoncalves/expense-sync-backend/internal/fetcher"
	"github.com/mgoncalves/expense-sync-backend/internal/infrastructure/config"
	"github.com/mgoncalves/expense-sync-backend/internal/infrastructure/logging"
	"github.com/mgoncalves/expense-sync-backend/internal/secrets"
)

func main() {
	var (
		configFile = flag.String("config", "config.yaml", "Configuration file path")
		account    = flag.String("account", "", "Specific account to pull (empty = all)")
		sink       = flag.String("repository", "", "Specific repository to push to (empty = all)")
		start      = flag.String("start", "", "Start date (2006-01-02, empty = resolve from ledger)")
		end        = flag.String("end", "", "End date (2006-01-02, empty = today)")
		categories = flag.Bool("categories", true, "Apply the tagger chain while pulling")
		sortBy     = flag.String("sort-by", "auth_date", "Sort column: auth_date or capture_date")
		reverse    = flag.Bool("reverse", false, "Sort newest first")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load config", slog.String("file", *configFile), slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *verbose {
		cfg.Logging.Level = "debug"
	}
	logger := logging.NewLogger(cfg.Logging)

	passwords := secrets.NewPromptGetter("Password for account %s: ", os.Stdin, os.Stderr)

	expenses, err := config.BuildFetcher(cfg, passwords, logger)
	if err != nil {
		logger.Error("failed to build fetcher", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := expenses.CloseAll(); err != nil {
			logger.Error("closing accounts failed", slog.String("error", err.Error()))
		}
	}()

	opts := fetcher.PullOptions{
		Account:         *account,
		ApplyCategories: *categories,
	}
	if *start != "" {
		if opts.Start, err = time.Parse("2006-01-02", *start); err != nil {
			logger.Error("invalid start date", slog.String("start", *start))
			os.Exit(1)
		}
	}
	if *end != "" {
		if opts.End, err = time.Parse("2006-01-02", *end); err != nil {
			logger.Error("invalid end date", slog.String("end", *end))
			os.Exit(1)
		}
	}

	orderBy := fetcher.ByAuthDate
	if *sortBy == "capture_date" {
		orderBy = fetcher.ByCaptureDate
	}

	ctx := context.Background()

	if err := expenses.Pull(ctx, opts); err != nil {
		logger.Error("pull failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	expenses.Sort(orderBy, *reverse)
	if err := expenses.Push(*sink); err != nil {
		logger.Error("push failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("sync completed",
		slog.Int("transactions", len(expenses.Staged())),
		slog.Int("balances", len(expenses.StagedBalances())),
	)
}
