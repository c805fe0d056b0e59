package config

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/mgoncalves/expense-sync-backend/internal/accounts"
	"github.com/mgoncalves/expense-sync-backend/internal/accounts/manual"
	accmyedenred "github.com/mgoncalves/expense-sync-backend/internal/accounts/myedenred"
	accnordigen "github.com/mgoncalves/expense-sync-backend/internal/accounts/nordigen"
	"github.com/mgoncalves/expense-sync-backend/internal/clients/manualfile"
	myedenredclient "github.com/mgoncalves/expense-sync-backend/internal/clients/myedenred"
	nordigenclient "github.com/mgoncalves/expense-sync-backend/internal/clients/nordigen"
	"github.com/mgoncalves/expense-sync-backend/internal/domain/tagger"
	"github.com/mgoncalves/expense-sync-backend/internal/fetcher"
	"github.com/mgoncalves/expense-sync-backend/internal/repository"
	"github.com/mgoncalves/expense-sync-backend/internal/secrets"
)

// BuildFetcher assembles the full orchestrator from configuration:
// repositories first (the first declared one becomes the pivot), then the
// account managers with their tagger chains.
//
// The nordigen, myedenred and manual account types can be built from
// configuration alone. The activebank variant needs a live browser session
// injected programmatically, so declaring it here is an error.
func BuildFetcher(cfg *Config, passwords secrets.PasswordGetter, logger *slog.Logger) (*fetcher.ExpensesFetcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Repositories) == 0 {
		return nil, fmt.Errorf("no repositories configured")
	}

	sinks := repository.NewRegistry(logger)
	for _, repoCfg := range cfg.Repositories {
		sink, err := buildRepository(repoCfg, cfg.Transactions.DateLayout)
		if err != nil {
			return nil, err
		}
		if err := sinks.Register(repoCfg.Name, sink); err != nil {
			return nil, err
		}
	}

	accountRegistry := accounts.NewRegistry(logger)
	for _, accountCfg := range cfg.Accounts {
		manager, err := buildAccount(accountCfg, sinks, passwords, logger)
		if err != nil {
			return nil, fmt.Errorf("building account %q: %w", accountCfg.Name, err)
		}
		if err := accountRegistry.Register(accountCfg.Name, manager); err != nil {
			return nil, err
		}
	}

	labels := fetcher.Labels{
		Debt:       cfg.Transactions.DebtLabel,
		Income:     cfg.Transactions.IncomeLabel,
		Transfer:   cfg.Transactions.TransferLabel,
		Investment: cfg.Transactions.InvestmentLabel,
	}

	return fetcher.New(accountRegistry, sinks, labels, cfg.Transactions.DateLayout, logger), nil
}

func buildRepository(cfg RepositoryConfig, dateLayout string) (repository.Repository, error) {
	switch cfg.Type {
	case "sqlite":
		return repository.NewSQLiteLedger(cfg.Path, dateLayout)
	case "memory":
		return repository.NewMemoryLedger(dateLayout), nil
	default:
		return nil, fmt.Errorf("unsupported repository type %q", cfg.Type)
	}
}

func buildAccount(cfg AccountConfig, sinks *repository.Registry, passwords secrets.PasswordGetter, logger *slog.Logger) (accounts.Manager, error) {
	taggers, err := buildTaggers(cfg.Taggers, sinks)
	if err != nil {
		return nil, err
	}

	switch cfg.Type {
	case "nordigen":
		token := cfg.Token
		if token == "" {
			if passwords == nil {
				return nil, fmt.Errorf("no token configured and no password getter available")
			}
			token, err = passwords.Password(cfg.Name)
			if err != nil {
				return nil, err
			}
		}
		client := nordigenclient.New(token, cfg.AccountID, logger)
		return accnordigen.NewManager(client, cfg.AccountID, taggers, cfg.StripPrefix)

	case "myedenred":
		cardID, err := strconv.Atoi(cfg.AccountID)
		if err != nil {
			return nil, fmt.Errorf("myedenred account_id must be a numeric card id: %w", err)
		}
		password := cfg.Token
		if password == "" {
			if passwords == nil {
				return nil, fmt.Errorf("no password configured and no password getter available")
			}
			password, err = passwords.Password(cfg.Name)
			if err != nil {
				return nil, err
			}
		}
		session := myedenredclient.New(logger)
		if err := session.Login(context.Background(), cfg.Username, password); err != nil {
			return nil, err
		}
		return accmyedenred.NewManager(session, cardID, taggers, cfg.StripPrefix)

	case "manual":
		if cfg.Manual == nil {
			return nil, fmt.Errorf("manual account needs a manual section")
		}
		fileFetcher, err := manualfile.NewFetcher(*cfg.Manual)
		if err != nil {
			return nil, err
		}
		return manual.NewManager(fileFetcher, cfg.Name, taggers, cfg.StripPrefix)

	default:
		return nil, fmt.Errorf("unsupported account type %q (activebank needs an injected browser session)", cfg.Type)
	}
}

func buildTaggers(cfg TaggersConfig, sinks *repository.Registry) ([]tagger.Tagger, error) {
	var taggers []tagger.Tagger

	if len(cfg.Regex) > 0 {
		builder := tagger.NewRegexBuilder()
		for _, rule := range cfg.Regex {
			if err := builder.Add(rule.Category, rule.Pattern); err != nil {
				return nil, err
			}
		}
		taggers = append(taggers, builder.Build())
	}

	if cfg.Historical.Enabled {
		var source repository.Repository
		if cfg.Historical.Repository != "" {
			sink, err := sinks.Get(cfg.Historical.Repository)
			if err != nil {
				return nil, err
			}
			source = sink
		} else {
			sink, ok := sinks.Pivot()
			if !ok {
				return nil, fmt.Errorf("historical tagger needs a repository")
			}
			source = sink
		}
		historical, err := tagger.NewHistoricalTagger(source)
		if err != nil {
			return nil, err
		}
		taggers = append(taggers, historical)
	}

	return taggers, nil
}
