// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml), with ${ENV_VAR} references expanded
//  2. Environment variables (fallback)
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mgoncalves/expense-sync-backend/internal/clients/manualfile"
)

// Config represents the entire application configuration.
type Config struct {
	Transactions TransactionsConfig `yaml:"transactions"`
	Repositories []RepositoryConfig `yaml:"repositories"`
	Accounts     []AccountConfig    `yaml:"accounts"`
	Logging      LoggingConfig      `yaml:"logging"`
	API          APIConfig          `yaml:"api"`
}

// TransactionsConfig holds the ledger row labels and date format.
type TransactionsConfig struct {
	DebtLabel       string `yaml:"debt"`
	IncomeLabel     string `yaml:"income"`
	TransferLabel   string `yaml:"transfer"`
	InvestmentLabel string `yaml:"investment"`
	DateLayout      string `yaml:"date_format"`
}

// RepositoryConfig declares one sink. Declaration order matters: the first
// repository is the pivot for last-date queries.
type RepositoryConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"` // "sqlite" or "memory"
	Path string `yaml:"path"` // sqlite database path
}

// AccountConfig declares one account source.
type AccountConfig struct {
	Name        string             `yaml:"name"`
	Type        string             `yaml:"type"` // "nordigen", "myedenred" or "manual"
	AccountID   string             `yaml:"account_id"`
	Username    string             `yaml:"username"` // myedenred portal login
	Token       string             `yaml:"token"`
	StripPrefix bool               `yaml:"strip_description_prefix"`
	Taggers     TaggersConfig      `yaml:"taggers"`
	Manual      *manualfile.Config `yaml:"manual"`
}

// TaggersConfig declares the account's tagger chain. Regex rules come first,
// in declared order; the historical tagger, when enabled, is appended last as
// the fallback.
type TaggersConfig struct {
	Regex      []RegexRuleConfig `yaml:"regex"`
	Historical HistoricalConfig  `yaml:"historical"`
}

// RegexRuleConfig is one (category, pattern) rule.
type RegexRuleConfig struct {
	Category string `yaml:"category"`
	Pattern  string `yaml:"pattern"`
}

// HistoricalConfig enables frequency-based tagging against a named
// repository's history.
type HistoricalConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Repository string `yaml:"repository"` // empty = pivot repository
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text", "json" or "console"
}

// APIConfig holds the HTTP API settings.
type APIConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Load reads and parses the config file, expanding ${ENV_VAR} references.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// LoadFromEnv builds a minimal configuration from environment variables only:
// one sqlite ledger and no accounts. Useful for the API server and tooling.
func LoadFromEnv() *Config {
	cfg := &Config{
		Repositories: []RepositoryConfig{
			{
				Name: "ledger",
				Type: "sqlite",
				Path: getEnv("LEDGER_DB_PATH", "ledger.db"),
			},
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadOrEnv tries the given path first, then falls back to environment
// variables.
func LoadOrEnv(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

func (c *Config) applyDefaults() {
	if c.Transactions.DebtLabel == "" {
		c.Transactions.DebtLabel = "Debt"
	}
	if c.Transactions.IncomeLabel == "" {
		c.Transactions.IncomeLabel = "Income"
	}
	if c.Transactions.TransferLabel == "" {
		c.Transactions.TransferLabel = "Transfer"
	}
	if c.Transactions.InvestmentLabel == "" {
		c.Transactions.InvestmentLabel = "Investment"
	}
	if c.Transactions.DateLayout == "" {
		c.Transactions.DateLayout = "2006/01/02"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
}

// getEnv retrieves an environment variable with a fallback default.
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
