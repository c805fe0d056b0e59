// Command api serves the orchestrator over HTTP.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/mgoncalves/expense-sync-backend/internal/api"
	"github.com/mgoncalves/expense-sync-backend/internal/infrastructure/config"
	"github.com/mgoncalves/expense-sync-backend/internal/infrastructure/logging"
	"github.com/mgoncalves/expense-sync-backend/internal/secrets"
)

func main() {
	var (
		configFile = flag.String("config", "config.yaml", "Configuration file path")
		port       = flag.Int("port", 0, "Listen port (0 = from config)")
	)
	flag.Parse()

	cfg := config.LoadOrEnv(*configFile)
	logger := logging.NewLogger(cfg.Logging)

	// The API server cannot prompt; secrets must come from config or env.
	expenses, err := config.BuildFetcher(cfg, secrets.Static(nil), logger)
	if err != nil {
		logger.Error("failed to build fetcher", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := expenses.CloseAll(); err != nil {
			logger.Error("closing accounts failed", slog.String("error", err.Error()))
		}
	}()

	serverConfig := api.DefaultConfig()
	serverConfig.Port = cfg.API.Port
	if *port != 0 {
		serverConfig.Port = *port
	}
	if len(cfg.API.AllowedOrigins) > 0 {
		serverConfig.AllowedOrigins = cfg.API.AllowedOrigins
	}

	server := api.NewServer(serverConfig, expenses, logger)
	if err := server.Run(); err != nil {
		logger.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
