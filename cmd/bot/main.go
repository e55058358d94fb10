package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/xaenox/supportlens/internal/bot"
	"github.com/xaenox/supportlens/internal/client"
	"github.com/xaenox/supportlens/internal/logging"
	"github.com/xaenox/supportlens/pkg/config"
)

func main() {
	fs := pflag.NewFlagSet("supportlens-bot", pflag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to the config file")
	fs.String("api-url", "http://localhost:8000", "trace store base URL")
	fs.Parse(os.Args[1:])

	cfg, err := config.LoadConfig(*configPath, fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Telegram.Token == "" {
		logger.Fatal("TELEGRAM_TOKEN is not set")
	}

	backend := client.New(cfg.Dashboard.APIURL, client.WithLogger(logger))

	b, err := bot.New(cfg.Telegram.Token, backend, logger)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Bot starting", zap.String("api_url", cfg.Dashboard.APIURL))
	if err := b.Start(ctx); err != nil {
		logger.Fatal("Bot error", zap.Error(err))
	}
}
