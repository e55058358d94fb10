package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/xaenox/supportlens/internal/client"
	"github.com/xaenox/supportlens/internal/dashboard"
	"github.com/xaenox/supportlens/internal/logging"
	"github.com/xaenox/supportlens/internal/tui"
	"github.com/xaenox/supportlens/pkg/config"
)

func main() {
	fs := pflag.NewFlagSet("supportlens-dashboard", pflag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to the config file")
	fs.String("api-url", "http://localhost:8000", "trace store base URL")
	logFile := fs.String("log-file", "", "write logs to this file (the terminal belongs to the dashboard)")
	fs.Parse(os.Args[1:])

	if err := run(*configPath, *logFile, fs); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, logFile string, fs *pflag.FlagSet) error {
	cfg, err := config.LoadConfig(configPath, fs)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := zap.NewNop()
	if logFile != "" {
		logger, err = logging.New(cfg.Log.Level, cfg.Log.Development, logFile)
		if err != nil {
			return err
		}
	}
	defer logger.Sync()

	store := client.New(cfg.Dashboard.APIURL, client.WithLogger(logger))
	ctrl := dashboard.NewController(store,
		dashboard.WithLogger(logger),
		dashboard.WithDebounce(cfg.Dashboard.Debounce))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ctrl.Run(ctx)

	logger.Info("Dashboard starting", zap.String("api_url", cfg.Dashboard.APIURL))
	if _, err := tea.NewProgram(tui.NewModel(ctrl), tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}

	cancel()
	<-ctrl.Done()
	return nil
}
