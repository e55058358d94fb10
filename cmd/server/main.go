package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/xaenox/supportlens/internal/api"
	"github.com/xaenox/supportlens/internal/assistant"
	"github.com/xaenox/supportlens/internal/classifier"
	"github.com/xaenox/supportlens/internal/logging"
	"github.com/xaenox/supportlens/internal/storage"
	"github.com/xaenox/supportlens/pkg/config"
)

func main() {
	fs := pflag.NewFlagSet("supportlens-server", pflag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to the config file")
	fs.String("addr", ":8000", "listen address")
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

	store, err := openStorage(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	if cfg.Seed.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		_, err := storage.Seed(ctx, store, time.Now(), rand.New(rand.NewSource(time.Now().UnixNano())), logger)
		cancel()
		if err != nil {
			logger.Error("Failed to seed traces", zap.Error(err))
		}
	}

	llm := newOpenAIClient(cfg.OpenAI)
	if cfg.OpenAI.APIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set; chat requests will fail")
	}

	var clf classifier.Classifier = classifier.NewKeywordClassifier()
	if cfg.Classifier.UseLLM && cfg.OpenAI.APIKey != "" {
		clf = classifier.NewGPTClassifier(llm, cfg.OpenAI.Model, logger)
	}

	responder := assistant.NewGPTAssistant(llm, assistant.Config{
		Model:       cfg.OpenAI.Model,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Temperature: cfg.OpenAI.Temperature,
	}, logger)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewServer(store, responder, clf, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("Shutting down", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	logger.Info("Server starting", zap.String("addr", cfg.Server.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func openStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	opts := storage.Options{CaseSensitiveSearch: cfg.Search.CaseSensitive}
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory storage")
		return storage.NewMemoryStorage(opts), nil
	}

	logger.Info("Using PostgreSQL storage",
		zap.String("host", cfg.Database.Host),
		zap.String("dbname", cfg.Database.DBName))
	return storage.NewPostgresStorage(storage.DatabaseConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	}, opts, logger)
}

func newOpenAIClient(cfg config.OpenAIConfig) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientCfg)
}
