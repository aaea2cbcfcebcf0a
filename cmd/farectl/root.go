package main

import (
	"context"
	"fmt"

	"FareCast/internal/repository"
	"FareCast/internal/services/predictor"
	"FareCast/internal/usecase"
	"FareCast/pkg/config"
	"FareCast/pkg/kvstore"
	applogger "FareCast/pkg/logger"
	"FareCast/pkg/metrics"
	"FareCast/pkg/util"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	configPath   string
	backend      string
	sqlitePath   string
	predictorURL string
	logLevel     string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	cmd := &cobra.Command{
		Use:           "farectl",
		Short:         "Predict flight fares and 7-day forecasts from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := cmd.PersistentFlags()
	f.StringVar(&g.configPath, "config", "", "config file (defaults apply when empty)")
	f.StringVar(&g.backend, "backend", "sqlite", "history backend: memory, sqlite or redis")
	f.StringVar(&g.sqlitePath, "sqlite-path", "", "sqlite history file (overrides history.sqlite_path)")
	f.StringVar(&g.predictorURL, "predictor-url", "", "prediction service base URL (overrides predictor.base_url)")
	f.StringVar(&g.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	cmd.AddCommand(predictCmd(g))
	cmd.AddCommand(forecastCmd(g))
	cmd.AddCommand(historyCmd(g))
	return cmd
}

// runtime is the slice of the service stack the CLI needs: no HTTP, no events.
type runtime struct {
	svc   *usecase.FareService
	store kvstore.Store
}

func (r *runtime) Close() error {
	r.svc.Close()
	return r.store.Close()
}

func (g *globalFlags) load() (*config.Config, error) {
	cfg, err := config.LoadWithEnv(g.configPath)
	if err != nil {
		return nil, err
	}
	cfg.History.Backend = util.FirstNonEmpty(g.backend, cfg.History.Backend)
	cfg.History.SQLitePath = util.FirstNonEmpty(g.sqlitePath, cfg.History.SQLitePath)
	cfg.Predictor.BaseURL = util.FirstNonEmpty(g.predictorURL, cfg.Predictor.BaseURL)
	cfg.Logger.Level = g.logLevel
	cfg.Events.Enabled = false
	cfg.Archive.Enabled = false
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (g *globalFlags) open(ctx context.Context) (*runtime, error) {
	cfg, err := g.load()
	if err != nil {
		return nil, err
	}

	logger, err := applogger.New(&applogger.Config{Level: cfg.Logger.Level, Format: "console", Output: "stderr"})
	if err != nil {
		return nil, err
	}

	var store kvstore.Store
	switch cfg.History.Backend {
	case "sqlite":
		store, err = kvstore.NewSQLiteStore(ctx, cfg.History.SQLitePath)
	case "redis":
		store, err = kvstore.NewRedisStore(ctx,
			kvstore.WithRedisAddr(cfg.Redis.Addr),
			kvstore.WithRedisPassword(cfg.Redis.Password),
			kvstore.WithRedisDB(cfg.Redis.DB),
			kvstore.WithRedisPrefix(cfg.Redis.Prefix),
		)
	default:
		store = kvstore.NewMemoryStore()
	}
	if err != nil {
		return nil, fmt.Errorf("open history backend: %w", err)
	}

	m := metrics.New(prometheus.NewRegistry())
	client := predictor.New(predictor.NewHTTPClient(cfg.Predictor), cfg.Predictor.RateLimit.RPS, cfg.Predictor.RateLimit.Burst)
	orch := usecase.NewForecastOrchestrator(client, usecase.NewFallbackSynthesizer(0), m, logger, cfg.Predictor.CallTimeout)
	history := usecase.NewHistoryStore(store, cfg.History.Key, m, logger)
	history.Load(ctx)

	svc := usecase.NewFareService(client, orch, history, repository.NoopPublisher{}, m, logger, usecase.FareServiceConfig{
		CallTimeout: cfg.Predictor.CallTimeout,
		RunTimeout:  cfg.Forecast.RunTimeout,
	})
	return &runtime{svc: svc, store: store}, nil
}
