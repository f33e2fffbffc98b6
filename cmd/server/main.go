package main

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"

	"github.com/idexio/idex-contracts/internal/api"
	"github.com/idexio/idex-contracts/internal/graceful"
	"github.com/idexio/idex-contracts/internal/journal"
	"github.com/idexio/idex-contracts/internal/logging"
	"github.com/idexio/idex-contracts/internal/metrics"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := newConfig()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	logger := logging.NewLogger(cfg.LogFormat)

	// Start metrics server with HTTP metrics for server
	metricsServer := metrics.StartMetricsServer(cfg.Metrics, []string{metrics.ServiceHTTP}, logger)
	defer func() {
		if metricsServer != nil {
			if err := metricsServer.Stop(ctx); err != nil {
				logger.Errorf("failed to stop metrics server: %v", err)
			}
		}
	}()

	asynqConnOpt, err := asynq.ParseRedisURI(cfg.RedisURI)
	if err != nil {
		logger.Fatalf("failed to parse redis URI: %v", err)
	}
	asynqClient := asynq.NewClient(asynqConnOpt)
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Errorf("failed to close asynq client: %v", err)
		}
	}()

	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("failed to initialize Postgres pool: %v", err)
	}
	defer pgPool.Close()

	repo, err := journal.NewPostgresRepo(ctx, pgPool)
	if err != nil {
		logger.Fatalf("failed to initialize transfer journal: %v", err)
	}

	// Add metrics middleware to default middlewares
	middlewares := append(api.DefaultMiddlewares(), metrics.HTTPMiddleware())

	srv := api.NewServer(cfg.Server, logger, asynqClient, repo, middlewares...)

	go graceful.CancelOnSignal(cancel, logger)

	err = srv.Start(ctx)
	if err != nil {
		logger.Fatalf("failed to start server: %v", err)
	}
}

type config struct {
	LogFormat   logging.LogFormat `envconfig:"LOG_FORMAT" default:"text"`
	RedisURI    string            `envconfig:"REDIS_URI" default:"redis://localhost:6379"`
	PostgresDSN string            `envconfig:"POSTGRES_DSN" required:"true"`
	Server      api.Config
	Metrics     metrics.Config
}

func newConfig() (config, error) {
	var cfg config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return config{}, fmt.Errorf("failed to process env var: %w", err)
	}
	return cfg, nil
}
