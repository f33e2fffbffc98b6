package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"

	"github.com/idexio/idex-contracts/internal/graceful"
	"github.com/idexio/idex-contracts/internal/health"
	"github.com/idexio/idex-contracts/internal/journal"
	"github.com/idexio/idex-contracts/internal/logging"
	"github.com/idexio/idex-contracts/internal/metrics"
	"github.com/idexio/idex-contracts/internal/settlement"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := newConfig()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	logger := logging.NewLogger(cfg.LogFormat)

	// Start metrics server for watchdog
	metricsServer := metrics.StartMetricsServer(cfg.Metrics, []string{metrics.ServiceWatchdog}, logger)
	defer func() {
		if metricsServer != nil {
			if err := metricsServer.Stop(ctx); err != nil {
				logger.Errorf("failed to stop metrics server: %v", err)
			}
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

	watchdog := settlement.NewWatchdog(
		logger,
		repo,
		metrics.NewWatchdogMetrics(),
		cfg.SweepInterval,
		cfg.StaleAfter,
	)

	healthServer := health.New(cfg.HealthPort)
	go func() {
		er := healthServer.Start(ctx, logger)
		if er != nil {
			logger.Errorf("health server failed: %v", er)
		}
	}()

	go graceful.CancelOnSignal(cancel, logger)

	logger.Infof("watching for transfers pending longer than %s", cfg.StaleAfter)
	err = watchdog.Run(ctx)
	if err != nil {
		logger.Fatalf("failed to run watchdog: %v", err)
	}
}

type config struct {
	LogFormat     logging.LogFormat `envconfig:"LOG_FORMAT" default:"text"`
	PostgresDSN   string            `envconfig:"POSTGRES_DSN" required:"true"`
	SweepInterval time.Duration     `envconfig:"SWEEP_INTERVAL" default:"1m"`
	StaleAfter    time.Duration     `envconfig:"STALE_AFTER" default:"15m"`
	HealthPort    int               `envconfig:"HEALTH_PORT" default:"8081"`
	Metrics       metrics.Config
}

func newConfig() (config, error) {
	var cfg config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return config{}, fmt.Errorf("failed to process env var: %w", err)
	}
	return cfg, nil
}
