package main

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"

	"github.com/idexio/idex-contracts/internal/amount"
	"github.com/idexio/idex-contracts/internal/custody"
	"github.com/idexio/idex-contracts/internal/evm"
	"github.com/idexio/idex-contracts/internal/health"
	"github.com/idexio/idex-contracts/internal/journal"
	"github.com/idexio/idex-contracts/internal/ledger"
	"github.com/idexio/idex-contracts/internal/logging"
	"github.com/idexio/idex-contracts/internal/metrics"
	"github.com/idexio/idex-contracts/internal/settlement"
)

func main() {
	ctx := context.Background()

	cfg, err := newConfig()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	logger := logging.NewLogger(cfg.LogFormat)

	metricsServer := metrics.StartMetricsServer(cfg.Metrics, []string{metrics.ServiceEngine}, logger)
	defer func() {
		if metricsServer != nil {
			if err := metricsServer.Stop(ctx); err != nil {
				logger.Errorf("failed to stop metrics server: %v", err)
			}
		}
	}()

	redisOptions, err := asynq.ParseRedisURI(cfg.RedisURI)
	if err != nil {
		logger.Fatalf("failed to parse redis URI: %v", err)
	}

	consumer := asynq.NewServer(
		redisOptions,
		asynq.Config{
			Logger:      logger,
			Concurrency: cfg.QueueConcurrency,
			Queues: map[string]int{
				settlement.QueueName: 10,
			},
		},
	)

	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("failed to initialize Postgres pool: %v", err)
	}

	repo, err := journal.NewPostgresRepo(ctx, pgPool)
	if err != nil {
		logger.Fatalf("failed to initialize transfer journal: %v", err)
	}

	var transfers *custody.Transfers
	switch cfg.Backend {
	case "evm":
		backend, er := evm.Dial(ctx, cfg.RPCURL, cfg.CustodyKey)
		if er != nil {
			logger.Fatalf("failed to initialize evm backend: %v", er)
		}
		transfers = custody.NewTransfers(backend, backend, backend.CustodyAddress())
		logger.Infof("custody account %s settles via %s", backend.CustodyAddress(), cfg.RPCURL)
	case "ledger":
		if !common.IsHexAddress(cfg.LedgerCustody) {
			logger.Fatalf("invalid LEDGER_CUSTODY address: %s", cfg.LedgerCustody)
		}
		custodyAddr := common.HexToAddress(cfg.LedgerCustody)
		book := ledger.New()
		if cfg.LedgerFaucet != "" {
			grant, er := amount.ToBaseUnits(cfg.LedgerFaucet, 18)
			if er != nil {
				logger.Fatalf("invalid LEDGER_FAUCET: %v", er)
			}
			book.MintNative(custodyAddr, grant)
		}
		source := book.Source(custodyAddr)
		transfers = custody.NewTransfers(source, source, custodyAddr)
		logger.Infof("custody account %s settles against the in-process ledger", custodyAddr)
	default:
		logger.Fatalf("invalid BACKEND: %s (must be 'evm' or 'ledger')", cfg.Backend)
	}

	engine := settlement.NewEngine(logger, transfers, repo, metrics.NewEngineMetrics())
	settlementConsumer := settlement.NewConsumer(logger, engine)

	healthServer := health.New(cfg.HealthPort)
	go func() {
		er := healthServer.Start(ctx, logger)
		if er != nil {
			logger.Errorf("health server failed: %v", er)
		}
	}()

	mux := asynq.NewServeMux()
	mux.HandleFunc(settlement.TypeDeposit, settlementConsumer.HandleDeposit)
	mux.HandleFunc(settlement.TypeWithdrawal, settlementConsumer.HandleWithdrawal)
	err = consumer.Run(mux)
	if err != nil {
		logger.Fatalf("failed to run consumer: %v", err)
	}
}

type config struct {
	LogFormat        logging.LogFormat `envconfig:"LOG_FORMAT" default:"text"`
	RedisURI         string            `envconfig:"REDIS_URI" default:"redis://localhost:6379"`
	PostgresDSN      string            `envconfig:"POSTGRES_DSN" required:"true"`
	Backend          string            `envconfig:"BACKEND" default:"evm"`
	RPCURL           string            `envconfig:"RPC_URL"`
	CustodyKey       string            `envconfig:"CUSTODY_KEY"`
	LedgerCustody    string            `envconfig:"LEDGER_CUSTODY" default:"0x0000000000000000000000000000000000000001"`
	LedgerFaucet     string            `envconfig:"LEDGER_FAUCET"`
	QueueConcurrency int               `envconfig:"QUEUE_CONCURRENCY" default:"10"`
	HealthPort       int               `envconfig:"HEALTH_PORT" default:"8081"`
	Metrics          metrics.Config
}

func newConfig() (config, error) {
	var cfg config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return config{}, fmt.Errorf("failed to process env var: %w", err)
	}
	return cfg, nil
}
