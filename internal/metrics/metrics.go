package metrics

// Package metrics provides Prometheus metrics collection for the custody
// services.
//
// This package includes:
// - HTTP request metrics (count, latency, errors)
// - Transfer engine metrics (outcomes, latency, balance mismatches)
// - Journal watchdog metrics (sweeps, stale transfers)
// - Metrics HTTP server on configurable port
// - Echo middleware for automatic request instrumentation
//
// Usage:
//   import "github.com/idexio/idex-contracts/internal/metrics"
//
//   // Start metrics server
//   metricsServer := metrics.StartMetricsServer(cfg.Metrics, []string{metrics.ServiceHTTP}, logger)
//   defer metricsServer.Stop(context.Background())
//
//   // Add middleware to Echo
//   middlewares := append(api.DefaultMiddlewares(), metrics.HTTPMiddleware())
