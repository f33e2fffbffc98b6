package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

// Service names for metrics registration
const (
	ServiceHTTP     = "http"
	ServiceEngine   = "engine"
	ServiceWatchdog = "watchdog"
)

// RegisterMetrics registers metrics for the specified services
func RegisterMetrics(services []string, logger *logrus.Logger) {
	// Always register Go and process metrics
	registerIfNotExists(collectors.NewGoCollector(), "go_collector", logger)
	registerIfNotExists(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}), "process_collector", logger)

	// Register service-specific metrics
	for _, service := range services {
		switch service {
		case ServiceHTTP:
			registerHTTPMetrics(logger)
		case ServiceEngine:
			registerEngineMetrics(logger)
		case ServiceWatchdog:
			registerWatchdogMetrics(logger)
		default:
			logger.Warnf("Unknown service type for metrics registration: %s", service)
		}
	}
}

// registerIfNotExists registers a collector if it's not already registered
func registerIfNotExists(collector prometheus.Collector, name string, logger *logrus.Logger) {
	if err := prometheus.Register(collector); err != nil {
		var alreadyRegErr prometheus.AlreadyRegisteredError
		if errors.As(err, &alreadyRegErr) {
			// This is expected on restart/reload - just debug log
			logger.Debugf("%s already registered", name)
		} else {
			// This is a real problem (descriptor mismatch, etc.) - fatal error
			logger.Errorf("Failed to register %s: %v", name, err)
		}
	}
}

// registerHTTPMetrics registers HTTP-related metrics
func registerHTTPMetrics(logger *logrus.Logger) {
	registerIfNotExists(httpRequestsTotal, "http_requests_total", logger)
	registerIfNotExists(httpRequestDuration, "http_request_duration", logger)
	registerIfNotExists(httpErrorsTotal, "http_errors_total", logger)
}

// registerEngineMetrics registers transfer engine metrics
func registerEngineMetrics(logger *logrus.Logger) {
	registerIfNotExists(engineTransfersTotal, "engine_transfers_total", logger)
	registerIfNotExists(engineTransferDuration, "engine_transfer_duration", logger)
	registerIfNotExists(engineBalanceMismatchesTotal, "engine_balance_mismatches_total", logger)
}

// registerWatchdogMetrics registers journal watchdog metrics
func registerWatchdogMetrics(logger *logrus.Logger) {
	registerIfNotExists(watchdogStaleTransfers, "watchdog_stale_transfers", logger)
	registerIfNotExists(watchdogSweepsTotal, "watchdog_sweeps_total", logger)
}
