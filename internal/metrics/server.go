package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Config holds the metrics endpoint settings.
type Config struct {
	Port int `envconfig:"METRICS_PORT" default:"9090"`
}

// Server serves the Prometheus scrape endpoint in the background.
type Server struct {
	srv *http.Server
}

// StartMetricsServer registers metrics for the given services and serves
// /metrics on the configured port.
func StartMetricsServer(cfg Config, services []string, logger *logrus.Logger) *Server {
	RegisterMetrics(services, logger)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("metrics server failed: %v", err)
		}
	}()
	logger.Infof("metrics server listening on :%d", cfg.Port)

	return &Server{srv: srv}
}

// Stop shuts the scrape endpoint down.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
