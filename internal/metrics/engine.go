package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Transfer outcomes by direction and asset kind
	engineTransfersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "custody",
			Subsystem: "engine",
			Name:      "transfers_total",
			Help:      "Total number of executed transfers",
		},
		[]string{"direction", "asset_kind", "status"}, // deposit/withdrawal, native/token, outcome label
	)

	engineTransferDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "custody",
			Subsystem: "engine",
			Name:      "transfer_duration_seconds",
			Help:      "Time taken to execute and verify a transfer",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"direction"},
	)

	// Mismatches get their own counter: they are the alarm that a token
	// did not deliver what it claimed.
	engineBalanceMismatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "custody",
			Subsystem: "engine",
			Name:      "balance_mismatches_total",
			Help:      "Total number of transfers refused on a balance delta mismatch",
		},
		[]string{"direction"},
	)
)

// EngineMetrics provides methods to update transfer engine metrics
type EngineMetrics struct{}

// NewEngineMetrics creates a new instance of EngineMetrics
func NewEngineMetrics() *EngineMetrics {
	return &EngineMetrics{}
}

// RecordTransfer records one executed transfer and its outcome label
func (em *EngineMetrics) RecordTransfer(direction, assetKind, status string, duration time.Duration) {
	engineTransfersTotal.WithLabelValues(direction, assetKind, status).Inc()
	engineTransferDuration.WithLabelValues(direction).Observe(duration.Seconds())

	if status == "balance_mismatch" {
		engineBalanceMismatchesTotal.WithLabelValues(direction).Inc()
	}
}
