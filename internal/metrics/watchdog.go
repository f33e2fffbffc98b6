package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	watchdogStaleTransfers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "custody",
			Subsystem: "watchdog",
			Name:      "stale_transfers",
			Help:      "Number of transfers stuck pending past the stale threshold",
		},
	)

	watchdogSweepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "custody",
			Subsystem: "watchdog",
			Name:      "sweeps_total",
			Help:      "Total number of journal sweeps",
		},
		[]string{"status"}, // ok/error
	)
)

// WatchdogMetrics provides methods to update journal watchdog metrics
type WatchdogMetrics struct{}

// NewWatchdogMetrics creates a new instance of WatchdogMetrics
func NewWatchdogMetrics() *WatchdogMetrics {
	return &WatchdogMetrics{}
}

// RecordSweep records one journal sweep and the stale count it found
func (wm *WatchdogMetrics) RecordSweep(stale int, err error) {
	if err != nil {
		watchdogSweepsTotal.WithLabelValues("error").Inc()
		return
	}
	watchdogSweepsTotal.WithLabelValues("ok").Inc()
	watchdogStaleTransfers.Set(float64(stale))
}
