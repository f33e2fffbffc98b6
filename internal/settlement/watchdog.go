package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/idexio/idex-contracts/internal/journal"
	"github.com/idexio/idex-contracts/internal/metrics"
)

// Watchdog periodically sweeps the journal for transfers that were accepted
// but never concluded. It only reports: a transfer stuck pending may already
// have moved funds, so re-running it blindly is never safe.
type Watchdog struct {
	logger     *logrus.Logger
	journal    journal.Repo
	metrics    *metrics.WatchdogMetrics
	interval   time.Duration
	staleAfter time.Duration
}

func NewWatchdog(
	logger *logrus.Logger,
	repo journal.Repo,
	watchdogMetrics *metrics.WatchdogMetrics,
	interval, staleAfter time.Duration,
) *Watchdog {
	return &Watchdog{
		logger:     logger,
		journal:    repo,
		metrics:    watchdogMetrics,
		interval:   interval,
		staleAfter: staleAfter,
	}
}

// Run sweeps on the configured interval until the context is canceled.
func (w *Watchdog) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.Sweep(ctx); err != nil {
				w.logger.WithError(err).Error("journal sweep failed")
			}
		}
	}
}

// Sweep performs one pass and returns the transfers currently stuck.
func (w *Watchdog) Sweep(ctx context.Context) ([]journal.Entry, error) {
	stale, err := w.journal.StalePending(ctx, w.staleAfter)
	w.metrics.RecordSweep(len(stale), err)
	if err != nil {
		return nil, fmt.Errorf("failed to sweep journal: %w", err)
	}

	for _, entry := range stale {
		w.logger.WithFields(logrus.Fields{
			"id":        entry.ID,
			"direction": entry.Direction,
			"account":   entry.Account.Hex(),
			"asset":     entry.Asset.String(),
			"quantity":  entry.Quantity.String(),
			"age":       time.Since(entry.CreatedAt).Round(time.Second).String(),
		}).Warn("transfer stuck pending")
	}
	return stale, nil
}
