package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/idexio/idex-contracts/internal/custody"
	"github.com/idexio/idex-contracts/internal/journal"
	"github.com/idexio/idex-contracts/internal/metrics"
)

// ErrInsufficientBalance rejects a withdrawal exceeding the account's
// verified holdings.
var ErrInsufficientBalance = errors.New("insufficient verified balance")

// Engine executes journaled transfers. Operations on the same account run
// one at a time, and an entry is concluded exactly once, as verified or
// failed. A failed transfer credits or debits nothing.
type Engine struct {
	logger    *logrus.Logger
	transfers *custody.Transfers
	journal   journal.Repo
	locks     *accountLocks
	metrics   *metrics.EngineMetrics
}

func NewEngine(logger *logrus.Logger, transfers *custody.Transfers, repo journal.Repo, engineMetrics *metrics.EngineMetrics) *Engine {
	return &Engine{
		logger:    logger,
		transfers: transfers,
		journal:   repo,
		locks:     newAccountLocks(),
		metrics:   engineMetrics,
	}
}

// Execute runs the pending transfer with the given id and concludes its
// journal entry. A transfer that is already concluded is skipped, so a
// redelivered task cannot move funds twice.
func (e *Engine) Execute(ctx context.Context, id uuid.UUID) error {
	entry, err := e.journal.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load transfer %s: %w", id, err)
	}

	unlock := e.locks.lock(entry.Account)
	defer unlock()

	// Re-read under the lock so a conclusion that raced the first read is
	// seen before anything moves.
	entry, err = e.journal.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load transfer %s: %w", id, err)
	}
	if entry.Status != journal.StatusPending {
		e.logger.WithFields(logrus.Fields{
			"transferID": id.String(),
			"status":     string(entry.Status),
		}).Warn("transfer already concluded, skipping")
		return nil
	}

	if entry.Quantity == nil || entry.Quantity.Sign() <= 0 {
		e.markFailed(ctx, id, "invalid_quantity")
		return fmt.Errorf("transfer %s has no positive quantity", id)
	}

	switch entry.Direction {
	case journal.DirectionDeposit:
		return e.deposit(ctx, entry)
	case journal.DirectionWithdrawal:
		return e.withdraw(ctx, entry)
	default:
		e.markFailed(ctx, id, "invalid_direction")
		return fmt.Errorf("transfer %s has unknown direction %q", id, entry.Direction)
	}
}

func (e *Engine) deposit(ctx context.Context, entry journal.Entry) error {
	log := e.logger.WithFields(logrus.Fields{
		"transferID": entry.ID.String(),
		"account":    entry.Account.Hex(),
		"asset":      entry.Asset.String(),
		"quantity":   entry.Quantity.String(),
	})

	start := time.Now()
	var err error
	if !entry.Asset.IsNative() {
		err = e.transfers.PullIn(ctx, entry.Account, entry.Asset, entry.Quantity)
	}
	// A native inflow arrives with the host's confirmed inbound payment,
	// so there is nothing to pull; the entry is concluded directly.
	e.metrics.RecordTransfer(string(entry.Direction), entry.Asset.Kind(), custody.Reason(err), time.Since(start))

	if err != nil {
		e.markFailed(ctx, entry.ID, custody.Reason(err))
		log.WithError(err).Error("deposit failed")
		return fmt.Errorf("deposit %s: %w", entry.ID, err)
	}
	if err := e.journal.MarkVerified(ctx, entry.ID); err != nil {
		log.WithError(err).Error("deposit verified but journal update failed")
		return fmt.Errorf("failed to conclude deposit %s: %w", entry.ID, err)
	}
	log.Info("deposit verified")
	return nil
}

func (e *Engine) withdraw(ctx context.Context, entry journal.Entry) error {
	log := e.logger.WithFields(logrus.Fields{
		"transferID":  entry.ID.String(),
		"account":     entry.Account.Hex(),
		"destination": entry.Destination.Hex(),
		"asset":       entry.Asset.String(),
		"quantity":    entry.Quantity.String(),
	})

	start := time.Now()
	balance, err := e.journal.BalanceOf(ctx, entry.Account, entry.Asset)
	if err != nil {
		return fmt.Errorf("failed to read balance for withdrawal %s: %w", entry.ID, err)
	}
	if balance.Cmp(entry.Quantity) < 0 {
		e.markFailed(ctx, entry.ID, "insufficient_balance")
		e.metrics.RecordTransfer(string(entry.Direction), entry.Asset.Kind(), "insufficient_balance", time.Since(start))
		log.WithField("balance", balance.String()).Warn("withdrawal exceeds verified balance")
		return fmt.Errorf("%w: have %s, want %s", ErrInsufficientBalance, balance, entry.Quantity)
	}

	err = e.transfers.PushOut(ctx, entry.Destination, entry.Asset, entry.Quantity)
	e.metrics.RecordTransfer(string(entry.Direction), entry.Asset.Kind(), custody.Reason(err), time.Since(start))

	if err != nil {
		e.markFailed(ctx, entry.ID, custody.Reason(err))
		log.WithError(err).Error("withdrawal failed")
		return fmt.Errorf("withdrawal %s: %w", entry.ID, err)
	}
	if err := e.journal.MarkVerified(ctx, entry.ID); err != nil {
		log.WithError(err).Error("withdrawal verified but journal update failed")
		return fmt.Errorf("failed to conclude withdrawal %s: %w", entry.ID, err)
	}
	log.Info("withdrawal verified")
	return nil
}

func (e *Engine) markFailed(ctx context.Context, id uuid.UUID, reason string) {
	if err := e.journal.MarkFailed(ctx, id, reason); err != nil {
		e.logger.WithError(err).WithField("transferID", id.String()).Error("failed to mark transfer failed")
	}
}
