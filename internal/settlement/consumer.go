package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// Consumer adapts the engine to the task queue.
type Consumer struct {
	logger *logrus.Logger
	engine *Engine
}

func NewConsumer(logger *logrus.Logger, engine *Engine) *Consumer {
	return &Consumer{logger: logger, engine: engine}
}

// HandleDeposit executes a journaled deposit. Failures are terminal: the
// journal entry is already concluded, so the task is never requeued.
func (c *Consumer) HandleDeposit(ctx context.Context, t *asynq.Task) error {
	return c.handle(ctx, t)
}

// HandleWithdrawal executes a journaled withdrawal, with the same no-retry
// contract as deposits.
func (c *Consumer) HandleWithdrawal(ctx context.Context, t *asynq.Task) error {
	return c.handle(ctx, t)
}

func (c *Consumer) handle(ctx context.Context, t *asynq.Task) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	id, err := parseTaskID(t)
	if err != nil {
		c.logger.WithError(err).Error("failed to parse transfer task")
		return asynq.SkipRetry
	}

	c.logger.WithFields(logrus.Fields{
		"transferID": id.String(),
		"type":       t.Type(),
	}).Info("executing transfer")

	if err := c.engine.Execute(ctx, id); err != nil {
		c.logger.WithError(err).Error("failed to execute transfer")
		return asynq.SkipRetry
	}
	return nil
}

func parseTaskID(t *asynq.Task) (uuid.UUID, error) {
	var payload taskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return uuid.UUID{}, fmt.Errorf("failed to unmarshal task payload: %w", err)
	}
	id, err := uuid.Parse(payload.ID)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("failed to parse transfer id %q: %w", payload.ID, err)
	}
	return id, nil
}
