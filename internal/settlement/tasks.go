package settlement

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Queue and task names for transfer execution.
const (
	QueueName = "custody"

	TypeDeposit    = "custody:deposit"
	TypeWithdrawal = "custody:withdrawal"
)

// taskPayload carries only the journal id. The journal entry is the source
// of truth for what to move.
type taskPayload struct {
	ID string `json:"id"`
}

// NewDepositTask builds the queue task executing a journaled deposit.
func NewDepositTask(id uuid.UUID) (*asynq.Task, error) {
	return newTask(TypeDeposit, id)
}

// NewWithdrawalTask builds the queue task executing a journaled withdrawal.
func NewWithdrawalTask(id uuid.UUID) (*asynq.Task, error) {
	return newTask(TypeWithdrawal, id)
}

func newTask(typename string, id uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(taskPayload{ID: id.String()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task payload: %w", err)
	}
	return asynq.NewTask(typename, payload), nil
}

// EnqueueOptions returns the options every transfer task is enqueued with.
// Transfers are never retried, and the task id pins one queue entry per
// journal entry.
func EnqueueOptions(id uuid.UUID) []asynq.Option {
	return []asynq.Option{
		asynq.Queue(QueueName),
		asynq.TaskID(id.String()),
		asynq.MaxRetry(0),
	}
}
