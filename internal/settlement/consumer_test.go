package settlement

import (
	"context"
	"io"
	"math/big"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/idexio/idex-contracts/internal/journal"
)

func newTestConsumer(t *testing.T) (*Consumer, *testEnv) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	env := newTestEnv(t)
	return NewConsumer(logger, env.engine), env
}

func TestConsumerHandleDeposit(t *testing.T) {
	ctx := context.Background()
	consumer, env := newTestConsumer(t)
	require.NoError(t, env.ledger.Mint(daiAddr, aliceAddr, big.NewInt(100)))
	require.NoError(t, env.ledger.Approve(daiAddr, aliceAddr, custodyAddr, big.NewInt(100)))
	entry := env.journalPending(t, journal.DirectionDeposit, daiAsset(t), 100)

	task, err := NewDepositTask(entry.ID)
	require.NoError(t, err)
	require.Equal(t, TypeDeposit, task.Type())

	require.NoError(t, consumer.HandleDeposit(ctx, task))

	status, _ := env.entryStatus(t, entry.ID)
	require.Equal(t, journal.StatusVerified, status)
}

func TestConsumerHandleWithdrawalFailureIsTerminal(t *testing.T) {
	ctx := context.Background()
	consumer, env := newTestConsumer(t)
	entry := env.journalPending(t, journal.DirectionWithdrawal, daiAsset(t), 10)

	task, err := NewWithdrawalTask(entry.ID)
	require.NoError(t, err)
	require.Equal(t, TypeWithdrawal, task.Type())

	err = consumer.HandleWithdrawal(ctx, task)
	require.ErrorIs(t, err, asynq.SkipRetry, "failed transfers are not requeued")

	status, reason := env.entryStatus(t, entry.ID)
	require.Equal(t, journal.StatusFailed, status)
	require.Equal(t, "insufficient_balance", reason)
}

func TestConsumerRejectsMalformedTask(t *testing.T) {
	ctx := context.Background()
	consumer, _ := newTestConsumer(t)

	err := consumer.HandleDeposit(ctx, asynq.NewTask(TypeDeposit, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)

	err = consumer.HandleDeposit(ctx, asynq.NewTask(TypeDeposit, []byte(`{"id":"not-a-uuid"}`)))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestEnqueueOptionsPinTaskIdentity(t *testing.T) {
	id := uuid.New()
	opts := EnqueueOptions(id)
	require.Len(t, opts, 3)
}
