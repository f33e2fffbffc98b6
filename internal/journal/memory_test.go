package journal

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/idexio/idex-contracts/internal/asset"
)

var (
	testAccount = common.HexToAddress("0x2000000000000000000000000000000000000002")
	testDest    = common.HexToAddress("0x3000000000000000000000000000000000000003")
)

func testEntry(t *testing.T, direction Direction, quantity int64) Entry {
	t.Helper()
	a, err := asset.Token(common.HexToAddress("0x4000000000000000000000000000000000000004"))
	require.NoError(t, err)
	now := time.Now().UTC()
	return Entry{
		ID:          uuid.New(),
		Direction:   direction,
		Account:     testAccount,
		Destination: testDest,
		Asset:       a,
		Quantity:    big.NewInt(quantity),
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestMemoryRepoCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	entry := testEntry(t, DirectionDeposit, 100)

	require.NoError(t, repo.Create(ctx, entry))

	got, err := repo.Get(ctx, entry.ID)
	require.NoError(t, err)
	require.Equal(t, entry, got)

	require.Error(t, repo.Create(ctx, entry), "duplicate id")

	_, err = repo.Get(ctx, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepoGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	entry := testEntry(t, DirectionDeposit, 100)
	require.NoError(t, repo.Create(ctx, entry))

	got, err := repo.Get(ctx, entry.ID)
	require.NoError(t, err)
	got.Quantity.SetInt64(999)

	again, err := repo.Get(ctx, entry.ID)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(100), again.Quantity)
}

func TestMemoryRepoConclude(t *testing.T) {
	ctx := context.Background()

	t.Run("verify", func(t *testing.T) {
		repo := NewMemoryRepo()
		entry := testEntry(t, DirectionDeposit, 100)
		require.NoError(t, repo.Create(ctx, entry))

		require.NoError(t, repo.MarkVerified(ctx, entry.ID))
		got, err := repo.Get(ctx, entry.ID)
		require.NoError(t, err)
		require.Equal(t, StatusVerified, got.Status)
		require.Empty(t, got.Reason)
	})

	t.Run("fail with reason", func(t *testing.T) {
		repo := NewMemoryRepo()
		entry := testEntry(t, DirectionDeposit, 100)
		require.NoError(t, repo.Create(ctx, entry))

		require.NoError(t, repo.MarkFailed(ctx, entry.ID, "balance_mismatch"))
		got, err := repo.Get(ctx, entry.ID)
		require.NoError(t, err)
		require.Equal(t, StatusFailed, got.Status)
		require.Equal(t, "balance_mismatch", got.Reason)
	})

	t.Run("concluded entries are immutable", func(t *testing.T) {
		repo := NewMemoryRepo()
		entry := testEntry(t, DirectionDeposit, 100)
		require.NoError(t, repo.Create(ctx, entry))
		require.NoError(t, repo.MarkVerified(ctx, entry.ID))

		require.Error(t, repo.MarkFailed(ctx, entry.ID, "rejected"))
		require.Error(t, repo.MarkVerified(ctx, entry.ID))
	})

	t.Run("missing entry", func(t *testing.T) {
		repo := NewMemoryRepo()
		require.ErrorIs(t, repo.MarkVerified(ctx, uuid.New()), ErrNotFound)
	})
}

func TestMemoryRepoBalanceOf(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()

	deposit := testEntry(t, DirectionDeposit, 100)
	require.NoError(t, repo.Create(ctx, deposit))
	require.NoError(t, repo.MarkVerified(ctx, deposit.ID))

	withdrawal := testEntry(t, DirectionWithdrawal, 30)
	require.NoError(t, repo.Create(ctx, withdrawal))
	require.NoError(t, repo.MarkVerified(ctx, withdrawal.ID))

	pending := testEntry(t, DirectionDeposit, 1000)
	require.NoError(t, repo.Create(ctx, pending))

	failed := testEntry(t, DirectionDeposit, 1000)
	require.NoError(t, repo.Create(ctx, failed))
	require.NoError(t, repo.MarkFailed(ctx, failed.ID, "rejected"))

	balance, err := repo.BalanceOf(ctx, testAccount, deposit.Asset)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(70), balance, "only verified entries count")

	balance, err = repo.BalanceOf(ctx, testAccount, asset.Native())
	require.NoError(t, err)
	require.Equal(t, big.NewInt(0), balance, "balances are per asset")

	balance, err = repo.BalanceOf(ctx, testDest, deposit.Asset)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(0), balance, "balances are per account")
}

func TestMemoryRepoStalePending(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()

	old := testEntry(t, DirectionDeposit, 10)
	old.CreatedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, repo.Create(ctx, old))

	older := testEntry(t, DirectionWithdrawal, 20)
	older.CreatedAt = time.Now().UTC().Add(-2 * time.Hour)
	require.NoError(t, repo.Create(ctx, older))

	fresh := testEntry(t, DirectionDeposit, 30)
	require.NoError(t, repo.Create(ctx, fresh))

	concluded := testEntry(t, DirectionDeposit, 40)
	concluded.CreatedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, repo.Create(ctx, concluded))
	require.NoError(t, repo.MarkVerified(ctx, concluded.ID))

	stale, err := repo.StalePending(ctx, 10*time.Minute)
	require.NoError(t, err)
	require.Len(t, stale, 2, "only pending entries past the cutoff are stale")
	require.Equal(t, older.ID, stale[0].ID, "oldest first")
	require.Equal(t, old.ID, stale[1].ID)

	stale, err = repo.StalePending(ctx, 3*time.Hour)
	require.NoError(t, err)
	require.Empty(t, stale)
}
