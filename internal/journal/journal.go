package journal

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/idexio/idex-contracts/internal/asset"
)

type Direction string

const (
	DirectionDeposit    Direction = "deposit"
	DirectionWithdrawal Direction = "withdrawal"
)

type Status string

const (
	// StatusPending marks an accepted transfer that has not been executed.
	StatusPending Status = "pending"
	// StatusVerified marks a transfer whose movement was corroborated.
	StatusVerified Status = "verified"
	// StatusFailed marks a transfer that was abandoned. Reason carries the
	// failure label.
	StatusFailed Status = "failed"
)

// ErrNotFound is returned when no entry exists for an id.
var ErrNotFound = errors.New("transfer not found")

// Entry is one requested transfer and its outcome. Verified entries are the
// balance book: an account's balance in an asset is the sum of its verified
// deposits minus its verified withdrawals. Entries never leave the failed
// or verified state once concluded.
type Entry struct {
	ID          uuid.UUID
	Direction   Direction
	Account     common.Address
	Destination common.Address // zero for deposits
	Asset       asset.Asset
	Quantity    *big.Int
	Status      Status
	Reason      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Repo interface {
	Create(ctx context.Context, entry Entry) error
	Get(ctx context.Context, id uuid.UUID) (Entry, error)
	MarkVerified(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	BalanceOf(ctx context.Context, account common.Address, a asset.Asset) (*big.Int, error)
	StalePending(ctx context.Context, olderThan time.Duration) ([]Entry, error)
}
