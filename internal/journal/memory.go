package journal

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/idexio/idex-contracts/internal/asset"
)

// MemoryRepo keeps the journal in process memory. It backs tests and the
// ledger-mode binaries.
type MemoryRepo struct {
	mu      sync.Mutex
	entries map[uuid.UUID]Entry
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{entries: map[uuid.UUID]Entry{}}
}

func (r *MemoryRepo) Create(_ context.Context, entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[entry.ID]; ok {
		return fmt.Errorf("transfer %s already exists", entry.ID)
	}
	r.entries[entry.ID] = copyEntry(entry)
	return nil
}

func (r *MemoryRepo) Get(_ context.Context, id uuid.UUID) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return copyEntry(entry), nil
}

func (r *MemoryRepo) MarkVerified(_ context.Context, id uuid.UUID) error {
	return r.conclude(id, StatusVerified, "")
}

func (r *MemoryRepo) MarkFailed(_ context.Context, id uuid.UUID, reason string) error {
	return r.conclude(id, StatusFailed, reason)
}

func (r *MemoryRepo) conclude(id uuid.UUID, status Status, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if entry.Status != StatusPending {
		return fmt.Errorf("transfer %s is already %s", id, entry.Status)
	}
	entry.Status = status
	entry.Reason = reason
	entry.UpdatedAt = time.Now().UTC()
	r.entries[id] = entry
	return nil
}

func (r *MemoryRepo) StalePending(_ context.Context, olderThan time.Duration) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().UTC().Add(-olderThan)
	var stale []Entry
	for _, entry := range r.entries {
		if entry.Status == StatusPending && entry.CreatedAt.Before(cutoff) {
			stale = append(stale, copyEntry(entry))
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].CreatedAt.Before(stale[j].CreatedAt) })
	return stale, nil
}

// Entries returns a snapshot of every journaled transfer.
func (r *MemoryRepo) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		entries = append(entries, copyEntry(entry))
	}
	return entries
}

func (r *MemoryRepo) BalanceOf(_ context.Context, account common.Address, a asset.Asset) (*big.Int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	balance := big.NewInt(0)
	for _, entry := range r.entries {
		if entry.Status != StatusVerified || entry.Account != account || entry.Asset != a {
			continue
		}
		if entry.Direction == DirectionWithdrawal {
			balance.Sub(balance, entry.Quantity)
		} else {
			balance.Add(balance, entry.Quantity)
		}
	}
	return balance, nil
}

func copyEntry(entry Entry) Entry {
	if entry.Quantity != nil {
		entry.Quantity = new(big.Int).Set(entry.Quantity)
	}
	return entry
}
