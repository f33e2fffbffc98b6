package settlement

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// accountLocks serializes transfer execution per account. The balance
// verification underneath assumes no interleaving of operations on the same
// holdings, and the journal balance check must stay atomic with the push
// that spends it.
type accountLocks struct {
	mu    sync.Mutex
	locks map[common.Address]*sync.Mutex
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: map[common.Address]*sync.Mutex{}}
}

// lock acquires the account's mutex and returns its release.
func (l *accountLocks) lock(account common.Address) func() {
	l.mu.Lock()
	m, ok := l.locks[account]
	if !ok {
		m = &sync.Mutex{}
		l.locks[account] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
