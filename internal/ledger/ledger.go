package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/idexio/idex-contracts/internal/custody"
)

// ErrUnknownToken is returned when a token contract was never registered.
// It plays the role of a call to an address with no contract behind it.
var ErrUnknownToken = errors.New("unknown token contract")

// Ledger is an in-process asset backend: a native balance book plus
// fungible token books with transfer and allowance semantics. Tokens are
// well-behaved here, so it serves as the reference backend for tests and
// for running the binaries without a chain.
type Ledger struct {
	mu     sync.Mutex
	native map[common.Address]*big.Int
	tokens map[common.Address]*book
}

type book struct {
	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int // owner -> spender -> remaining
}

func New() *Ledger {
	return &Ledger{
		native: map[common.Address]*big.Int{},
		tokens: map[common.Address]*book{},
	}
}

// RegisterToken creates an empty book for a token contract.
func (l *Ledger) RegisterToken(contract common.Address) error {
	if contract == (common.Address{}) {
		return fmt.Errorf("zero address cannot be a token contract")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.tokens[contract]; ok {
		return fmt.Errorf("token %s already registered", contract)
	}
	l.tokens[contract] = &book{
		balances:   map[common.Address]*big.Int{},
		allowances: map[common.Address]map[common.Address]*big.Int{},
	}
	return nil
}

// Mint credits freshly created token units to a holder.
func (l *Ledger) Mint(contract, holder common.Address, quantity *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.tokens[contract]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownToken, contract)
	}
	b.credit(holder, quantity)
	return nil
}

// MintNative credits freshly created native currency to a holder.
func (l *Ledger) MintNative(holder common.Address, quantity *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.native[holder] = new(big.Int).Add(balanceIn(l.native, holder), quantity)
}

// Approve lets spender move up to quantity of owner's tokens, replacing any
// previous allowance.
func (l *Ledger) Approve(contract, owner, spender common.Address, quantity *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.tokens[contract]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownToken, contract)
	}
	byOwner, ok := b.allowances[owner]
	if !ok {
		byOwner = map[common.Address]*big.Int{}
		b.allowances[owner] = byOwner
	}
	byOwner[spender] = new(big.Int).Set(quantity)
	return nil
}

// NativeBalance returns a holder's native currency balance.
func (l *Ledger) NativeBalance(holder common.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(balanceIn(l.native, holder))
}

// Balance returns a holder's balance on a token book.
func (l *Ledger) Balance(contract, holder common.Address) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.tokens[contract]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownToken, contract)
	}
	return new(big.Int).Set(b.balance(holder)), nil
}

// Source binds the ledger to an operator address. The returned Source acts
// as that operator: token transfers debit it and transferFrom spends
// allowances granted to it, mirroring how a chain sees the custody account.
func (l *Ledger) Source(operator common.Address) *Source {
	return &Source{ledger: l, operator: operator}
}

// Source implements the custody capability interfaces over a Ledger.
type Source struct {
	ledger   *Ledger
	operator common.Address
}

// Token returns the operator's binding to a token contract.
func (s *Source) Token(contract common.Address) custody.TokenContract {
	return &tokenBinding{ledger: s.ledger, contract: contract, operator: s.operator}
}

// SendValue moves native currency from the operator to the recipient.
func (s *Source) SendValue(_ context.Context, to common.Address, quantity *big.Int) error {
	l := s.ledger
	l.mu.Lock()
	defer l.mu.Unlock()
	from := balanceIn(l.native, s.operator)
	if from.Cmp(quantity) < 0 {
		return fmt.Errorf("native balance %s below requested %s", from, quantity)
	}
	l.native[s.operator] = new(big.Int).Sub(from, quantity)
	l.native[to] = new(big.Int).Add(balanceIn(l.native, to), quantity)
	return nil
}

type tokenBinding struct {
	ledger   *Ledger
	contract common.Address
	operator common.Address
}

func (t *tokenBinding) BalanceOf(_ context.Context, holder common.Address) (*big.Int, error) {
	return t.ledger.Balance(t.contract, holder)
}

func (t *tokenBinding) Transfer(_ context.Context, to common.Address, quantity *big.Int) (custody.Indicator, error) {
	l := t.ledger
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.tokens[t.contract]
	if !ok {
		return custody.IndicatorNone, fmt.Errorf("%w: %s", ErrUnknownToken, t.contract)
	}
	if err := b.move(t.operator, to, quantity); err != nil {
		return custody.IndicatorNone, err
	}
	return custody.IndicatorTrue, nil
}

func (t *tokenBinding) TransferFrom(_ context.Context, from, to common.Address, quantity *big.Int) (custody.Indicator, error) {
	l := t.ledger
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.tokens[t.contract]
	if !ok {
		return custody.IndicatorNone, fmt.Errorf("%w: %s", ErrUnknownToken, t.contract)
	}
	remaining := b.allowance(from, t.operator)
	if remaining.Cmp(quantity) < 0 {
		return custody.IndicatorNone, fmt.Errorf("allowance %s below requested %s", remaining, quantity)
	}
	if err := b.move(from, to, quantity); err != nil {
		return custody.IndicatorNone, err
	}
	b.allowances[from][t.operator] = new(big.Int).Sub(remaining, quantity)
	return custody.IndicatorTrue, nil
}

func (b *book) balance(holder common.Address) *big.Int {
	return balanceIn(b.balances, holder)
}

func (b *book) allowance(owner, spender common.Address) *big.Int {
	if byOwner, ok := b.allowances[owner]; ok {
		return balanceIn(byOwner, spender)
	}
	return big.NewInt(0)
}

func (b *book) credit(holder common.Address, quantity *big.Int) {
	b.balances[holder] = new(big.Int).Add(b.balance(holder), quantity)
}

func (b *book) move(from, to common.Address, quantity *big.Int) error {
	have := b.balance(from)
	if have.Cmp(quantity) < 0 {
		return fmt.Errorf("token balance %s below requested %s", have, quantity)
	}
	b.balances[from] = new(big.Int).Sub(have, quantity)
	b.credit(to, quantity)
	return nil
}

func balanceIn(m map[common.Address]*big.Int, holder common.Address) *big.Int {
	if b, ok := m[holder]; ok {
		return b
	}
	return big.NewInt(0)
}
