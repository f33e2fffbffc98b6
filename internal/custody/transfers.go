package custody

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/idexio/idex-contracts/internal/asset"
)

// Indicator is the success signal a token contract reports from a mutating
// call. Token conventions disagree on whether such a call returns a boolean
// at all, so the absent case is first-class rather than folded into false.
type Indicator uint8

const (
	// IndicatorNone means the call completed but returned no signal.
	IndicatorNone Indicator = iota
	// IndicatorFalse means the contract explicitly reported failure.
	IndicatorFalse
	// IndicatorTrue means the contract explicitly reported success.
	IndicatorTrue
)

func (i Indicator) String() string {
	switch i {
	case IndicatorFalse:
		return "false"
	case IndicatorTrue:
		return "true"
	default:
		return "none"
	}
}

// TokenContract is the capability required from a token binding. A mutating
// call that aborts is reported as a non-nil error; a call that completes
// reports whatever the contract returned. None of it is taken at face
// value: Transfers corroborates every mutation against BalanceOf.
type TokenContract interface {
	BalanceOf(ctx context.Context, holder common.Address) (*big.Int, error)
	Transfer(ctx context.Context, to common.Address, quantity *big.Int) (Indicator, error)
	TransferFrom(ctx context.Context, from, to common.Address, quantity *big.Int) (Indicator, error)
}

// TokenSource resolves a token contract address to its binding.
type TokenSource interface {
	Token(contract common.Address) TokenContract
}

// NativeSender pushes native currency out of custody. Implementations must
// return a non-nil error unless the value verifiably reached the recipient.
type NativeSender interface {
	SendValue(ctx context.Context, to common.Address, quantity *big.Int) error
}

// Transfers moves value between custody and external holders without
// trusting the asset contract's account of what happened. Every token
// movement is admitted only when the recipient's observed balance grew by
// exactly the requested quantity; anything else fails the operation.
//
// Transfers holds no state and takes no locks. The caller must keep other
// balance-affecting operations on the same (holder, asset) pair from
// interleaving with a call, and must treat a failure as aborting the
// enclosing operation: a reported error means no value may be credited.
type Transfers struct {
	tokens  TokenSource
	native  NativeSender
	custody common.Address
}

// NewTransfers returns a Transfers operating the given custody address.
func NewTransfers(tokens TokenSource, native NativeSender, custody common.Address) *Transfers {
	return &Transfers{
		tokens:  tokens,
		native:  native,
		custody: custody,
	}
}

// PullIn moves quantity of a token asset from source into custody. The
// source must have authorized the movement with the token contract
// beforehand; no approval is initiated here.
//
// Native currency never routes through PullIn. A native inflow arrives
// attached to the triggering call itself, so asking to pull the native
// asset is caller misuse and fails without touching anything.
//
// A nil return guarantees custody's balance grew by exactly quantity. Any
// error means the operation must be abandoned: ErrExternalCallReverted,
// ErrTransferRejected and ErrBalanceMismatch classify the contract's
// behavior, and an unclassified error means the verification itself could
// not be carried out.
func (t *Transfers) PullIn(ctx context.Context, source common.Address, a asset.Asset, quantity *big.Int) error {
	if err := checkQuantity(quantity); err != nil {
		return err
	}
	if a.IsNative() {
		return fmt.Errorf("native currency arrives with the enclosing call and cannot be pulled")
	}

	token := t.tokens.Token(a.Contract())
	before, err := token.BalanceOf(ctx, t.custody)
	if err != nil {
		return fmt.Errorf("failed to read custody balance of %s: %w", a, err)
	}

	indicator, err := token.TransferFrom(ctx, source, t.custody, quantity)
	if err != nil {
		// The call aborted, so there is no post state worth reading.
		return fmt.Errorf("%w: transferFrom on %s: %v", ErrExternalCallReverted, a, err)
	}
	if indicator != IndicatorTrue {
		return fmt.Errorf("%w: transferFrom on %s returned %s", ErrTransferRejected, a, indicator)
	}

	return t.verifyDelta(ctx, token, a, t.custody, before, quantity)
}

// PushOut moves quantity of an asset from custody to destination.
//
// For the native asset the send primitive is the sole authority: a failure
// is reported as ErrNativeTransferFailed and no balance check is performed.
// For token assets the destination's balance is corroborated exactly as in
// PullIn, with the same classification.
func (t *Transfers) PushOut(ctx context.Context, destination common.Address, a asset.Asset, quantity *big.Int) error {
	if err := checkQuantity(quantity); err != nil {
		return err
	}

	if a.IsNative() {
		if err := t.native.SendValue(ctx, destination, quantity); err != nil {
			return fmt.Errorf("%w: send %s to %s: %v", ErrNativeTransferFailed, quantity, destination, err)
		}
		return nil
	}

	token := t.tokens.Token(a.Contract())
	before, err := token.BalanceOf(ctx, destination)
	if err != nil {
		return fmt.Errorf("failed to read %s balance of %s: %w", a, destination, err)
	}

	indicator, err := token.Transfer(ctx, destination, quantity)
	if err != nil {
		return fmt.Errorf("%w: transfer on %s: %v", ErrExternalCallReverted, a, err)
	}
	if indicator != IndicatorTrue {
		return fmt.Errorf("%w: transfer on %s returned %s", ErrTransferRejected, a, indicator)
	}

	return t.verifyDelta(ctx, token, a, destination, before, quantity)
}

// verifyDelta re-reads the recipient's balance and admits the transfer only
// when it grew by exactly the requested quantity.
func (t *Transfers) verifyDelta(ctx context.Context, token TokenContract, a asset.Asset, recipient common.Address, before, quantity *big.Int) error {
	after, err := token.BalanceOf(ctx, recipient)
	if err != nil {
		return fmt.Errorf("failed to re-read %s balance of %s: %w", a, recipient, err)
	}
	delta := new(big.Int).Sub(after, before)
	if delta.Cmp(quantity) != 0 {
		return fmt.Errorf("%w: asset=%s recipient=%s requested=%s observed=%s", ErrBalanceMismatch, a, recipient, quantity, delta)
	}
	return nil
}

// checkQuantity rejects quantities the operations are undefined for. Zero
// is permitted: a zero-quantity transfer is verified like any other.
func checkQuantity(quantity *big.Int) error {
	if quantity == nil {
		return fmt.Errorf("quantity must not be nil")
	}
	if quantity.Sign() < 0 {
		return fmt.Errorf("quantity must not be negative, got %s", quantity)
	}
	return nil
}
