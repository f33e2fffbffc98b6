package asset

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Asset identifies what is being moved: the chain's native currency or a
// fungible token contract. The zero contract address is reserved as the
// native-currency sentinel and is never a valid token address.
type Asset struct {
	contract common.Address
}

// Native returns the native-currency asset.
func Native() Asset {
	return Asset{}
}

// Token returns the asset for the given token contract. The zero address is
// the native-currency sentinel and is rejected.
func Token(contract common.Address) (Asset, error) {
	if contract == (common.Address{}) {
		return Asset{}, fmt.Errorf("zero address is the native currency sentinel, not a token contract")
	}
	return Asset{contract: contract}, nil
}

// Parse accepts "native", the empty string or the zero address for the
// native currency, and any other hex address for a token contract.
func Parse(s string) (Asset, error) {
	if s == "" || strings.EqualFold(s, "native") {
		return Native(), nil
	}
	if !common.IsHexAddress(s) {
		return Asset{}, fmt.Errorf("invalid asset %q: want \"native\" or a hex contract address", s)
	}
	contract := common.HexToAddress(s)
	if contract == (common.Address{}) {
		return Native(), nil
	}
	return Asset{contract: contract}, nil
}

// IsNative reports whether the asset is the native currency.
func (a Asset) IsNative() bool {
	return a.contract == (common.Address{})
}

// Contract returns the token contract address. It is the zero address for
// the native asset, so callers must check IsNative first.
func (a Asset) Contract() common.Address {
	return a.contract
}

// Kind returns "native" or "token", the label used in journals and metrics.
func (a Asset) Kind() string {
	if a.IsNative() {
		return "native"
	}
	return "token"
}

func (a Asset) String() string {
	if a.IsNative() {
		return "native"
	}
	return strings.ToLower(a.contract.Hex())
}
