package evm

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/idexio/idex-contracts/internal/custody"
)

// erc20ABI is the token surface custody calls.
const erc20ABI = `[
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"holder","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"quantity","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"transferFrom","stateMutability":"nonpayable","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"quantity","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

type erc20Binding struct {
	abi abi.ABI
}

func newERC20Binding() (*erc20Binding, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token abi: %w", err)
	}
	return &erc20Binding{abi: parsed}, nil
}

func (b *erc20Binding) packBalanceOf(holder common.Address) ([]byte, error) {
	data, err := b.abi.Pack("balanceOf", holder)
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf: %w", err)
	}
	return data, nil
}

func (b *erc20Binding) unpackBalanceOf(data []byte) (*big.Int, error) {
	out, err := b.abi.Unpack("balanceOf", data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack balanceOf return: %w", err)
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf return type %T", out[0])
	}
	return balance, nil
}

func (b *erc20Binding) packTransfer(to common.Address, quantity *big.Int) ([]byte, error) {
	data, err := b.abi.Pack("transfer", to, quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to pack transfer: %w", err)
	}
	return data, nil
}

func (b *erc20Binding) packTransferFrom(from, to common.Address, quantity *big.Int) ([]byte, error) {
	data, err := b.abi.Pack("transferFrom", from, to, quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to pack transferFrom: %w", err)
	}
	return data, nil
}

// indicatorFromReturn reads the success signal out of raw return data.
// Legacy tokens return nothing from transfer, which must stay visible as
// the absence of a signal rather than be mistaken for either boolean, so
// the data is decoded by hand instead of through the ABI.
func indicatorFromReturn(data []byte) custody.Indicator {
	if len(data) == 0 {
		return custody.IndicatorNone
	}
	if new(big.Int).SetBytes(data).Sign() != 0 {
		return custody.IndicatorTrue
	}
	return custody.IndicatorFalse
}
