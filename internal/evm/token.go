package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/idexio/idex-contracts/internal/custody"
)

// token binds one contract address to the custody account.
type token struct {
	backend  *Backend
	contract common.Address
}

func (t *token) BalanceOf(ctx context.Context, holder common.Address) (*big.Int, error) {
	data, err := t.backend.erc20.packBalanceOf(holder)
	if err != nil {
		return nil, err
	}
	ret, err := t.backend.rpc.CallContract(ctx, ethereum.CallMsg{To: &t.contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call balanceOf on %s: %w", t.contract, err)
	}
	return t.backend.erc20.unpackBalanceOf(ret)
}

func (t *token) Transfer(ctx context.Context, to common.Address, quantity *big.Int) (custody.Indicator, error) {
	data, err := t.backend.erc20.packTransfer(to, quantity)
	if err != nil {
		return custody.IndicatorNone, err
	}
	return t.execute(ctx, data)
}

func (t *token) TransferFrom(ctx context.Context, from, to common.Address, quantity *big.Int) (custody.Indicator, error) {
	data, err := t.backend.erc20.packTransferFrom(from, to, quantity)
	if err != nil {
		return custody.IndicatorNone, err
	}
	return t.execute(ctx, data)
}

// execute runs a mutating call. A simulation from the custody address
// captures the contract's return data and surfaces reverts before anything
// is spent; the calldata is then submitted for real and the mined receipt
// has the final say on whether the call completed.
func (t *token) execute(ctx context.Context, calldata []byte) (custody.Indicator, error) {
	msg := ethereum.CallMsg{From: t.backend.signer.address, To: &t.contract, Data: calldata}
	ret, err := t.backend.rpc.CallContract(ctx, msg, nil)
	if err != nil {
		return custody.IndicatorNone, fmt.Errorf("call to %s reverted: %w", t.contract, err)
	}

	tx, err := t.backend.signer.signedTransaction(ctx, t.backend.rpc, &t.contract, nil, calldata)
	if err != nil {
		return custody.IndicatorNone, err
	}
	if err := t.backend.rpc.SendTransaction(ctx, tx); err != nil {
		return custody.IndicatorNone, fmt.Errorf("failed to broadcast call to %s: %w", t.contract, err)
	}
	receipt, err := waitMined(ctx, t.backend.rpc, tx.Hash())
	if err != nil {
		return custody.IndicatorNone, fmt.Errorf("failed while awaiting %s: %w", tx.Hash(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return custody.IndicatorNone, fmt.Errorf("transaction %s reverted on chain", tx.Hash())
	}
	return indicatorFromReturn(ret), nil
}
