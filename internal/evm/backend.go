package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/idexio/idex-contracts/internal/custody"
)

// Backend adapts a chain reachable over JSON-RPC to the custody capability
// interfaces. Mutating calls are simulated first to capture the contract's
// return data, then submitted and awaited; the mined receipt decides
// whether the call counts as completed.
type Backend struct {
	rpc    *ethclient.Client
	signer *signer
	erc20  *erc20Binding
}

// Dial connects to the RPC endpoint and binds the custody key. The chain id
// is taken from the node.
func Dial(ctx context.Context, rpcURL, custodyKeyHex string) (*Backend, error) {
	rpc, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc %s: %w", rpcURL, err)
	}
	chainID, err := rpc.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chain id: %w", err)
	}
	sgn, err := newSigner(custodyKeyHex, chainID)
	if err != nil {
		return nil, err
	}
	binding, err := newERC20Binding()
	if err != nil {
		return nil, err
	}
	return &Backend{rpc: rpc, signer: sgn, erc20: binding}, nil
}

// CustodyAddress is the address derived from the custody key. It receives
// pulled tokens and funds outbound sends.
func (b *Backend) CustodyAddress() common.Address {
	return b.signer.address
}

// Token returns the custody account's binding to a token contract.
func (b *Backend) Token(contract common.Address) custody.TokenContract {
	return &token{backend: b, contract: contract}
}

// SendValue moves native currency from custody to the recipient. Gas
// estimation, broadcast and the receipt status all gate success.
func (b *Backend) SendValue(ctx context.Context, to common.Address, quantity *big.Int) error {
	tx, err := b.signer.signedTransaction(ctx, b.rpc, &to, quantity, nil)
	if err != nil {
		return err
	}
	if err := b.rpc.SendTransaction(ctx, tx); err != nil {
		return fmt.Errorf("failed to broadcast native send: %w", err)
	}
	receipt, err := waitMined(ctx, b.rpc, tx.Hash())
	if err != nil {
		return fmt.Errorf("failed while awaiting native send %s: %w", tx.Hash(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("native send %s reverted on chain", tx.Hash())
	}
	return nil
}
