package evm

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

type signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
}

func newSigner(hexKey string, chainID *big.Int) (*signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse custody key: %w", err)
	}
	return &signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: chainID,
	}, nil
}

// signedTransaction builds and signs a dynamic fee transaction from the
// custody account. Gas is estimated against the pending state, so a call
// the account cannot fund fails here instead of on chain.
func (s *signer) signedTransaction(ctx context.Context, rpc *ethclient.Client, to *common.Address, value *big.Int, data []byte) (*types.Transaction, error) {
	nonce, err := rpc.PendingNonceAt(ctx, s.address)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nonce for %s: %w", s.address, err)
	}
	gas, err := rpc.EstimateGas(ctx, ethereum.CallMsg{From: s.address, To: to, Value: value, Data: data})
	if err != nil {
		return nil, fmt.Errorf("failed to estimate gas: %w", err)
	}
	tip, err := rpc.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch gas tip cap: %w", err)
	}
	head, err := rpc.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chain head: %w", err)
	}
	feeCap := new(big.Int).Set(tip)
	if head.BaseFee != nil {
		feeCap.Add(feeCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        to,
		Value:     value,
		Data:      data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signed, nil
}
