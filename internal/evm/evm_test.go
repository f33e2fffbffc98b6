package evm

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/idexio/idex-contracts/internal/custody"
)

func TestPackCalldata(t *testing.T) {
	binding, err := newERC20Binding()
	require.NoError(t, err)

	holder := common.HexToAddress("0x2000000000000000000000000000000000000002")
	recipient := common.HexToAddress("0x3000000000000000000000000000000000000003")

	t.Run("balanceOf", func(t *testing.T) {
		data, err := binding.packBalanceOf(holder)
		require.NoError(t, err)
		require.Len(t, data, 4+32)
		require.Equal(t, []byte{0x70, 0xa0, 0x82, 0x31}, data[:4])
		require.Equal(t, holder.Bytes(), data[4+12:])
	})

	t.Run("transfer", func(t *testing.T) {
		data, err := binding.packTransfer(recipient, big.NewInt(100))
		require.NoError(t, err)
		require.Len(t, data, 4+32+32)
		require.Equal(t, []byte{0xa9, 0x05, 0x9c, 0xbb}, data[:4])
	})

	t.Run("transferFrom", func(t *testing.T) {
		data, err := binding.packTransferFrom(holder, recipient, big.NewInt(100))
		require.NoError(t, err)
		require.Len(t, data, 4+32+32+32)
		require.Equal(t, []byte{0x23, 0xb8, 0x72, 0xdd}, data[:4])
	})
}

func TestUnpackBalanceOf(t *testing.T) {
	binding, err := newERC20Binding()
	require.NoError(t, err)

	word := common.LeftPadBytes(big.NewInt(123456789).Bytes(), 32)
	balance, err := binding.unpackBalanceOf(word)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(123456789), balance)

	_, err = binding.unpackBalanceOf([]byte{0x01})
	require.Error(t, err, "truncated return data")
}

func TestIndicatorFromReturn(t *testing.T) {
	trueWord := common.LeftPadBytes(big.NewInt(1).Bytes(), 32)
	falseWord := make([]byte, 32)

	tests := []struct {
		name string
		data []byte
		want custody.Indicator
	}{
		{name: "no return data", data: nil, want: custody.IndicatorNone},
		{name: "empty return data", data: []byte{}, want: custody.IndicatorNone},
		{name: "canonical true", data: trueWord, want: custody.IndicatorTrue},
		{name: "canonical false", data: falseWord, want: custody.IndicatorFalse},
		{name: "nonzero word is true", data: common.LeftPadBytes(big.NewInt(7).Bytes(), 32), want: custody.IndicatorTrue},
		{name: "short nonzero data is true", data: []byte{0x01}, want: custody.IndicatorTrue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, indicatorFromReturn(tt.data))
		})
	}
}

func TestNewSigner(t *testing.T) {
	// Well-known development key, account zero of the usual local chains.
	const devKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

	s, err := newSigner(devKey, big.NewInt(1))
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), s.address)

	withPrefix, err := newSigner("0x"+devKey, big.NewInt(1))
	require.NoError(t, err)
	require.Equal(t, s.address, withPrefix.address)

	_, err = newSigner("not-a-key", big.NewInt(1))
	require.Error(t, err)
}
