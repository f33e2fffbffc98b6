package asset

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestToken(t *testing.T) {
	contract := common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")

	a, err := Token(contract)
	require.NoError(t, err)
	require.False(t, a.IsNative())
	require.Equal(t, contract, a.Contract())
	require.Equal(t, "token", a.Kind())

	_, err = Token(common.Address{})
	require.Error(t, err)
}

func TestNative(t *testing.T) {
	a := Native()
	require.True(t, a.IsNative())
	require.Equal(t, common.Address{}, a.Contract())
	require.Equal(t, "native", a.Kind())
	require.Equal(t, "native", a.String())
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		native  bool
		wantErr bool
	}{
		{name: "empty means native", input: "", native: true},
		{name: "native keyword", input: "native", native: true},
		{name: "native keyword uppercase", input: "NATIVE", native: true},
		{name: "zero address means native", input: "0x0000000000000000000000000000000000000000", native: true},
		{name: "token contract", input: "0x6B175474E89094C44Da98b954EedeAC495271d0F", native: false},
		{name: "garbage", input: "not-an-address", wantErr: true},
		{name: "truncated address", input: "0x6B1754", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.native, a.IsNative())
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	a, err := Token(common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"))
	require.NoError(t, err)

	parsed, err := Parse(a.String())
	require.NoError(t, err)
	require.Equal(t, a, parsed)
}
