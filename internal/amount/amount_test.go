package amount

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "zero", input: "0", want: "0"},
		{name: "plain", input: "12345", want: "12345"},
		{name: "uint256 scale", input: "115792089237316195423570985008687907853269984665640564039457584007913129639935", want: "115792089237316195423570985008687907853269984665640564039457584007913129639935"},
		{name: "empty", input: "", wantErr: true},
		{name: "negative", input: "-1", wantErr: true},
		{name: "explicit plus", input: "+1", wantErr: true},
		{name: "decimal point", input: "1.5", wantErr: true},
		{name: "hex", input: "0x10", wantErr: true},
		{name: "garbage", input: "ten", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseQuantity(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, q.String())
		})
	}
}

func TestToBaseUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals int
		want     string
		wantErr  bool
	}{
		{name: "whole", amount: "10", decimals: 6, want: "10000000"},
		{name: "fractional", amount: "1.5", decimals: 18, want: "1500000000000000000"},
		{name: "full precision", amount: "0.000001", decimals: 6, want: "1"},
		{name: "no leading zero", amount: ".5", decimals: 2, want: "50"},
		{name: "zero", amount: "0", decimals: 18, want: "0"},
		{name: "zero decimals", amount: "42", decimals: 0, want: "42"},
		{name: "empty", amount: "", decimals: 6, wantErr: true},
		{name: "negative", amount: "-1", decimals: 6, wantErr: true},
		{name: "excess precision", amount: "0.0000001", decimals: 6, wantErr: true},
		{name: "two points", amount: "1.2.3", decimals: 6, wantErr: true},
		{name: "bare point", amount: ".", decimals: 6, wantErr: true},
		{name: "not a number", amount: "abc", decimals: 6, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToBaseUnits(tt.amount, tt.decimals)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got.String())
		})
	}
}

func TestFromBaseUnits(t *testing.T) {
	tests := []struct {
		name     string
		quantity *big.Int
		decimals int
		want     string
	}{
		{name: "whole", quantity: big.NewInt(10000000), decimals: 6, want: "10"},
		{name: "fractional", quantity: big.NewInt(1500000), decimals: 6, want: "1.5"},
		{name: "sub unit", quantity: big.NewInt(1), decimals: 6, want: "0.000001"},
		{name: "zero", quantity: big.NewInt(0), decimals: 18, want: "0"},
		{name: "nil", quantity: nil, decimals: 18, want: "0"},
		{name: "zero decimals", quantity: big.NewInt(42), decimals: 0, want: "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, FromBaseUnits(tt.quantity, tt.decimals))
		})
	}
}

func TestBaseUnitsRoundTrip(t *testing.T) {
	q, err := ToBaseUnits("123.456789", 18)
	require.NoError(t, err)
	require.Equal(t, "123.456789", FromBaseUnits(q, 18))
}
