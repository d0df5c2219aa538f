package wei

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eth(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad literal " + s)
	}
	return v
}

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   *big.Int
		wantOK bool
	}{
		{name: "one ether", input: "1", want: eth("1000000000000000000"), wantOK: true},
		{name: "one ether with decimal", input: "1.0", want: eth("1000000000000000000"), wantOK: true},
		{name: "five and a half", input: "5.5", want: eth("5500000000000000000"), wantOK: true},
		{name: "small valuation", input: "0.001", want: eth("1000000000000000"), wantOK: true},
		{name: "bare fraction", input: ".5", want: eth("500000000000000000"), wantOK: true},
		{name: "one wei", input: "0.000000000000000001", want: big.NewInt(1), wantOK: true},
		{name: "truncates past 18 decimals", input: "1.0000000000000000019", want: eth("1000000000000000001"), wantOK: true},
		{name: "empty", input: "", wantOK: false},
		{name: "negative", input: "-1", wantOK: false},
		{name: "not a number", input: "abc", wantOK: false},
		{name: "two points", input: "1.2.3", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.input)
			if !tt.wantOK {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, 0, tt.want.Cmp(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name   string
		amount *big.Int
		want   string
	}{
		{name: "nil", amount: nil, want: "0.0"},
		{name: "zero", amount: big.NewInt(0), want: "0.0"},
		{name: "one ether", amount: eth("1000000000000000000"), want: "1.0"},
		{name: "five and a half", amount: eth("5500000000000000000"), want: "5.5"},
		{name: "one wei", amount: big.NewInt(1), want: "0.000000000000000001"},
		{name: "thousandth", amount: eth("1000000000000000"), want: "0.001"},
		{name: "large", amount: eth("1234567000000000000000"), want: "1234.567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.amount))
		})
	}
}

// Valuations entered as decimal strings must survive the trip through
// wei and come back unchanged.
func TestRoundTrip(t *testing.T) {
	for _, s := range []string{"5.5", "1.0", "0.001", "1234.567"} {
		parsed, ok := Parse(s)
		require.True(t, ok, s)
		assert.Equal(t, s, Format(parsed))
	}
}
