package money

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUSDToUSDC(t *testing.T) {
	tests := []struct {
		usd  string
		want string
	}{
		{usd: "9.99", want: "9990000"},
		{usd: "12.5", want: "12500000"},
		{usd: "0", want: "0"},
		{usd: "0.000001", want: "1"},
		{usd: "1000000", want: "1000000000000"},
		// beyond six places rounds half away from zero
		{usd: "0.0000015", want: "2"},
	}

	for _, tt := range tests {
		usd, err := decimal.NewFromString(tt.usd)
		require.NoError(t, err)
		assert.Equal(t, tt.want, USDToUSDC(usd), "usd=%s", tt.usd)
	}
}

func TestParseUSDC(t *testing.T) {
	amount, err := ParseUSDC("9990000")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(9990000), amount)

	_, err = ParseUSDC("")
	assert.Error(t, err)
	_, err = ParseUSDC("12.5")
	assert.Error(t, err)
	_, err = ParseUSDC("-1")
	assert.Error(t, err)
}

func TestSumAndFormatRoundTrip(t *testing.T) {
	total, err := SumUSDC([]string{"9990000", "12500000"})
	require.NoError(t, err)
	assert.Equal(t, "22490000", total.String())
	assert.Equal(t, "22.49", USDCToUSD(total))
}

func TestUSDCToUSDKeepsTrailingZero(t *testing.T) {
	total, err := ParseUSDC("12500000")
	require.NoError(t, err)
	assert.Equal(t, "12.50", USDCToUSD(total))
	assert.Equal(t, "0.00", USDCToUSD(nil))
}

func TestUSDMinorUnitsRoundsHalfUp(t *testing.T) {
	tests := []struct {
		usd  string
		want int64
	}{
		{usd: "12.5", want: 1250},
		{usd: "9.99", want: 999},
		{usd: "12.495", want: 1250},
		{usd: "12.494", want: 1249},
	}
	for _, tt := range tests {
		usd, err := decimal.NewFromString(tt.usd)
		require.NoError(t, err)
		assert.Equal(t, tt.want, USDMinorUnits(usd), "usd=%s", tt.usd)
	}
}
