package money

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// USDC amounts are stored as string-encoded integers counting 1e-6 units.
// They stay in big.Int for storage, comparison, and aggregation; floating
// point is only ever used at the display edge.
const usdcDecimals = 6

var microsPerUSD = decimal.New(1, usdcDecimals)

// USDToUSDC converts a fiat USD amount to the stored 6-decimal fixed-point
// string. Conversion is 1:1 and rounds half away from zero beyond six places.
func USDToUSDC(usd decimal.Decimal) string {
	return usd.Mul(microsPerUSD).Round(0).BigInt().String()
}

// ParseUSDC validates and parses a stored USDC amount string.
func ParseUSDC(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("usdc amount is empty")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid usdc amount %q", value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("usdc amount %q is negative", value)
	}
	return amount, nil
}

// SumUSDC adds a set of stored USDC amount strings without precision loss.
func SumUSDC(values []string) (*big.Int, error) {
	total := new(big.Int)
	for _, value := range values {
		amount, err := ParseUSDC(value)
		if err != nil {
			return nil, err
		}
		total.Add(total, amount)
	}
	return total, nil
}

// USDCToUSD renders a USDC micro amount as a two-decimal USD string. This is
// display rounding only; the stored value keeps full precision.
func USDCToUSD(micros *big.Int) string {
	if micros == nil {
		return "0.00"
	}
	return decimal.NewFromBigInt(micros, -usdcDecimals).StringFixed(2)
}

// USDMinorUnits converts a USD amount to the processor's minor unit (cents),
// rounding half away from zero.
func USDMinorUnits(usd decimal.Decimal) int64 {
	return usd.Mul(decimal.New(1, 2)).Round(0).IntPart()
}
