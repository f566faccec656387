package adapter

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// RealtokenDecimals is the ERC-20 precision of every realtoken
const RealtokenDecimals = 18

// ToTokenDecimal scales a raw integer token amount by 10^-decimals
func ToTokenDecimal(raw *big.Int, decimals int32) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -decimals)
}

// ToTokenAmount is ToTokenDecimal converted to float64 for the valuation engine
func ToTokenAmount(raw *big.Int, decimals int32) float64 {
	return ToTokenDecimal(raw, decimals).InexactFloat64()
}
