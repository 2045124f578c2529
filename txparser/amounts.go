package txparser

import (
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"
)

const (
	LAMPORTS_PER_SOL_DECIMALS = 9
)

func uint64Decimal(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}

// FormatFee renders a lamport amount as SOL with nine decimal places.
func FormatFee(lamports uint64) string {
	return uint64Decimal(lamports).Shift(-LAMPORTS_PER_SOL_DECIMALS).StringFixed(LAMPORTS_PER_SOL_DECIMALS)
}

// uiAmount scales a raw token amount by its decimals without rounding.
func uiAmount(amount uint64, decimals uint8) string {
	return uint64Decimal(amount).Shift(-int32(decimals)).String()
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}
