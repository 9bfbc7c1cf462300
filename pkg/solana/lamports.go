package solana

import "github.com/shopspring/decimal"

// LamportsPerToken is the number of base units in one native token.
const LamportsPerToken = 1_000_000_000

var lamportsPerToken = decimal.NewFromInt(LamportsPerToken)

// ToLamports converts a token amount to base units, truncating any
// fraction below one lamport. Negative amounts saturate to zero.
func ToLamports(amount decimal.Decimal) uint64 {
	if amount.IsNegative() {
		return 0
	}
	return uint64(amount.Mul(lamportsPerToken).IntPart())
}

// FromLamports converts base units to a token amount.
func FromLamports(lamports uint64) decimal.Decimal {
	return decimal.NewFromUint64(lamports).Div(lamportsPerToken)
}
