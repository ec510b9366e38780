package engine

import (
	"github.com/shopspring/decimal"

	"ordercore/internal/common"
)

// fee computes the fee owed by one side of a trade:
//
//	buyer side:  fee = round(volume * rate, precision)
//	seller side: fee = round(volume * price * rate, precision)
//
// rate is the taker rate for the aggressor and the maker rate for the
// resting counterparty. Rounding is half-away-from-zero
// (decimal.Decimal.Round's convention), applied consistently across both
// sides of every trade.
func fee(side common.Side, volume, price, rate decimal.Decimal, precision int32) decimal.Decimal {
	if side == common.Buy {
		return volume.Mul(rate).Round(precision)
	}
	return volume.Mul(price).Mul(rate).Round(precision)
}
