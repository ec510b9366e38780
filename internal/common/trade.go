package common

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TradeRecord accounts for one match between a resting maker order and an
// incoming taker order. Match price is always the maker's resting price.
type TradeRecord struct {
	Maker Order // snapshot at the moment of the match
	Taker Order // snapshot at the moment of the match

	MatchPrice  decimal.Decimal
	MatchVolume decimal.Decimal

	// AggressorRemaining is the taker's remaining volume after this fill.
	// Zero when the taker was fully filled by this single match.
	AggressorRemaining decimal.Decimal
	AggressorSide      Side

	MakerFee decimal.Decimal
	TakerFee decimal.Decimal

	GrossCost decimal.Decimal // MatchPrice * MatchVolume

	State     Status
	Timestamp int64
}

// Bid returns whichever of Maker/Taker was the buy side of this trade.
// Maker and Taker are always on opposite sides (the book never matches an
// order against its own side), so exactly one of them is the bid.
func (t TradeRecord) Bid() Order {
	if t.Maker.Side == Buy {
		return t.Maker
	}
	return t.Taker
}

// Ask returns whichever of Maker/Taker was the sell side of this trade.
func (t TradeRecord) Ask() Order {
	if t.Maker.Side == Sell {
		return t.Maker
	}
	return t.Taker
}

func (t TradeRecord) String() string {
	return fmt.Sprintf(
		"TradeRecord{Price: %s, Volume: %s, Maker: %s, Taker: %s, MakerFee: %s, TakerFee: %s}",
		t.MatchPrice, t.MatchVolume, t.Maker.ID, t.Taker.ID, t.MakerFee, t.TakerFee,
	)
}
