// Package engine implements the MatchingEngine: the order-lifecycle state
// machine, condition validation (BOC/FOK/IOC/market), the match loop, fee
// computation, and trade-record emission, composed on top of the book
// package's OrderBook.
package engine

import (
	"math/big"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"ordercore/internal/book"
	"ordercore/internal/common"
)

// marketAggressionSentinel stands in for +infinity when a normalized
// market buy's incoming price is compared against resting ask prices —
// astronomically above any realistic price so the crossing test always
// succeeds. Never written back to an Order and never admitted into the
// book: market orders are never persisted.
var marketAggressionSentinel = decimal.NewFromBigInt(big.NewInt(1), 30)

// Engine is the matching engine for a single symbol's book. A single
// Engine/OrderBook pair is exclusively owned by its caller; nothing here
// is safe for concurrent use.
type Engine struct {
	cfg      Config
	book     *book.OrderBook
	reporter Reporter
	clock    Clock

	lastTrades []common.TradeRecord
}

// New constructs a matching engine with the given immutable configuration.
func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:   cfg,
		book:  book.New(cfg.PricePrecision),
		clock: systemClock,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LastTrades returns the trades emitted by the most recent AddOrder call.
func (e *Engine) LastTrades() []common.TradeRecord {
	return e.lastTrades
}

// BestBidPrice, BestAskPrice, BestBidVolume, BestAskVolume, BidLevelCount,
// AskLevelCount, TotalOrders, DepthAt: thin, read-only delegations to the
// book.
func (e *Engine) BestBidPrice() (decimal.Decimal, bool) { return e.book.BestBidPrice() }
func (e *Engine) BestAskPrice() (decimal.Decimal, bool) { return e.book.BestAskPrice() }
func (e *Engine) BestBidVolume() (decimal.Decimal, bool) { return e.book.BestBidVolume() }
func (e *Engine) BestAskVolume() (decimal.Decimal, bool) { return e.book.BestAskVolume() }
func (e *Engine) BidLevelCount() int { return e.book.BidLevelCount() }
func (e *Engine) AskLevelCount() int { return e.book.AskLevelCount() }
func (e *Engine) TotalOrders() int { return e.book.TotalOrders() }
func (e *Engine) DepthAt(price decimal.Decimal) (book.Depth, bool) {
	return e.book.DepthAt(price)
}

// Find exposes order lookup by id for the harness/tests; a direct
// consequence of OrderBook.Find.
func (e *Engine) Find(id uuid.UUID) (*common.Order, bool) { return e.book.Find(id) }

// AddOrder runs the full lifecycle state machine for a newly submitted
// order: normalize → condition check → match → book residual. Mutates
// order in place; the returned code is the sole out-of-band signal — there
// is no other propagation path.
func (e *Engine) AddOrder(order *common.Order, timestamp int64) common.ResultCode {
	e.lastTrades = nil

	if code, ok := e.validate(order); !ok {
		return code
	}

	order.ArrivalTimestamp = timestamp
	isMarket := order.Price.IsZero()
	if isMarket && order.Condition == common.None {
		order.Condition = common.IOC
	}

	effectiveLimit := order.Price
	if isMarket {
		if order.Side == common.Buy {
			effectiveLimit = marketAggressionSentinel
		} else {
			effectiveLimit = decimal.Zero
		}
	}

	switch order.Condition {
	case common.BOC:
		return e.admitBOC(order)
	case common.FOK:
		return e.admitFOK(order, effectiveLimit, timestamp)
	case common.IOC:
		return e.admitIOC(order, effectiveLimit, isMarket, timestamp)
	default:
		return e.admitLimit(order, effectiveLimit, timestamp)
	}
}

// validate performs the up-front ValidationError checks. No rejection here
// mutates the book.
func (e *Engine) validate(order *common.Order) (common.ResultCode, bool) {
	if order == nil {
		log.Error().Err(ErrNilOrder).Msg("engine: AddOrder called with nil order")
		return common.OrderInvalid, false
	}
	if order.Remaining.IsNegative() || order.Original.IsNegative() {
		order.Status = common.Rejected
		order.CancelReason = common.Invalid
		return common.OrderInvalid, false
	}
	if order.Price.IsNegative() {
		order.Status = common.Rejected
		order.CancelReason = common.Invalid
		return common.OrderInvalid, false
	}
	return common.OrderValid, true
}

// admitBOC implements the Book-Or-Cancel precheck. Rejects when the
// incoming price would immediately cross; price equality against the best
// opposite price counts as a cross and is rejected (non-strict
// inequality). A zero-price (market) BOC order is always rejected, since
// market orders never rest in the book.
func (e *Engine) admitBOC(order *common.Order) common.ResultCode {
	if order.Price.IsZero() {
		order.Status = common.Rejected
		order.CancelReason = common.BookOrCancel
		return common.BOCCannotBook
	}

	wouldCross := false
	if order.Side == common.Buy {
		if ask, ok := e.book.BestAskPrice(); ok && ask.LessThanOrEqual(order.Price) {
			wouldCross = true
		}
	} else {
		if bid, ok := e.book.BestBidPrice(); ok && bid.GreaterThanOrEqual(order.Price) {
			wouldCross = true
		}
	}
	if wouldCross {
		order.Status = common.Rejected
		order.CancelReason = common.BookOrCancel
		return common.BOCCannotBook
	}

	e.book.Add(order, order.ArrivalTimestamp)
	order.Status = common.Listed
	log.Debug().Stringer("id", order.ID).Msg("engine: BOC order booked")
	return common.OrderAccepted
}

// admitFOK implements the Fill-Or-Kill precheck and guaranteed exhaustion:
// an order only ever reaches the match loop once CanFill has confirmed
// enough opposite-side liquidity exists at an acceptable price.
func (e *Engine) admitFOK(order *common.Order, effectiveLimit decimal.Decimal, timestamp int64) common.ResultCode {
	if !e.book.CanFill(order.Side, order.Remaining, effectiveLimit) {
		order.Status = common.Rejected
		order.CancelReason = common.FillOrKill
		return common.FOKCannotFill
	}

	e.matchLoop(order, effectiveLimit, timestamp)

	if !order.Filled() {
		// A precheck that returned true must not leave residual volume.
		// Should be impossible.
		log.Error().Err(ErrInvariantViolation).Stringer("id", order.ID).Msg("engine: FOK precheck passed but match loop left residual volume")
		order.Status = common.Rejected
		order.CancelReason = common.Invalid
		return common.SystemError
	}

	order.Status = common.Filled
	return common.OrderAccepted
}

// admitIOC implements Immediate-Or-Cancel and normalized market orders:
// match whatever is available right now, then cancel any residual instead
// of resting it.
func (e *Engine) admitIOC(order *common.Order, effectiveLimit decimal.Decimal, isMarket bool, timestamp int64) common.ResultCode {
	e.matchLoop(order, effectiveLimit, timestamp)

	matchedAny := order.Remaining.LessThan(order.Original)
	switch {
	case order.Filled():
		order.Status = common.Filled
		return common.OrderAccepted
	case matchedAny:
		order.Status = common.Cancelled
		order.CancelReason = common.ImmediateOrCancel
		return common.OrderAccepted
	case isMarket:
		order.Status = common.Rejected
		order.CancelReason = common.NoLiquidity
		return common.MarketNoLiquidity
	default:
		order.Status = common.Rejected
		order.CancelReason = common.ImmediateOrCancel
		return common.IOCCannotFill
	}
}

// admitLimit implements plain limit orders (condition None): match first,
// then book whatever remains. The match loop only ever targets the
// opposite side, so running it before insertion cannot cause
// self-interaction.
func (e *Engine) admitLimit(order *common.Order, effectiveLimit decimal.Decimal, timestamp int64) common.ResultCode {
	e.matchLoop(order, effectiveLimit, timestamp)

	if order.Filled() {
		order.Status = common.Filled
		return common.OrderAccepted
	}

	e.book.Add(order, timestamp)
	order.Status = common.Listed
	return common.OrderAccepted
}

// matchLoop is the crossing loop shared by every admitted order. It
// mutates both sides' remaining volumes in place, accumulates cost/fee,
// emits TradeRecords, and evicts filled resting orders.
func (e *Engine) matchLoop(incoming *common.Order, effectiveLimit decimal.Decimal, timestamp int64) {
	opposite := common.Sell
	if incoming.Side == common.Sell {
		opposite = common.Buy
	}

	for {
		level, ok := e.book.BestLevel(opposite)
		if !ok {
			return
		}
		resting, ok := level.First()
		if !ok {
			return
		}
		if !crosses(incoming.Side, resting.Price, effectiveLimit) {
			return
		}

		matchVolume := decimal.Min(incoming.Remaining, resting.Remaining)
		matchPrice := resting.Price // maker price rule: the trade prints at the resting order's price

		incoming.Remaining = incoming.Remaining.Sub(matchVolume)
		resting.Remaining = resting.Remaining.Sub(matchVolume)

		cost := matchPrice.Mul(matchVolume)
		incoming.CumulativeCost = incoming.CumulativeCost.Add(cost)
		resting.CumulativeCost = resting.CumulativeCost.Add(cost)

		takerFee := fee(incoming.Side, matchVolume, matchPrice, e.cfg.TakerFeeRate, e.cfg.PricePrecision)
		makerFee := fee(resting.Side, matchVolume, matchPrice, e.cfg.MakerFeeRate, e.cfg.PricePrecision)
		incoming.CumulativeFee = incoming.CumulativeFee.Add(takerFee)
		resting.CumulativeFee = resting.CumulativeFee.Add(makerFee)

		trade := common.TradeRecord{
			Maker:              *resting,
			Taker:              *incoming,
			MatchPrice:         matchPrice,
			MatchVolume:        matchVolume,
			AggressorRemaining: incoming.Remaining,
			AggressorSide:      incoming.Side,
			MakerFee:           makerFee,
			TakerFee:           takerFee,
			GrossCost:          cost,
			State:              common.Matched,
			Timestamp:          timestamp,
		}
		e.lastTrades = append(e.lastTrades, trade)
		if e.reporter != nil {
			e.reporter.OnTrade(trade)
		}
		log.Debug().
			Stringer("price", matchPrice).
			Stringer("volume", matchVolume).
			Stringer("taker", incoming.ID).
			Stringer("maker", resting.ID).
			Msg("engine: trade")

		e.book.FillAfterMatch(resting, matchVolume, timestamp)

		if incoming.Filled() {
			return
		}
	}
}

// crosses implements the crossing test: buy crosses iff the resting ask
// price is at or below the incoming price; sell crosses iff the resting
// bid price is at or above the incoming price.
func crosses(incomingSide common.Side, restingPrice, incomingPrice decimal.Decimal) bool {
	if incomingSide == common.Buy {
		return restingPrice.LessThanOrEqual(incomingPrice)
	}
	return restingPrice.GreaterThanOrEqual(incomingPrice)
}

// CancelOrder looks up id; if present, removes it (preserving book-wide
// invariants) and marks it Cancelled with reason UserRequested. If absent,
// returns OrderNotExists and mutates nothing.
func (e *Engine) CancelOrder(id uuid.UUID) common.ResultCode {
	order, ok := e.book.Find(id)
	if !ok {
		return common.OrderNotExists
	}
	e.book.Remove(id, e.clock())
	order.Status = common.Cancelled
	order.CancelReason = common.UserRequested
	return common.CancelAccepted
}
