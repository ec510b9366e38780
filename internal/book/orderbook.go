// Package book implements the OrderBook leaf component: the composition of
// a PriorityIndex, a price->PriceLevel map, a SortedPriceCache (per side),
// and a book-wide id->locator index.
package book

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ordercore/internal/common"
	"ordercore/internal/priority"
)

// locator pins down where a live order sits: side + price + a stable FIFO
// handle, permitting O(1) removal without scanning. price is always the
// level's own canonical value (lvl.Price()), never the order's raw
// order.Price — the PriorityIndex keys its position map by
// decimal.Decimal.String(), which is exponent-sensitive ("100" and "100.00"
// print differently though price.StringFixed normalizes them onto the same
// level); storing anything other than the exact decimal that was inserted
// into the index would make a later index.Remove silently miss.
type locator struct {
	side  common.Side
	price decimal.Decimal
	key   string
	hnd   Handle
}

// side bundles one side's PriorityIndex, level map, and SortedPriceCache.
// They must stay in lock-step through every add/remove: every price present
// in one must be present in the other two, or best-price lookups desync.
type side struct {
	index  *priority.Index
	levels map[string]*PriceLevel
	cache  *sortedPriceCache
}

// Depth is the nullable snapshot returned by DepthAt.
type Depth struct {
	Price       decimal.Decimal
	Volume      decimal.Decimal
	LastChanged int64
}

// OrderBook composes the per-side structures plus the book-wide id index.
// pricePrecision is used only to normalize map keys (distinct Decimal
// values that print identically must collide on one level); it carries no
// rounding semantics of its own — fee rounding belongs to the engine.
type OrderBook struct {
	bid            side
	ask            side
	locators       map[uuid.UUID]locator
	pricePrecision int32
}

// New constructs an empty OrderBook. pricePrecision is the configured
// decimal-place count used to key price levels.
func New(pricePrecision int32) *OrderBook {
	return &OrderBook{
		bid: side{
			index:  priority.NewMax(),
			levels: make(map[string]*PriceLevel),
			cache:  newSortedPriceCache(func(a, b decimal.Decimal) bool { return a.GreaterThan(b) }),
		},
		ask: side{
			index:  priority.NewMin(),
			levels: make(map[string]*PriceLevel),
			cache:  newSortedPriceCache(func(a, b decimal.Decimal) bool { return a.LessThan(b) }),
		},
		locators:       make(map[uuid.UUID]locator),
		pricePrecision: pricePrecision,
	}
}

func (b *OrderBook) sideFor(s common.Side) *side {
	if s == common.Buy {
		return &b.bid
	}
	return &b.ask
}

func (b *OrderBook) oppositeSideFor(s common.Side) *side {
	if s == common.Buy {
		return &b.ask
	}
	return &b.bid
}

func (b *OrderBook) key(price decimal.Decimal) string {
	return price.StringFixed(b.pricePrecision)
}

// Add books order on its side. Classifies by side; if the price level is
// new, creates it, inserts the price into the side's PriorityIndex, and
// marks that side's cache dirty. Pushes the order at the back of the
// level and records a locator. Precondition: order.ID is not already
// present — Add assumes this and will silently overwrite
// the locator for a duplicate id if violated by the caller.
func (b *OrderBook) Add(order *common.Order, now int64) Handle {
	s := b.sideFor(order.Side)
	key := b.key(order.Price)

	lvl, exists := s.levels[key]
	if !exists {
		lvl = newPriceLevel(order.Price, now)
		s.levels[key] = lvl
		_ = s.index.Insert(lvl.Price()) // price is new to this side by construction
		s.cache.invalidate()
	}

	hnd := lvl.PushBack(order, now)
	b.locators[order.ID] = locator{side: order.Side, price: lvl.Price(), key: key, hnd: hnd}
	return hnd
}

// Remove evicts the order identified by id: O(1) removal from the level
// FIFO, total-volume adjustment, id-index removal, and — if the level
// becomes empty — removal from the level map and PriorityIndex, with the
// side's cache marked dirty. Returns whether the order was present.
func (b *OrderBook) Remove(id uuid.UUID, now int64) bool {
	loc, ok := b.locators[id]
	if !ok {
		return false
	}
	s := b.sideFor(loc.side)
	lvl := s.levels[loc.key]

	removedVolume := loc.hnd.elem.Value.(*common.Order).Remaining
	lvl.Remove(loc.hnd, removedVolume, now)
	delete(b.locators, id)

	if lvl.IsEmpty() {
		delete(s.levels, loc.key)
		s.index.Remove(loc.price)
		s.cache.invalidate()
	}
	return true
}

// Find resolves id to its resting Order, if any.
func (b *OrderBook) Find(id uuid.UUID) (*common.Order, bool) {
	loc, ok := b.locators[id]
	if !ok {
		return nil, false
	}
	return loc.hnd.elem.Value.(*common.Order), true
}

// BestBidPrice peeks the bid side's PriorityIndex.
func (b *OrderBook) BestBidPrice() (decimal.Decimal, bool) { return b.bid.index.Peek() }

// BestAskPrice peeks the ask side's PriorityIndex.
func (b *OrderBook) BestAskPrice() (decimal.Decimal, bool) { return b.ask.index.Peek() }

// BestBidVolume returns the total resting volume at the best bid price.
func (b *OrderBook) BestBidVolume() (decimal.Decimal, bool) { return b.bestVolume(&b.bid) }

// BestAskVolume returns the total resting volume at the best ask price.
func (b *OrderBook) BestAskVolume() (decimal.Decimal, bool) { return b.bestVolume(&b.ask) }

func (b *OrderBook) bestVolume(s *side) (decimal.Decimal, bool) {
	price, ok := s.index.Peek()
	if !ok {
		return decimal.Zero, false
	}
	lvl := s.levels[b.key(price)]
	return lvl.TotalVolume(), true
}

// BestBidOrder returns the front order of the best bid level.
func (b *OrderBook) BestBidOrder() (*common.Order, bool) { return b.bestOrder(&b.bid) }

// BestAskOrder returns the front order of the best ask level.
func (b *OrderBook) BestAskOrder() (*common.Order, bool) { return b.bestOrder(&b.ask) }

func (b *OrderBook) bestOrder(s *side) (*common.Order, bool) {
	price, ok := s.index.Peek()
	if !ok {
		return nil, false
	}
	lvl := s.levels[b.key(price)]
	return lvl.First()
}

// BestLevel returns the PriceLevel at the best price for s, if any. Used
// by the engine's match loop.
func (b *OrderBook) BestLevel(s common.Side) (*PriceLevel, bool) {
	sd := b.sideFor(s)
	price, ok := sd.index.Peek()
	if !ok {
		return nil, false
	}
	return sd.levels[b.key(price)], true
}

// FillAfterMatch is called by the engine after it has decremented the
// resting order's remaining volume in place. Decrements the level's total
// volume by matchedVolume and, if the order is now filled, evicts it via
// Remove. Returns whether the order was fully evicted.
func (b *OrderBook) FillAfterMatch(order *common.Order, matchedVolume decimal.Decimal, now int64) bool {
	loc, ok := b.locators[order.ID]
	if !ok {
		return false
	}
	lvl := b.sideFor(loc.side).levels[loc.key]
	lvl.ReduceVolume(matchedVolume, now)

	if order.Filled() {
		return b.Remove(order.ID, now)
	}
	return false
}

// CanFill answers "is there enough crossable aggregate liquidity on the
// opposite side of `side` to exhaust `volume` without violating
// `limitPrice`?" limitPrice <= 0 means no limit (market/normalized order).
// Walks the opposite side's SortedPriceCache in priority order, rebuilding
// it from the level map first iff dirty.
func (b *OrderBook) CanFill(forSide common.Side, volume decimal.Decimal, limitPrice decimal.Decimal) bool {
	opp := b.oppositeSideFor(forSide)
	keys := make([]decimal.Decimal, 0, len(opp.levels))
	for _, lvl := range opp.levels {
		keys = append(keys, lvl.Price())
	}
	opp.cache.rebuild(keys)

	cumulative := decimal.Zero
	filled := false
	opp.cache.walk(func(price decimal.Decimal) bool {
		if limitPrice.GreaterThan(decimal.Zero) {
			if forSide == common.Buy && price.GreaterThan(limitPrice) {
				return false
			}
			if forSide == common.Sell && price.LessThan(limitPrice) {
				return false
			}
		}
		lvl := opp.levels[b.key(price)]
		cumulative = cumulative.Add(lvl.TotalVolume())
		if cumulative.GreaterThanOrEqual(volume) {
			filled = true
			return false
		}
		return true
	})
	return filled
}

// BidLevelCount returns the number of distinct non-empty bid prices.
func (b *OrderBook) BidLevelCount() int { return b.bid.index.Count() }

// AskLevelCount returns the number of distinct non-empty ask prices.
func (b *OrderBook) AskLevelCount() int { return b.ask.index.Count() }

// TotalOrders returns the number of resting orders across both sides.
func (b *OrderBook) TotalOrders() int { return len(b.locators) }

// DepthAt returns the aggregate snapshot for price, if a level exists
// there on either side.
func (b *OrderBook) DepthAt(price decimal.Decimal) (Depth, bool) {
	key := b.key(price)
	if lvl, ok := b.bid.levels[key]; ok {
		return Depth{Price: lvl.Price(), Volume: lvl.TotalVolume(), LastChanged: lvl.LastUpdate()}, true
	}
	if lvl, ok := b.ask.levels[key]; ok {
		return Depth{Price: lvl.Price(), Volume: lvl.TotalVolume(), LastChanged: lvl.LastUpdate()}, true
	}
	return Depth{}, false
}
