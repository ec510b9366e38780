package book

import (
	"container/list"

	"github.com/shopspring/decimal"
	"ordercore/internal/common"
)

// Handle is a stable removal handle: an opaque reference into a PriceLevel's
// FIFO that permits O(1) removal without scanning. It wraps a *list.Element
// — container/list is the stdlib choice here since a keyed/ordered
// structure like tidwall/btree has no notion of insertion-order FIFO, and a
// plain slice is O(n) to remove from the middle (see DESIGN.md).
type Handle struct {
	elem *list.Element
}

// PriceLevel is the FIFO of orders resting at one price, on one side. Time
// priority is implicit in insertion order; no timestamp comparisons are
// performed.
type PriceLevel struct {
	price       decimal.Decimal
	orders      *list.List // of *common.Order
	totalVolume decimal.Decimal
	lastUpdate  int64
}

func newPriceLevel(price decimal.Decimal, now int64) *PriceLevel {
	return &PriceLevel{
		price:       price,
		orders:      list.New(),
		totalVolume: decimal.Zero,
		lastUpdate:  now,
	}
}

// Price returns the level's price.
func (lvl *PriceLevel) Price() decimal.Decimal { return lvl.price }

// TotalVolume returns the cached sum of remaining volumes of all orders at
// this level.
func (lvl *PriceLevel) TotalVolume() decimal.Decimal { return lvl.totalVolume }

// LastUpdate returns the millisecond timestamp of the level's last mutation.
func (lvl *PriceLevel) LastUpdate() int64 { return lvl.lastUpdate }

// IsEmpty reports whether the level has no resting orders. Empty iff the
// FIFO is empty iff total volume is zero.
func (lvl *PriceLevel) IsEmpty() bool { return lvl.orders.Len() == 0 }

// First returns the head order without removing it, and whether one exists.
func (lvl *PriceLevel) First() (*common.Order, bool) {
	front := lvl.orders.Front()
	if front == nil {
		return nil, false
	}
	return front.Value.(*common.Order), true
}

// PushBack appends order to the tail of the FIFO, returning a stable
// removal handle. Increments total volume and updates the timestamp.
func (lvl *PriceLevel) PushBack(order *common.Order, now int64) Handle {
	elem := lvl.orders.PushBack(order)
	lvl.totalVolume = lvl.totalVolume.Add(order.Remaining)
	lvl.lastUpdate = now
	return Handle{elem: elem}
}

// Remove removes the order referenced by handle in O(1), decrementing
// total volume by removedVolume (the order's remaining volume at the time
// of removal) and updating the timestamp.
func (lvl *PriceLevel) Remove(h Handle, removedVolume decimal.Decimal, now int64) {
	lvl.orders.Remove(h.elem)
	lvl.totalVolume = lvl.totalVolume.Sub(removedVolume)
	lvl.lastUpdate = now
}

// ReduceVolume accounts for a partial fill against a still-resting order:
// it lowers the cached aggregate by matchedVolume without touching the
// FIFO (the order itself was mutated in place by the engine). Mutations of
// order volume within an existing level never change which prices exist,
// so this never touches the SortedPriceCache.
func (lvl *PriceLevel) ReduceVolume(matchedVolume decimal.Decimal, now int64) {
	lvl.totalVolume = lvl.totalVolume.Sub(matchedVolume)
	lvl.lastUpdate = now
}
