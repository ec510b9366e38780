package book

import (
	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"
)

// sortedPriceCache is the lazily materialized sorted list of a side's
// active price keys, used exclusively to answer cumulative-liquidity
// questions (can_fill). The level map owns the PriceLevels themselves; this
// btree holds only sorted key enumeration.
//
// The dirty flag flips exactly when the set of keys on the side changes
// (level creation/destruction); volume mutations within an existing level
// never touch it.
type sortedPriceCache struct {
	tree  *btree.BTreeG[decimal.Decimal]
	dirty bool
	less  func(a, b decimal.Decimal) bool
}

func newSortedPriceCache(less func(a, b decimal.Decimal) bool) *sortedPriceCache {
	return &sortedPriceCache{
		tree:  btree.NewBTreeG(less),
		dirty: true,
		less:  less,
	}
}

// invalidate marks the cache dirty. Called whenever a level is created or
// destroyed, and never otherwise.
func (c *sortedPriceCache) invalidate() {
	c.dirty = true
}

// rebuild repopulates the tree from the current set of level keys, in the
// side's natural direction, and clears the dirty flag. No-op if clean.
func (c *sortedPriceCache) rebuild(keys []decimal.Decimal) {
	if !c.dirty {
		return
	}
	c.tree = btree.NewBTreeG(c.less)
	for _, k := range keys {
		c.tree.Set(k)
	}
	c.dirty = false
}

// walk visits cached keys in sorted order, stopping early if fn returns
// false. Callers must call rebuild first if they need a clean cache.
func (c *sortedPriceCache) walk(fn func(decimal.Decimal) bool) {
	c.tree.Scan(func(key decimal.Decimal) bool {
		return fn(key)
	})
}
