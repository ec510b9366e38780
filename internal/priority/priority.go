// Package priority implements the PriorityIndex leaf component: a binary
// heap over distinct resting prices on one side of the book, oriented so
// that peek() is always the best price for that side (max for bids, min
// for asks).
//
// The auxiliary key->position map is the structure's one load-bearing
// invariant: it must track every Swap exactly, or Remove(key) resolves a
// stale position and removes the wrong element, silently corrupting the
// heap. container/heap's Push/Remove drive the
// sifting; the map only needs to stay in sync with Swap.
package priority

import (
	"container/heap"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrDuplicateKey is returned by Insert when the price is already present.
var ErrDuplicateKey = errors.New("priority: duplicate key")

// Index is a binary heap over decimal prices, plus a key->heap-position map
// so Remove(key) runs in O(log n) instead of O(n).
type Index struct {
	keys []decimal.Decimal
	pos  map[string]int // normalized key -> index into keys
	less func(a, b decimal.Decimal) bool
}

// NewMax returns an Index whose Peek is the greatest key (bid side).
func NewMax() *Index {
	return newIndex(func(a, b decimal.Decimal) bool { return a.GreaterThan(b) })
}

// NewMin returns an Index whose Peek is the least key (ask side).
func NewMin() *Index {
	return newIndex(func(a, b decimal.Decimal) bool { return a.LessThan(b) })
}

func newIndex(less func(a, b decimal.Decimal) bool) *Index {
	return &Index{
		keys: make([]decimal.Decimal, 0),
		pos:  make(map[string]int),
		less: less,
	}
}

// --- heap.Interface -------------------------------------------------------

func (idx *Index) Len() int { return len(idx.keys) }

func (idx *Index) Less(i, j int) bool { return idx.less(idx.keys[i], idx.keys[j]) }

func (idx *Index) Swap(i, j int) {
	idx.keys[i], idx.keys[j] = idx.keys[j], idx.keys[i]
	idx.pos[idx.keys[i].String()] = i
	idx.pos[idx.keys[j].String()] = j
}

// Push and Pop satisfy heap.Interface; callers use Insert/Remove below, not
// these directly.
func (idx *Index) Push(x any) {
	key := x.(decimal.Decimal)
	idx.pos[key.String()] = len(idx.keys)
	idx.keys = append(idx.keys, key)
}

func (idx *Index) Pop() any {
	old := idx.keys
	n := len(old)
	key := old[n-1]
	idx.keys = old[:n-1]
	delete(idx.pos, key.String())
	return key
}

// --- public contract -------------------------------------------------------

// Peek returns the extreme key (best price for this side) and whether one
// exists. O(1).
func (idx *Index) Peek() (decimal.Decimal, bool) {
	if len(idx.keys) == 0 {
		return decimal.Zero, false
	}
	return idx.keys[0], true
}

// Contains reports whether key is present. O(1).
func (idx *Index) Contains(key decimal.Decimal) bool {
	_, ok := idx.pos[key.String()]
	return ok
}

// Insert adds key to the index. O(log n). Fails with ErrDuplicateKey if
// key is already present.
func (idx *Index) Insert(key decimal.Decimal) error {
	if idx.Contains(key) {
		return ErrDuplicateKey
	}
	heap.Push(idx, key)
	return nil
}

// Remove removes key from the index, returning whether it was present.
// O(log n). Swaps the target with the last element, shortens, then sifts
// both up and down from the freed index — the replacement's ordering
// relative to its new neighbors is unknown a priori.
func (idx *Index) Remove(key decimal.Decimal) bool {
	i, ok := idx.pos[key.String()]
	if !ok {
		return false
	}
	heap.Remove(idx, i)
	return true
}

// Count returns the number of distinct prices currently indexed, for
// diagnostics such as bid_level_count/ask_level_count.
func (idx *Index) Count() int { return len(idx.keys) }
