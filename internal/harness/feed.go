// Package harness is an external benchmark/demo collaborator: it drives an
// engine.Engine with a synthetic order stream and reports throughput. None
// of it participates in the matching semantics; it exists to exercise the
// core as a library.
package harness

import (
	"math/rand"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ordercore/internal/common"
)

// Feed generates a synthetic, reproducible stream of orders around a
// central price: uniformly random side, a price within a band of the
// center (occasionally zero, to exercise market orders), and a small
// integer volume.
type Feed struct {
	rng            *rand.Rand
	center         decimal.Decimal
	band           decimal.Decimal
	pricePrecision int32
}

// NewFeed builds a Feed seeded for reproducibility; center and band are
// the price the synthetic market oscillates around and the half-width of
// that oscillation.
func NewFeed(seed int64, center, band decimal.Decimal, pricePrecision int32) *Feed {
	return &Feed{
		rng:            rand.New(rand.NewSource(seed)),
		center:         center,
		band:           band,
		pricePrecision: pricePrecision,
	}
}

// Next returns one synthetic order. Roughly one in twenty is a market
// order (price zero); the rest are limit orders with a random condition.
func (f *Feed) Next(owner string) *common.Order {
	side := common.Buy
	if f.rng.Intn(2) == 1 {
		side = common.Sell
	}

	price := decimal.Zero
	if f.rng.Intn(20) != 0 {
		offset := decimal.NewFromFloat(f.rng.Float64()*2 - 1).Mul(f.band)
		price = f.center.Add(offset).Round(f.pricePrecision)
		if price.IsNegative() {
			price = decimal.Zero
		}
	}

	volume := decimal.NewFromInt(int64(1 + f.rng.Intn(50)))

	cond := common.None
	switch f.rng.Intn(10) {
	case 0:
		cond = common.IOC
	case 1:
		cond = common.FOK
	case 2:
		cond = common.BOC
	}

	return &common.Order{
		ID:        uuid.New(),
		Side:      side,
		Price:     price,
		Remaining: volume,
		Original:  volume,
		Condition: cond,
		Owner:     owner,
	}
}
