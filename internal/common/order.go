package common

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is a single order, either resting in a PriceLevel's FIFO or
// in-flight through the matching engine. A limit price of zero on entry
// marks a market order (normalized away by the engine before it ever
// reaches the book — see MatchingEngine).
type Order struct {
	ID    uuid.UUID
	Side  Side
	Price decimal.Decimal // limit price; 0 on entry means "market"

	Remaining decimal.Decimal // remaining, unfilled volume
	Original  decimal.Decimal // volume at entry, kept for fill-accounting assertions

	Condition Condition
	Owner     string // pass-through only; no self-match policy wired
	FeeClass  string

	CumulativeCost decimal.Decimal // informational
	CumulativeFee  decimal.Decimal // informational

	Status       Status
	CancelReason CancelReason

	ArrivalTimestamp int64 // caller-supplied monotonic millis
}

// Filled reports whether the order has no remaining volume.
func (o *Order) Filled() bool {
	return o.Remaining.IsZero()
}

func (o Order) String() string {
	return fmt.Sprintf(
		"Order{ID: %s, Side: %v, Price: %s, Remaining: %s/%s, Condition: %v, Status: %v, Owner: %s}",
		o.ID, o.Side, o.Price, o.Remaining, o.Original, o.Condition, o.Status, o.Owner,
	)
}
