package engine

import "github.com/shopspring/decimal"

// Config is the matching engine's immutable construction-time
// configuration. There are no setters; a Config is only ever consumed by
// New.
type Config struct {
	// StepSize is reserved for future tick-size validation; the core does
	// not enforce round-lot/step-size discipline.
	StepSize decimal.Decimal

	// PricePrecision is the number of decimal places used both to key
	// price levels and to round fees.
	PricePrecision int32

	MakerFeeRate decimal.Decimal
	TakerFeeRate decimal.Decimal
}
