package engine

import "errors"

// Sentinel errors for conditions that should be impossible to observe.
// AddOrder/CancelOrder never return them directly — they are logged at
// Error and surfaced as a result code: common.SystemError for
// ErrInvariantViolation, common.OrderInvalid for ErrNilOrder.
var (
	// ErrInvariantViolation marks a book invariant that a debug assertion
	// caught. In a release build the book should be considered
	// irrecoverable beyond this point.
	ErrInvariantViolation = errors.New("engine: invariant violation")

	// ErrNilOrder is a ValidationError: the caller passed a nil order.
	ErrNilOrder = errors.New("engine: nil order")
)
