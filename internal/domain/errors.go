package domain

import "errors"

// Sentinel errors produced by the core. Mutations either succeed
// atomically or leave state unchanged; none of these represent partial
// application.
var (
	// ErrDuplicateOrderID is returned by AddOrder when the given ID is
	// already resting in the book.
	ErrDuplicateOrderID = errors.New("domain: duplicate order id")

	// ErrInvalidOrder is returned for zero/negative quantity,
	// non-positive price, or an unsupported order type.
	ErrInvalidOrder = errors.New("domain: invalid order")

	// ErrRingFull names a trade dropped because the trade ring was at
	// capacity. TradeRing.Push reports this as a false return; the
	// caller must count the drop.
	ErrRingFull = errors.New("domain: trade ring full")

	// ErrTransportInitFailure signals a shared region failed to
	// initialize at startup. Fatal for the process that owns it.
	ErrTransportInitFailure = errors.New("domain: transport init failure")

	// ErrTransportGone is surfaced to a reader whose shared region
	// disappeared mid-run.
	ErrTransportGone = errors.New("domain: transport gone")
)
