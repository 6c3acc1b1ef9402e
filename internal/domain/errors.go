package domain

import "errors"

// Sentinel errors for the recoverable failure classes of the core. Nothing in
// the core is fatal to the process; callers match with errors.Is.
var (
	// ErrInvalidData indicates an input series is missing required fields
	// (timestamp, close) or is empty.
	ErrInvalidData = errors.New("invalid price data")

	// ErrInvalidParameters indicates malformed strategy parameters, e.g. a
	// fast period that is not below the slow period.
	ErrInvalidParameters = errors.New("invalid strategy parameters")

	// ErrInsufficientFunds indicates a position open was rejected for lack
	// of cash. The simulator and paper session treat this as a logged
	// no-op rather than surfacing it from the bar loop.
	ErrInsufficientFunds = errors.New("insufficient funds")
)
