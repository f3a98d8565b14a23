package types

import "errors"

// Domain error taxonomy shared across components. All are recoverable:
// a failed operation leaves shared state unchanged.
var (
	ErrUnknownCategory    = errors.New("unknown service category")
	ErrUnknownCounter     = errors.New("counter not found")
	ErrActiveTicketExists = errors.New("visitor already holds an active ticket")
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrCounterIdle        = errors.New("counter is not serving a ticket")
	ErrInvalidCounterName = errors.New("counter name must be 1-100 characters")
	ErrEmptyCategorySet   = errors.New("counter must serve at least one category")
)
