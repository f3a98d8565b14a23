package websocket

import "errors"

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrWriteTimeout     = errors.New("write timeout")
	ErrInvalidJSON      = errors.New("invalid JSON data")
	ErrUnknownChannel   = errors.New("unknown channel: must be ticket, counters, or display")
	ErrMissingTicketID  = errors.New("ticket channel requires ticket_id")
)
