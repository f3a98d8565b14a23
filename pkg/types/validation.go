package types

// IsValidCounterName checks display-name limits for counters.
func IsValidCounterName(name string) bool {
	return len(name) >= 1 && len(name) <= 100
}

// ValidateCounter ensures a counter definition is well formed. Category
// membership in the configured enumeration is checked by the dispatch
// engine, which owns the category table.
func (c *Counter) Validate() error {
	if !IsValidCounterName(c.Name) {
		return ErrInvalidCounterName
	}
	if len(c.Categories) == 0 {
		return ErrEmptyCategorySet
	}
	return nil
}

// Active reports whether the ticket still occupies a queue position.
func (t *Ticket) Active() bool {
	return t.State == TicketWaiting
}
