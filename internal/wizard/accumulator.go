package wizard

// Accumulator holds the draft of one wizard mount. It does no validation and no
// locking; callers validate first and the owning Session serializes access.
type Accumulator struct {
	draft Draft
}

// NewAccumulator starts an empty draft for ctx.
func NewAccumulator(ctx Context) *Accumulator {
	return &Accumulator{draft: Draft{Context: ctx}}
}

// Draft returns the current draft by value.
func (a *Accumulator) Draft() Draft {
	return a.draft
}

// Update replaces the draft with mutate(current).
func (a *Accumulator) Update(mutate func(Draft) Draft) {
	a.draft = mutate(a.draft)
}
