package engine

import "github.com/roach88/causal/internal/ir"

// Compare places event a relative to event b by their captured clocks.
//
// Clocks of different lengths are compared as if zero-padded, so an event
// ticked before a later registration still compares correctly against
// events ticked after it. Compare(x, x) is Equal.
func (e *Engine) Compare(a, b ir.EventID) (ir.Ordering, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ea, eb, err := e.eventPair("compare", a, b)
	if err != nil {
		return "", err
	}
	return ir.CompareClocks(ea.Clock, eb.Clock), nil
}

// Dominates reports whether event a strictly dominates event b: a is at
// least b in every padded component and greater in at least one.
//
// Dominates(x, x) is false. An event never dominates one with an equal
// clock.
func (e *Engine) Dominates(a, b ir.EventID) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ea, eb, err := e.eventPair("dominates", a, b)
	if err != nil {
		return false, err
	}
	return ir.DominatesClock(ea.Clock, eb.Clock), nil
}

// eventPair resolves both events, reporting the first missing one.
// Caller holds e.mu.
func (e *Engine) eventPair(op string, a, b ir.EventID) (ir.Event, ir.Event, error) {
	ea, ok := e.log.get(a)
	if !ok {
		return ir.Event{}, ir.Event{}, e.fail(op, newEventNotFoundError(string(a)))
	}
	eb, ok := e.log.get(b)
	if !ok {
		return ir.Event{}, ir.Event{}, e.fail(op, newEventNotFoundError(string(b)))
	}
	return ea, eb, nil
}
