package engine

import "github.com/roach88/causal/internal/ir"

// eventLog is the append-only record of every tick. Stored clocks are
// private copies; callers only ever see copies of them.
type eventLog struct {
	byID   map[ir.EventID]int
	events []ir.Event
}

func newEventLog() *eventLog {
	return &eventLog{byID: make(map[ir.EventID]int)}
}

func (l *eventLog) has(id ir.EventID) bool {
	_, ok := l.byID[id]
	return ok
}

func (l *eventLog) append(ev ir.Event) {
	l.byID[ev.ID] = len(l.events)
	l.events = append(l.events, ev.Copy())
}

// get returns the stored event without copying. Callers inside the
// package must not mutate the returned clock.
func (l *eventLog) get(id ir.EventID) (ir.Event, bool) {
	pos, ok := l.byID[id]
	if !ok {
		return ir.Event{}, false
	}
	return l.events[pos], true
}

func (l *eventLog) len() int {
	return len(l.events)
}

func (l *eventLog) all() []ir.Event {
	out := make([]ir.Event, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.Copy()
	}
	return out
}
