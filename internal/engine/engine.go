package engine

import (
	"log/slog"
	"sync"

	"github.com/roach88/causal/internal/ir"
)

// Observer receives every committed state change.
//
// Callbacks run synchronously after the change is committed, while the
// engine lock is held. They must not call back into the engine. Failed
// operations are never observed.
type Observer interface {
	ReplicaRegistered(r ir.Replica)
	Ticked(ev ir.Event)
	Merged(a, b ir.ReplicaID, result ir.Clock)
}

// Stats is a point-in-time summary of engine activity.
type Stats struct {
	Replicas int
	Events   int
	Merges   int
	Failures map[ErrorCode]int
}

// Engine tracks causality between events produced by a dynamic set of
// replicas.
//
// All state lives in memory and every operation is a deterministic function
// of the state and its inputs. Engine is safe for concurrent use; operations
// are serialized by a single mutex.
type Engine struct {
	mu sync.Mutex

	logger   *slog.Logger
	seq      *Sequencer
	observer Observer

	replicas *registry
	clocks   *clockStore
	log      *eventLog

	merges   int
	failures map[ErrorCode]int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithSequencer sets the nonce source. Defaults to NewSequencer().
// Event ids depend on the nonce, so an engine whose journal will be
// replayed must not share its Sequencer with another engine.
func WithSequencer(s *Sequencer) Option {
	return func(e *Engine) {
		if s != nil {
			e.seq = s
		}
	}
}

// WithObserver registers an observer for committed changes.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// New creates an empty engine: no replicas, no events.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:   slog.Default(),
		seq:      NewSequencer(),
		replicas: newRegistry(),
		clocks:   newClockStore(),
		log:      newEventLog(),
		failures: make(map[ErrorCode]int),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RegisterReplica adds a replica and returns its dimension index, which is
// the number of replicas registered before it.
//
// No existing vector is touched; they grow lazily on their next access.
func (e *Engine) RegisterReplica(id ir.ReplicaID) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.replicas.validate(id); err != nil {
		return 0, e.fail("register", err)
	}

	idx := e.replicas.add(id)
	e.clocks.add(id)

	r := ir.Replica{ID: id, Index: idx}
	if e.observer != nil {
		e.observer.ReplicaRegistered(r)
	}
	e.logger.Debug("replica registered", "replica", id, "index", idx)
	return idx, nil
}

// Tick records a new local event on a replica. The replica's own counter
// goes up by exactly 1 and the resulting clock is captured in the event.
func (e *Engine) Tick(id ir.ReplicaID) (ir.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	dim, ok := e.replicas.lookup(id)
	if !ok {
		return ir.Event{}, e.fail("tick", newNotRegisteredError(string(id)))
	}

	// Derive the id before any mutation so a failure leaves no trace.
	counter := e.clocks.peek(id).At(dim) + 1
	nonce := e.seq.Current() + 1
	evID, err := ir.NewEventID(id, counter, nonce)
	if err != nil {
		return ir.Event{}, err
	}

	snapshot := e.clocks.increment(id, dim, e.replicas.count())
	e.seq.Next()

	ev := ir.Event{
		ID:      evID,
		Replica: id,
		Index:   dim,
		Counter: counter,
		Nonce:   nonce,
		Clock:   snapshot,
	}
	e.log.append(ev)

	if e.observer != nil {
		e.observer.Ticked(ev.Copy())
	}
	e.logger.Debug("tick",
		"replica", id,
		"event", evID,
		"clock", snapshot.String(),
	)
	return ev, nil
}

// Merge folds b's knowledge into a: every component of a becomes the max of
// both. b is left logically unchanged. Returns a copy of a's new clock.
//
// Merging a replica with itself is a no-op beyond zero-extension.
func (e *Engine) Merge(a, b ir.ReplicaID) (ir.Clock, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.replicas.lookup(a); !ok {
		return nil, e.fail("merge", newNotRegisteredError(string(a)))
	}
	if _, ok := e.replicas.lookup(b); !ok {
		return nil, e.fail("merge", newNotRegisteredError(string(b)))
	}

	result := e.clocks.join(a, b, e.replicas.count())
	e.merges++

	if e.observer != nil {
		e.observer.Merged(a, b, result.Copy())
	}
	e.logger.Debug("merge", "into", a, "from", b, "clock", result.String())
	return result, nil
}

// Clock returns a copy of the replica's current vector, extended to the
// current replica count.
func (e *Engine) Clock(id ir.ReplicaID) (ir.Clock, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.replicas.lookup(id); !ok {
		return nil, e.fail("clock", newNotRegisteredError(string(id)))
	}
	return e.clocks.snapshot(id, e.replicas.count()), nil
}

// EventClock returns a copy of the clock captured when the event was
// created. It is never extended: registrations after the tick do not change
// its length.
func (e *Engine) EventClock(id ir.EventID) (ir.Clock, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ev, ok := e.log.get(id)
	if !ok {
		return nil, e.fail("event_clock", newEventNotFoundError(string(id)))
	}
	return ev.Clock.Copy(), nil
}

// Event returns a copy of a recorded event.
func (e *Engine) Event(id ir.EventID) (ir.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ev, ok := e.log.get(id)
	if !ok {
		return ir.Event{}, e.fail("event", newEventNotFoundError(string(id)))
	}
	return ev.Copy(), nil
}

// Events returns copies of all recorded events in tick order.
func (e *Engine) Events() []ir.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.log.all()
}

// Replicas returns the registered replicas in registration order.
func (e *Engine) Replicas() []ir.Replica {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.replicas.replicas()
}

// ReplicaCount returns the number of registered replicas.
func (e *Engine) ReplicaCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.replicas.count()
}

// Stats returns a snapshot of engine activity counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	failures := make(map[ErrorCode]int, len(e.failures))
	for code, n := range e.failures {
		failures[code] = n
	}
	return Stats{
		Replicas: e.replicas.count(),
		Events:   e.log.len(),
		Merges:   e.merges,
		Failures: failures,
	}
}

// fail counts and logs a rejected operation. Caller holds e.mu.
func (e *Engine) fail(op string, err error) error {
	code := CodeOf(err)
	e.failures[code]++
	e.logger.Debug("operation rejected", "op", op, "code", code, "error", err)
	return err
}
