package engine

import "github.com/roach88/causal/internal/ir"

// registry assigns each replica a dense dimension index in registration
// order. Entries are never removed, so the count only grows.
type registry struct {
	index map[ir.ReplicaID]int
	order []ir.ReplicaID
}

func newRegistry() *registry {
	return &registry{index: make(map[ir.ReplicaID]int)}
}

// validate checks a registration without committing it.
func (r *registry) validate(id ir.ReplicaID) error {
	if id == "" {
		return newInvalidIDError()
	}
	if _, ok := r.index[id]; ok {
		return newAlreadyRegisteredError(string(id))
	}
	return nil
}

// add commits a validated registration and returns the assigned index.
func (r *registry) add(id ir.ReplicaID) int {
	idx := len(r.order)
	r.index[id] = idx
	r.order = append(r.order, id)
	return idx
}

// lookup returns the dimension index of a registered replica.
func (r *registry) lookup(id ir.ReplicaID) (int, bool) {
	idx, ok := r.index[id]
	return idx, ok
}

// count is the global replica count: the logical dimensionality of every
// clock.
func (r *registry) count() int {
	return len(r.order)
}

func (r *registry) replicas() []ir.Replica {
	out := make([]ir.Replica, len(r.order))
	for i, id := range r.order {
		out[i] = ir.Replica{ID: id, Index: i}
	}
	return out
}
