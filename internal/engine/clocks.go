package engine

import "github.com/roach88/causal/internal/ir"

// clockStore owns the live vector of every registered replica.
//
// Vectors grow lazily: registering a replica does not touch anyone else's
// vector. A vector is extended to the current replica count only when it is
// next accessed (ensureSize), and any read past a stored length is 0.
type clockStore struct {
	vectors map[ir.ReplicaID][]uint64
}

func newClockStore() *clockStore {
	return &clockStore{vectors: make(map[ir.ReplicaID][]uint64)}
}

// add creates an all-zero (empty) vector for a newly registered replica.
func (s *clockStore) add(id ir.ReplicaID) {
	s.vectors[id] = nil
}

// ensureSize extends a replica's stored vector with zeros until its length
// equals n. Vectors are never shortened.
func (s *clockStore) ensureSize(id ir.ReplicaID, n int) []uint64 {
	v := s.vectors[id]
	for len(v) < n {
		v = append(v, 0)
	}
	s.vectors[id] = v
	return v
}

// peek returns the stored vector as-is, without extension.
func (s *clockStore) peek(id ir.ReplicaID) ir.Clock {
	return ir.Clock(s.vectors[id])
}

// increment raises dimension dim of id's vector by exactly 1 and returns
// a copy of the result.
func (s *clockStore) increment(id ir.ReplicaID, dim, n int) ir.Clock {
	v := s.ensureSize(id, n)
	v[dim]++
	return ir.Clock(v).Copy()
}

// join sets target[i] = max(target[i], source[i]) for every i < n.
// Only target is changed logically; source is only zero-extended.
func (s *clockStore) join(target, source ir.ReplicaID, n int) ir.Clock {
	t := s.ensureSize(target, n)
	src := s.ensureSize(source, n)
	for i := 0; i < n; i++ {
		if src[i] > t[i] {
			t[i] = src[i]
		}
	}
	return ir.Clock(t).Copy()
}

// snapshot returns a copy of id's vector extended to n.
func (s *clockStore) snapshot(id ir.ReplicaID, n int) ir.Clock {
	return ir.Clock(s.ensureSize(id, n)).Copy()
}
