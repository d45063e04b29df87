package ir

import (
	"fmt"
	"slices"
)

// Session identifies one journaled run of an engine.
type Session struct {
	ID            string `json:"id"`
	EngineVersion string `json:"engine_version"`
	IRVersion     string `json:"ir_version"`
}

// OperationKind names a state-changing engine call.
type OperationKind string

const (
	OpRegister OperationKind = "register"
	OpTick     OperationKind = "tick"
	OpMerge    OperationKind = "merge"
)

// ValidOperationKinds lists every OperationKind.
var ValidOperationKinds = []OperationKind{OpRegister, OpTick, OpMerge}

// ParseOperationKind converts a stored kind into an OperationKind.
func ParseOperationKind(s string) (OperationKind, error) {
	k := OperationKind(s)
	if slices.Contains(ValidOperationKinds, k) {
		return k, nil
	}
	return "", fmt.Errorf("unknown operation kind %q", s)
}

// Operation is one committed engine mutation as recorded in a journal.
//
// Only the fields relevant to Kind are set:
//   - register: Replica, Index
//   - tick: Replica, Index, EventID, Clock
//   - merge: Replica (target), Other (source), Clock (result)
type Operation struct {
	Seq     int64         `json:"seq"`
	Kind    OperationKind `json:"kind"`
	Replica ReplicaID     `json:"replica"`
	Other   ReplicaID     `json:"other,omitempty"`
	Index   int           `json:"index"`
	EventID EventID       `json:"event_id,omitempty"`
	Clock   Clock         `json:"clock,omitempty"`
}
