package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/causal/internal/ir"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testSession(id string) ir.Session {
	return ir.Session{ID: id, EngineVersion: ir.EngineVersion, IRVersion: ir.IRVersion}
}

// twoReplicaJournal is the journal of: register r1, register r2, tick r1,
// tick r2, merge r1<-r2, tick r1.
func twoReplicaJournal() ([]ir.Operation, []ir.Event) {
	e1 := ir.Event{ID: ir.MustEventID("r1", 1, 1), Replica: "r1", Index: 0, Counter: 1, Nonce: 1, Clock: ir.Clock{1, 0}}
	e2 := ir.Event{ID: ir.MustEventID("r2", 1, 2), Replica: "r2", Index: 1, Counter: 1, Nonce: 2, Clock: ir.Clock{0, 1}}
	e3 := ir.Event{ID: ir.MustEventID("r1", 2, 3), Replica: "r1", Index: 0, Counter: 2, Nonce: 3, Clock: ir.Clock{2, 1}}

	ops := []ir.Operation{
		{Seq: 1, Kind: ir.OpRegister, Replica: "r1", Index: 0},
		{Seq: 2, Kind: ir.OpRegister, Replica: "r2", Index: 1},
		{Seq: 3, Kind: ir.OpTick, Replica: "r1", Index: 0, EventID: e1.ID, Clock: e1.Clock},
		{Seq: 4, Kind: ir.OpTick, Replica: "r2", Index: 1, EventID: e2.ID, Clock: e2.Clock},
		{Seq: 5, Kind: ir.OpMerge, Replica: "r1", Other: "r2", Clock: ir.Clock{1, 1}},
		{Seq: 6, Kind: ir.OpTick, Replica: "r1", Index: 0, EventID: e3.ID, Clock: e3.Clock},
	}
	return ops, []ir.Event{e1, e2, e3}
}
